package api

import (
	"net/http"
	"strconv"

	"aerodrome/internal/ledger"
	"aerodrome/internal/models"
)

type nameRequest struct {
	Name string `json:"name"`
}

type aircraftRequest struct {
	Model        string  `json:"model"`
	FuelCapacity float64 `json:"fuel_capacity"`
	PilotID      int64   `json:"pilot_id"`
}

type reservationRequest struct {
	PilotID       int64  `json:"pilot_id"`
	AircraftID    int64  `json:"aircraft_id"`
	Date          string `json:"date"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	ParkingSlotID *int64 `json:"parking_slot_id"`
}

type stateRequest struct {
	State string `json:"state"`
}

type fuelRequest struct {
	Quantity float64 `json:"quantity"`
	FuelType string  `json:"fuel_type"`
}

type hangarRequest struct {
	HangarID int64 `json:"hangar_id"`
}

type invoiceRequest struct {
	AgentID int64 `json:"agent_id"`
}

// reservationResponse adds the derived availability flag to a reservation
type reservationResponse struct {
	*models.Reservation
	Available bool `json:"available"`
}

func toResponse(res *models.Reservation) reservationResponse {
	return reservationResponse{Reservation: res, Available: res.Available()}
}

func callerRole(r *http.Request) models.Role {
	return models.Role(r.Header.Get(HeaderCallerRole))
}

func (h *handler) createPilot(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pilot, err := h.svc.RegisterPilot(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pilot)
}

func (h *handler) createAgent(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	agent, err := h.svc.RegisterAgent(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *handler) createAircraft(w http.ResponseWriter, r *http.Request) {
	var req aircraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ac, err := h.svc.RegisterAircraft(r.Context(), &models.Aircraft{
		Model:        req.Model,
		FuelCapacity: req.FuelCapacity,
		PilotID:      req.PilotID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ac)
}

func (h *handler) listParkingSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.svc.ListParkingSlots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *handler) listHangars(w http.ResponseWriter, r *http.Request) {
	hangars, err := h.svc.ListHangars(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hangars)
}

func (h *handler) listFuelTypes(w http.ResponseWriter, r *http.Request) {
	fuels, err := h.svc.ListFuelTypes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fuels)
}

func (h *handler) createReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CheckAndCreateReservation(r.Context(), ledger.BookingRequest{
		PilotID:       req.PilotID,
		AircraftID:    req.AircraftID,
		Date:          req.Date,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		ParkingSlotID: req.ParkingSlotID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(res))
}

func (h *handler) listReservations(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListReservations(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]reservationResponse, 0, len(list))
	for _, res := range list {
		out = append(out, toResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}

// parseFilter reads the reservation list filters from the query string
func parseFilter(w http.ResponseWriter, r *http.Request) (models.ReservationFilter, bool) {
	q := r.URL.Query()
	filter := models.ReservationFilter{Date: q.Get("date")}

	if s := q.Get("state"); s != "" {
		st, err := models.ParseState(s)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return filter, false
		}
		filter.State = st
	}

	ids := map[string]**int64{
		"parking_slot_id": &filter.ParkingSlotID,
		"aircraft_id":     &filter.AircraftID,
	}
	for name, dst := range ids {
		s := q.Get(name)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid "+name)
			return filter, false
		}
		*dst = &id
	}

	if s := q.Get("available"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid available")
			return filter, false
		}
		filter.Available = &b
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeErrorMessage(w, http.StatusBadRequest, "invalid limit")
			return filter, false
		}
		filter.Limit = n
	}
	return filter, true
}

func (h *handler) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *handler) setState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req stateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// An unknown state name is passed through so the role check still runs first
	state, err := models.ParseState(req.State)
	if err != nil {
		state = models.State(req.State)
	}
	res, err := h.svc.SetReservationState(r.Context(), id, state, callerRole(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *handler) attachFuel(w http.ResponseWriter, r *http.Request) {
	h.fuel(w, r, false)
}

func (h *handler) upsertFuel(w http.ResponseWriter, r *http.Request) {
	h.fuel(w, r, true)
}

func (h *handler) fuel(w http.ResponseWriter, r *http.Request, upsert bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req fuelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		fill *models.FuelFill
		err  error
	)
	status := http.StatusCreated
	if upsert {
		fill, err = h.svc.UpsertFuel(r.Context(), id, req.Quantity, req.FuelType)
		status = http.StatusOK
	} else {
		fill, err = h.svc.AttachFuel(r.Context(), id, req.Quantity, req.FuelType)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, fill)
}

func (h *handler) getFuel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	fill, err := h.svc.GetFuelFill(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fill)
}

func (h *handler) attachHangar(w http.ResponseWriter, r *http.Request) {
	h.hangar(w, r, false)
}

func (h *handler) upsertHangar(w http.ResponseWriter, r *http.Request) {
	h.hangar(w, r, true)
}

func (h *handler) hangar(w http.ResponseWriter, r *http.Request, upsert bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req hangarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		a   *models.HangarAssignment
		err error
	)
	status := http.StatusCreated
	if upsert {
		a, err = h.svc.UpsertHangar(r.Context(), id, req.HangarID)
		status = http.StatusOK
	} else {
		a, err = h.svc.AttachHangar(r.Context(), id, req.HangarID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, a)
}

func (h *handler) getHangar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.GetHangarAssignment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.svc.GenerateInvoice(r.Context(), id, req.AgentID, callerRole(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
