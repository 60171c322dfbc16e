package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"aerodrome/internal/models"
)

// SeedPaths points at the CSV datasets used to populate empty catalog tables
type SeedPaths struct {
	FuelTypes    string
	ParkingSlots string
	Hangars      string
}

// SeedCatalog loads each dataset into its table when the table is empty.
// Empty paths are skipped.
func SeedCatalog(ctx context.Context, repo CatalogRepository, paths SeedPaths) error {
	steps := []struct {
		table CatalogTable
		path  string
		load  func(ctx context.Context, repo CatalogRepository, path string) error
	}{
		{TableFuelTypes, paths.FuelTypes, loadFuelTypes},
		{TableParkingSlots, paths.ParkingSlots, loadParkingSlots},
		{TableHangars, paths.Hangars, loadHangars},
	}

	for _, s := range steps {
		if s.path == "" {
			continue
		}
		populated, err := repo.IsTablePopulated(ctx, s.table)
		if err != nil {
			return err
		}
		if populated {
			slog.Debug("Catalog table already populated", "table", s.table)
			continue
		}
		if err := s.load(ctx, repo, s.path); err != nil {
			return fmt.Errorf("failed to seed %s from %s: %w", s.table, s.path, err)
		}
		n, err := repo.CountRows(ctx, s.table)
		if err != nil {
			return err
		}
		slog.Info("Seeded catalog table", "table", s.table, "rows", n, "csv_path", s.path)
	}

	return nil
}

func loadFuelTypes(ctx context.Context, repo CatalogRepository, path string) error {
	var fuels []*models.FuelType
	err := readCSV(path, []string{"name", "price_per_liter", "max_quantity"}, func(rec csvRecord) error {
		price, err := rec.float("price_per_liter")
		if err != nil {
			return err
		}
		maxQty, err := rec.float("max_quantity")
		if err != nil {
			return err
		}
		fuels = append(fuels, &models.FuelType{
			Name:          rec.get("name"),
			PricePerLiter: price,
			MaxQuantity:   maxQty,
		})
		return nil
	})
	if err != nil {
		return err
	}
	return repo.InsertFuelTypes(ctx, fuels)
}

func loadParkingSlots(ctx context.Context, repo CatalogRepository, path string) error {
	var slots []*models.ParkingSlot
	err := readCSV(path, []string{"id", "size", "price_tier"}, func(rec csvRecord) error {
		id, err := rec.int("id")
		if err != nil {
			return err
		}
		tier := strings.ToUpper(rec.get("price_tier"))
		if !models.ValidTier(tier) {
			return fmt.Errorf("parking slot %d: invalid price tier %q", id, tier)
		}
		slots = append(slots, &models.ParkingSlot{ID: id, Size: rec.get("size"), PriceTier: tier})
		return nil
	})
	if err != nil {
		return err
	}
	return repo.InsertParkingSlots(ctx, slots)
}

func loadHangars(ctx context.Context, repo CatalogRepository, path string) error {
	var hangars []*models.Hangar
	err := readCSV(path, []string{"id", "size", "daily_rate", "weekly_rate", "monthly_rate"}, func(rec csvRecord) error {
		h := &models.Hangar{Size: rec.get("size")}
		var err error
		if h.ID, err = rec.int("id"); err != nil {
			return err
		}
		if h.DailyRate, err = rec.float("daily_rate"); err != nil {
			return err
		}
		if h.WeeklyRate, err = rec.float("weekly_rate"); err != nil {
			return err
		}
		if h.MonthlyRate, err = rec.float("monthly_rate"); err != nil {
			return err
		}
		hangars = append(hangars, h)
		return nil
	})
	if err != nil {
		return err
	}
	return repo.InsertHangars(ctx, hangars)
}

type csvRecord struct {
	fields    []string
	headerMap map[string]int
}

func (r csvRecord) get(name string) string {
	return getField(r.fields, r.headerMap, name)
}

func (r csvRecord) float(name string) (float64, error) {
	v, err := strconv.ParseFloat(r.get(name), 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

func (r csvRecord) int(name string) (int64, error) {
	v, err := strconv.ParseInt(r.get(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

// readCSV calls fn for every record of the file at path. The header row must contain
// every column in required; blank lines and records with the wrong field count are skipped.
func readCSV(path string, required []string, fn func(csvRecord) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header from %s: %w", path, err)
	}

	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.Trim(strings.TrimSpace(h), "'\"")] = i
	}
	for _, col := range required {
		if _, ok := headerMap[col]; !ok {
			return fmt.Errorf("CSV file %s is missing column %q", path, col)
		}
	}

	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("failed to read CSV record from %s: %w", path, err)
		}
		if len(fields) != len(header) {
			continue
		}
		if err := fn(csvRecord{fields: fields, headerMap: headerMap}); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}

	return nil
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}
