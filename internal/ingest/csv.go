// Package ingest reads incident records from CSV and JSON files and generates
// synthetic fixtures. Every record goes through the same defaulting and
// validation as records arriving on the stream.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
)

// RowError reports a CSV row or JSON element that could not be normalized.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// csvColumns lists the recognized header names in output order.
var csvColumns = []string{"id", "date", "time", "category", "description", "latitude", "longitude", "district", "severity"}

// ParseCSV reads a header-first CSV document. Header names are matched
// case-insensitively and unknown columns are ignored. Rows without an id are
// named imported_N after their 1-based data row. Rows that fail validation are
// skipped; the returned error joins one *RowError per skipped row while the
// accepted records remain usable.
func ParseCSV(r io.Reader, asOf domain.Date) ([]domain.IncidentRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var records []domain.IncidentRecord
	var errs []error
	for row := 1; ; row++ {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, fmt.Errorf("read csv row %d: %w", row, err)
		}
		if isBlank(values) {
			row--
			continue
		}

		get := func(col string) string {
			if i, ok := colIdx[col]; ok && i < len(values) {
				return strings.TrimSpace(values[i])
			}
			return ""
		}

		raw := domain.RawIncident{
			ID:          get("id"),
			Date:        get("date"),
			Time:        get("time"),
			Category:    get("category"),
			Description: get("description"),
			Latitude:    get("latitude"),
			Lat:         get("lat"),
			Longitude:   get("longitude"),
			Lng:         get("lng"),
			Lon:         get("lon"),
			District:    get("district"),
			Severity:    get("severity"),
		}
		if raw.ID == "" {
			raw.ID = "imported_" + strconv.Itoa(row)
		}

		rec, err := domain.NormalizeRawIncident(raw, asOf)
		if err != nil {
			errs = append(errs, &RowError{Row: row, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}

// ParseJSON reads a JSON array of raw incidents with the same rules as ParseCSV.
// Elements without an id are named imported_N after their 1-based position.
func ParseJSON(r io.Reader, asOf domain.Date) ([]domain.IncidentRecord, error) {
	var raws []domain.RawIncident
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode incidents: %w", err)
	}

	records := make([]domain.IncidentRecord, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		if strings.TrimSpace(raw.ID) == "" {
			raw.ID = "imported_" + strconv.Itoa(i+1)
		}
		rec, err := domain.NormalizeRawIncident(raw, asOf)
		if err != nil {
			errs = append(errs, &RowError{Row: i + 1, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}

// WriteCSV writes records with a header row that ParseCSV reads back.
func WriteCSV(w io.Writer, records []domain.IncidentRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range records {
		rec := &records[i]
		row := []string{
			rec.ID,
			rec.Date.String(),
			rec.Time,
			rec.Category,
			rec.Description,
			strconv.FormatFloat(rec.Latitude, 'f', 6, 64),
			strconv.FormatFloat(rec.Longitude, 'f', 6, 64),
			rec.District,
			string(rec.Severity),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", rec.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
