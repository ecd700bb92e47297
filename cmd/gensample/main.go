// Command gensample writes a synthetic incident dataset for demos and tests.
// Records cluster around three hotspots and spread over the year after
// -base-date. The same seed always produces the same file.
//
// Usage:
//
//	go run ./cmd/gensample -n 500 -seed 7 -format csv -out data/sample/incidents.csv
//	go run ./cmd/gensample -format json -out data/sample/incidents.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	"github.com/couchcryptid/incident-analytics-service/internal/ingest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 500, "number of incidents to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	base := flag.String("base-date", "2024-01-01", "first date of the generated year (YYYY-MM-DD)")
	format := flag.String("format", "csv", "output format: csv or json")
	out := flag.String("out", "", "output path (default stdout)")
	flag.Parse()

	if *n <= 0 {
		flag.Usage()
		return fmt.Errorf("-n must be positive, got %d", *n)
	}
	baseDate, err := domain.ParseDate(*base)
	if err != nil {
		return fmt.Errorf("parse -base-date: %w", err)
	}

	records := ingest.GenerateSample(rand.New(rand.NewPCG(*seed, *seed)), *n, baseDate)

	w := io.Writer(os.Stdout)
	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "csv":
		err = ingest.WriteCSV(w, records)
	case "json":
		err = writeJSON(w, ingest.ToRaw(records))
	default:
		return fmt.Errorf("unknown -format %q: want csv or json", *format)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", *format, err)
	}

	if *out != "" {
		log.Printf("wrote %d incidents to %s", len(records), *out)
	}
	printStats(records)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

type labelCount struct {
	label string
	count int
}

// printStats logs the category and severity mix so fixture assertions can be
// updated after regenerating.
func printStats(records []domain.IncidentRecord) {
	categories := map[string]int{}
	severities := map[string]int{}
	for _, r := range records {
		categories[r.Category]++
		severities[string(r.Severity)]++
	}
	log.Printf("total: %d", len(records))
	log.Printf("categories: %v", sorted(categories))
	log.Printf("severities: %v", sorted(severities))
}

func sorted(m map[string]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for k, v := range m {
		out = append(out, labelCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].label < out[j].label
	})
	return out
}
