// Command validate checks the integrity of a published station document:
// a shared consecutive date window, one price per window day for every fuel,
// forward-filled series, and sane station fields. With -feed it also checks
// that every publishable feed record made it into the document.
//
// Usage:
//
//	go run ./cmd/validate -data graph_data/data.json [-days 365] [-feed PrixCarburants_annuel_2023.xml]
//	go run ./cmd/validate -data graph_data/data.json -station 1000001
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/couchcryptid/fuel-price-etl/internal/adapter/feed"
	"github.com/couchcryptid/fuel-price-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/fuel-price-etl/internal/domain"
)

var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataPath := flag.String("data", "graph_data/data.json", "path to the published JSON document")
	days := flag.Int("days", 0, "expected window length (0 accepts any)")
	feedPath := flag.String("feed", "", "optional XML feed to cross-check station coverage")
	station := flag.Int("station", 0, "print one station in human-readable form and exit")
	flag.Parse()

	doc, err := jsonfile.Read(*dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if *station != 0 {
		os.Exit(printStation(doc, *station))
	}
	os.Exit(run(doc, *days, *feedPath))
}

func printStation(doc domain.Document, id int) int {
	for _, s := range doc.Stations {
		if s.ID == id {
			fmt.Print(domain.FormatStation(s))
			return 0
		}
	}
	fmt.Fprintf(os.Stderr, "station %d not found\n", id)
	return 1
}

func run(doc domain.Document, days int, feedPath string) int {
	fmt.Println("=== Fuel Price Document Validation ===")
	fmt.Println()

	phases := []*phase{
		validateWindow(doc, days),
		validateSeries(doc),
		validateStations(doc),
	}
	if feedPath != "" {
		raws, err := feed.NewFileSource(feedPath).Load(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load feed: %v\n", err)
			return 1
		}
		phases = append(phases, validateCoverage(doc, raws))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Stations: %d\n", len(doc.Stations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateWindow checks that every station carries the same window of
// consecutive calendar days.
func validateWindow(doc domain.Document, days int) *phase {
	p := &phase{name: "Date window"}
	if len(doc.Stations) == 0 {
		return p
	}

	ref := doc.Stations[0].OpeningDates
	if days > 0 && len(ref) != days {
		p.errorf("window has %d days, expected %d", len(ref), days)
	}
	for i := range ref {
		d, err := time.Parse(domain.DateLayout, ref[i])
		if err != nil {
			p.errorf("opening_dates[%d] %q is not a date", i, ref[i])
			continue
		}
		if i == 0 {
			continue
		}
		prev, err := time.Parse(domain.DateLayout, ref[i-1])
		if err == nil && !prev.AddDate(0, 0, 1).Equal(d) {
			p.errorf("opening_dates[%d] %s does not follow %s", i, ref[i], ref[i-1])
		}
	}

	for _, s := range doc.Stations[1:] {
		if !sameDates(ref, s.OpeningDates) {
			p.errorf("station %d: opening_dates differ from station %d", s.ID, doc.Stations[0].ID)
		}
	}
	return p
}

// validateSeries checks series length and the forward-fill shape: zeros may
// only lead a series, and prices are never negative.
func validateSeries(doc domain.Document) *phase {
	p := &phase{name: "Price series"}
	for _, s := range doc.Stations {
		for fuel, series := range s.Carburants {
			if len(series) != len(s.OpeningDates) {
				p.errorf("station %d %s: %d prices for %d dates", s.ID, fuel, len(series), len(s.OpeningDates))
			}
			seen := false
			for i, v := range series {
				switch {
				case v < 0:
					p.errorf("station %d %s[%d]: negative price %v", s.ID, fuel, i, v)
				case v == 0 && seen:
					p.errorf("station %d %s[%d]: zero after first price", s.ID, fuel, i)
				case v > 0:
					seen = true
				}
			}
		}
	}
	return p
}

// validateStations checks identity, location, and opening hours fields.
func validateStations(doc domain.Document) *phase {
	p := &phase{name: "Station fields"}
	// The feed may repeat an id; every record is published, and each one
	// carries the name resolved for that id.
	names := make(map[int]*string, len(doc.Stations))
	for _, s := range doc.Stations {
		if prev, seen := names[s.ID]; seen && !sameName(prev, s.Name) {
			p.errorf("station %d: repeated id with a different name", s.ID)
		}
		names[s.ID] = s.Name

		if s.Address == "" {
			p.errorf("station %d: empty address", s.ID)
		}
		if s.City == "" {
			p.errorf("station %d: empty city", s.ID)
		}
		if s.Latitude < -90 || s.Latitude > 90 {
			p.errorf("station %d: latitude %v out of range", s.ID, s.Latitude)
		}
		if s.Longitude < -180 || s.Longitude > 180 {
			p.errorf("station %d: longitude %v out of range", s.ID, s.Longitude)
		}
		if s.Name != nil && *s.Name == "" {
			p.errorf("station %d: empty name should be null", s.ID)
		}
		for day, r := range s.OpeningHours {
			if day < 0 || day > 6 {
				p.errorf("station %d: opening_hours day %d out of range", s.ID, day)
			}
			if r == nil {
				continue
			}
			if start := r.Start.String(); !hhmm.MatchString(start) {
				p.errorf("station %d day %d: hour_start %q", s.ID, day, start)
			}
			if end := r.End.String(); !hhmm.MatchString(end) {
				p.errorf("station %d day %d: hour_end %q", s.ID, day, end)
			}
		}
	}
	return p
}

func sameName(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// validateCoverage checks that the document holds exactly the feed records
// that carry an id, an address, and a city.
func validateCoverage(doc domain.Document, raws []domain.RawStation) *phase {
	p := &phase{name: "Feed coverage"}

	published := make(map[int]bool, len(doc.Stations))
	for _, s := range doc.Stations {
		published[s.ID] = true
	}

	expected := make(map[int]bool, len(raws))
	for _, raw := range raws {
		id, err := domain.ParseStationID(raw.ID)
		if err != nil || raw.Address == nil || raw.City == nil {
			continue
		}
		expected[id] = true
		if !published[id] {
			p.errorf("feed station %d missing from document", id)
		}
	}
	for id := range published {
		if !expected[id] {
			p.errorf("document station %d is not a complete feed record", id)
		}
	}
	return p
}

func sameDates(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
