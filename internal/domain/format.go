package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// FormatStation renders a one-station summary for terminal diagnostics.
func FormatStation(s DenseStation) string {
	var b strings.Builder

	name := "<unknown>"
	if s.Name != nil {
		name = *s.Name
	}
	fmt.Fprintf(&b, "Station %d: %s\n", s.ID, name)
	fmt.Fprintf(&b, "  %s, %s %s (%.5f, %.5f)\n", s.Address, s.PostalCode, s.City, s.Latitude, s.Longitude)
	fmt.Fprintf(&b, "  always open: %t\n", s.IsAlwaysOpen)
	b.WriteString(indent(FormatOpeningHours(s.OpeningHours), "  "))

	if len(s.OpeningDates) > 0 {
		fmt.Fprintf(&b, "  prices %s .. %s:\n", s.OpeningDates[0], s.OpeningDates[len(s.OpeningDates)-1])
	}
	for _, fuel := range orderFuels(s.Carburants) {
		series := s.Carburants[fuel]
		if len(series) == 0 {
			continue
		}
		fmt.Fprintf(&b, "    %-7s first %.3f last %.3f (%d days)\n", fuel, series[0], series[len(series)-1], len(series))
	}
	return b.String()
}

// orderFuels lists the KnownFuels present in display order, then any other
// label alphabetically.
func orderFuels(carburants map[string][]float64) []string {
	fuels := make([]string, 0, len(carburants))
	for _, fuel := range KnownFuels {
		if _, ok := carburants[fuel]; ok {
			fuels = append(fuels, fuel)
		}
	}
	extra := make([]string, 0, len(carburants)-len(fuels))
	for fuel := range carburants {
		if !slices.Contains(KnownFuels, fuel) {
			extra = append(extra, fuel)
		}
	}
	sort.Strings(extra)
	return append(fuels, extra...)
}

// FormatOpeningHours renders the weekly hours one day per line.
func FormatOpeningHours(h OpeningHours) string {
	if h == nil {
		return "Opening hours: unknown\n"
	}

	days := make([]int, 0, len(h))
	for day := range h {
		days = append(days, day)
	}
	sort.Ints(days)

	var b strings.Builder
	b.WriteString("Opening hours:\n")
	for _, day := range days {
		if r := h[day]; r != nil {
			fmt.Fprintf(&b, "  Day %d: %s - %s\n", day, r.Start, r.End)
		} else {
			fmt.Fprintf(&b, "  Day %d: Closed\n", day)
		}
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}
