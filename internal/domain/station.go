package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingField marks a record without one of its mandatory nodes.
	ErrMissingField = errors.New("missing mandatory field")

	// ErrInvalidField marks a record whose mandatory value cannot be parsed.
	ErrInvalidField = errors.New("invalid field")
)

// DateLayout is the calendar-date format used for history keys and window labels.
const DateLayout = "2006-01-02"

// priceTimestampLayouts lists the "maj" formats seen across yearly dumps.
var priceTimestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// RawStation is one child of the feed's root element.
type RawStation struct {
	ID         string     `xml:"id,attr"`
	Latitude   string     `xml:"latitude,attr"`
	Longitude  string     `xml:"longitude,attr"`
	PostalCode string     `xml:"cp,attr"`
	Address    *string    `xml:"adresse"`
	City       *string    `xml:"ville"`
	Hours      *RawHours  `xml:"horaires"`
	Prices     []RawPrice `xml:"prix"`
}

// RawPrice is a single price update event.
type RawPrice struct {
	Fuel      string `xml:"nom,attr"`
	Value     string `xml:"valeur,attr"`
	UpdatedAt string `xml:"maj,attr"`
}

func (p RawPrice) empty() bool {
	return p.Fuel == "" && p.Value == "" && p.UpdatedAt == ""
}

// DailyPrices maps a calendar date ("2006-01-02") to the price of that day.
type DailyPrices map[string]float64

// PriceHistory maps a fuel label to its daily prices.
type PriceHistory map[string]DailyPrices

// GasStation is the normalized form of one feed record.
type GasStation struct {
	ID           int
	Name         *string
	Address      string
	City         string
	PostalCode   string
	Latitude     float64
	Longitude    float64
	OpeningHours OpeningHours
	IsAlwaysOpen bool
	Prices       PriceHistory

	// HoursErr holds the reason opening hours were dropped, if they were.
	HoursErr error
	// DroppedPrices counts price events that could not be parsed.
	DroppedPrices int
}

// ParseStationID parses the station identifier attribute.
func ParseStationID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: id", ErrMissingField)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", ErrInvalidField, raw)
	}
	return id, nil
}

// ParseStation normalizes a raw feed record. It fails only when the record
// cannot identify or locate the station; every other defect degrades a field.
func ParseStation(raw RawStation, name *string) (GasStation, error) {
	id, err := ParseStationID(raw.ID)
	if err != nil {
		return GasStation{}, err
	}
	if raw.Address == nil {
		return GasStation{}, fmt.Errorf("station %d: %w: adresse", id, ErrMissingField)
	}
	if raw.City == nil {
		return GasStation{}, fmt.Errorf("station %d: %w: ville", id, ErrMissingField)
	}

	lat, err := parseCoordinateField(raw.Latitude, false)
	if err != nil {
		return GasStation{}, fmt.Errorf("station %d: %w: latitude: %w", id, ErrInvalidField, err)
	}
	lon, err := parseCoordinateField(raw.Longitude, true)
	if err != nil {
		return GasStation{}, fmt.Errorf("station %d: %w: longitude: %w", id, ErrInvalidField, err)
	}

	station := GasStation{
		ID:           id,
		Name:         name,
		Address:      strings.TrimSpace(*raw.Address),
		City:         strings.TrimSpace(*raw.City),
		PostalCode:   strings.TrimSpace(raw.PostalCode),
		Latitude:     lat,
		Longitude:    lon,
		IsAlwaysOpen: IsAlwaysOpen(raw.Hours),
	}

	if raw.Hours != nil {
		hours, err := NewOpeningHours(raw.Hours.Days)
		if err != nil {
			station.HoursErr = err
		} else {
			station.OpeningHours = hours
		}
	}

	station.Prices, station.DroppedPrices = groupPrices(raw.Prices)
	return station, nil
}

// parseCoordinateField decodes a coordinate attribute. An absent coordinate
// and an out-of-range one both become the 0 sentinel.
func parseCoordinateField(raw string, isLongitude bool) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	v, err := DecodeCoordinate(raw, isLongitude)
	if err != nil {
		return 0, err
	}
	return ClampCoordinate(v, isLongitude), nil
}

// groupPrices buckets update events by fuel and calendar date. Events are
// applied in document order, so the last update of a day wins.
func groupPrices(events []RawPrice) (PriceHistory, int) {
	history := make(PriceHistory)
	dropped := 0
	for _, ev := range events {
		if ev.empty() {
			continue
		}
		fuel := strings.TrimSpace(ev.Fuel)
		price, errP := strconv.ParseFloat(strings.TrimSpace(ev.Value), 64)
		day, errD := priceDate(ev.UpdatedAt)
		// JSON has no encoding for NaN or infinities.
		if fuel == "" || errP != nil || errD != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			dropped++
			continue
		}

		daily, ok := history[fuel]
		if !ok {
			daily = make(DailyPrices)
			history[fuel] = daily
		}
		daily[day] = price
	}
	return history, dropped
}

// priceDate truncates an update timestamp to its calendar date.
func priceDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range priceTimestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("%w: price timestamp %q", ErrInvalidField, raw)
}
