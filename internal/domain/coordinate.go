package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	longitudeDivisor    = 100000
	latitudeDivisor     = 10000
	latitudeWideDivisor = 100000
	latitudeWideDigits  = 7
	coordinatePrecision = 100000 // 5 decimal places
	maxAbsLatitude      = 90
	maxAbsLongitude     = 180
)

// DecodeCoordinate converts a fixed-point feed angle into decimal degrees,
// rounded to 5 decimal places.
//
// Longitudes are always scaled by 10^5. Latitudes are scaled by 10^4 unless
// their integer part has exactly 7 digits, in which case they use 10^5.
func DecodeCoordinate(raw string, isLongitude bool) (float64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("decode coordinate %q: %w", raw, err)
	}

	divisor := float64(latitudeDivisor)
	switch {
	case isLongitude:
		divisor = longitudeDivisor
	case integerDigits(raw) == latitudeWideDigits:
		divisor = latitudeWideDivisor
	}

	return math.Round(v/divisor*coordinatePrecision) / coordinatePrecision, nil
}

// ClampCoordinate returns v when it is a valid latitude (or longitude), and
// the 0 sentinel otherwise.
func ClampCoordinate(v float64, isLongitude bool) float64 {
	limit := float64(maxAbsLatitude)
	if isLongitude {
		limit = maxAbsLongitude
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0
	}
	return v
}

// integerDigits counts the digits before the decimal point, ignoring sign.
func integerDigits(raw string) int {
	raw = strings.TrimLeft(raw, "+-")
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}
	n := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
