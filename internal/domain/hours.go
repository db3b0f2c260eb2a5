package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidHours reports an opening-hours block that cannot be modeled.
// The station keeps no opening hours at all in that case.
var ErrInvalidHours = errors.New("invalid opening hours")

const (
	firstFeedDay = 1 // Monday
	lastFeedDay  = 7 // Sunday
)

// RawHours is the <horaires> element of a feed station.
type RawHours struct {
	AlwaysOpen *string  `xml:"automate-24-24,attr"`
	Days       []RawDay `xml:"jour"`
}

// RawDay is one <jour> entry of a <horaires> element.
type RawDay struct {
	ID     string    `xml:"id,attr"`
	Closed string    `xml:"ferme,attr"`
	Slots  []RawSlot `xml:"horaire"`
}

// RawSlot is an opening/closing pair in "HH.MM" form.
type RawSlot struct {
	Open  string `xml:"ouverture,attr"`
	Close string `xml:"fermeture,attr"`
}

// TimeOfDay is a wall-clock time with minute granularity.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// HoursRange is an opening window for one day. Start after End is kept as-is;
// the feed has no overnight convention.
type HoursRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

type hoursRangeJSON struct {
	HourStart string `json:"hour_start"`
	HourEnd   string `json:"hour_end"`
}

func (r HoursRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(hoursRangeJSON{HourStart: r.Start.String(), HourEnd: r.End.String()})
}

func (r *HoursRange) UnmarshalJSON(data []byte) error {
	var v hoursRangeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	start, err := parseTimeOfDay(v.HourStart, ":")
	if err != nil {
		return err
	}
	end, err := parseTimeOfDay(v.HourEnd, ":")
	if err != nil {
		return err
	}
	*r = HoursRange{Start: start, End: end}
	return nil
}

// OpeningHours maps a weekday index (0 = Monday) to its hours, or nil when
// the station is closed that day. Serialized keys are the index as a string.
type OpeningHours map[int]*HoursRange

// ParseFeedTime parses a feed time such as "08.30".
func ParseFeedTime(s string) (TimeOfDay, error) {
	return parseTimeOfDay(s, ".")
}

// NewOpeningHours builds the weekly hours from the <jour> entries of a
// <horaires> element. Any malformed day invalidates the whole structure.
func NewOpeningHours(days []RawDay) (OpeningHours, error) {
	hours := make(OpeningHours, len(days))
	for _, day := range days {
		index, err := weekdayIndex(day.ID)
		if err != nil {
			return nil, err
		}

		if day.Closed == "1" || len(day.Slots) == 0 {
			hours[index] = nil
			continue
		}

		slot := day.Slots[0]
		start, err := ParseFeedTime(slot.Open)
		if err != nil {
			return nil, fmt.Errorf("day %s opening: %w", day.ID, err)
		}
		end, err := ParseFeedTime(slot.Close)
		if err != nil {
			return nil, fmt.Errorf("day %s closing: %w", day.ID, err)
		}
		hours[index] = &HoursRange{Start: start, End: end}
	}
	return hours, nil
}

// IsAlwaysOpen reports whether the <horaires> element flags an unattended
// 24/7 pump. A missing element means false.
func IsAlwaysOpen(raw *RawHours) bool {
	if raw == nil || raw.AlwaysOpen == nil {
		return false
	}
	v := strings.TrimSpace(*raw.AlwaysOpen)
	return v != "" && v != "0"
}

func weekdayIndex(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n < firstFeedDay || n > lastFeedDay {
		return 0, fmt.Errorf("%w: day id %q", ErrInvalidHours, id)
	}
	return n - firstFeedDay, nil
}

func parseTimeOfDay(s, sep string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), sep)
	if !ok || !isClockField(hh) || !isClockField(mm) {
		return TimeOfDay{}, fmt.Errorf("%w: time %q", ErrInvalidHours, s)
	}

	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	if hour > 23 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: time %q out of range", ErrInvalidHours, s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func isClockField(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
