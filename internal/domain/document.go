package domain

// Fuel labels used by the feed. Any other label is passed through as-is.
const (
	FuelGazole = "Gazole"
	FuelSP95   = "SP95"
	FuelE85    = "E85"
	FuelE10    = "E10"
	FuelSP98   = "SP98"
)

// KnownFuels lists the labels the dashboard offers, in display order.
var KnownFuels = []string{FuelGazole, FuelSP95, FuelE85, FuelE10, FuelSP98}

// DenseStation is the dashboard-facing form of a station: every fuel carries
// exactly one price per window date.
type DenseStation struct {
	ID           int                  `json:"id"`
	Name         *string              `json:"name"`
	Address      string               `json:"address"`
	Latitude     float64              `json:"latitude"`
	Longitude    float64              `json:"longitude"`
	PostalCode   string               `json:"postal_code"`
	City         string               `json:"city"`
	IsAlwaysOpen bool                 `json:"is_always_open"`
	OpeningHours OpeningHours         `json:"opening_hours"`
	Carburants   map[string][]float64 `json:"carburants"`
	OpeningDates []string             `json:"opening_dates"`
}

// Document is the root of the output file.
type Document struct {
	Stations []DenseStation `json:"stations"`
}

// NewDenseStation densifies a station's history over the window.
func NewDenseStation(s GasStation, w Window) DenseStation {
	return DenseStation{
		ID:           s.ID,
		Name:         s.Name,
		Address:      s.Address,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		PostalCode:   s.PostalCode,
		City:         s.City,
		IsAlwaysOpen: s.IsAlwaysOpen,
		OpeningHours: s.OpeningHours,
		Carburants:   DensifyHistory(s.Prices, w),
		OpeningDates: w.Labels(),
	}
}

// NewDocument densifies every station against a shared window, keeping the
// input order.
func NewDocument(stations []GasStation, w Window) Document {
	doc := Document{Stations: make([]DenseStation, 0, len(stations))}
	for i := range stations {
		doc.Stations = append(doc.Stations, NewDenseStation(stations[i], w))
	}
	return doc
}
