package pipeline

import (
	"errors"
	"log/slog"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
)

// Normalizer turns raw feed records into stations, skipping the records that
// cannot be identified and degrading the fields that cannot be parsed.
type Normalizer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *slog.Logger, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{logger: logger, metrics: metrics}
}

// Normalize parses every record in feed order, pairing each with the name
// resolved for its id. The output keeps the input order minus skipped records.
func (n *Normalizer) Normalize(raws []domain.RawStation, names map[int]*string) []domain.GasStation {
	n.metrics.RecordsRead.Add(float64(len(raws)))

	stations := make([]domain.GasStation, 0, len(raws))
	for i, raw := range raws {
		var name *string
		if id, err := domain.ParseStationID(raw.ID); err == nil {
			name = names[id]
		}

		station, err := domain.ParseStation(raw, name)
		if err != nil {
			n.metrics.RecordsSkipped.WithLabelValues(skipReason(err)).Inc()
			n.logger.Warn("skipping station record", "index", i, "station_id", raw.ID, "error", err)
			continue
		}

		if station.HoursErr != nil {
			n.metrics.HoursInvalid.Inc()
			n.logger.Debug("opening hours dropped", "station_id", station.ID, "error", station.HoursErr)
		}
		if station.DroppedPrices > 0 {
			n.metrics.PricesDropped.Add(float64(station.DroppedPrices))
			n.logger.Debug("price events dropped", "station_id", station.ID, "count", station.DroppedPrices)
		}
		stations = append(stations, station)
	}
	return stations
}

func skipReason(err error) string {
	if errors.Is(err, domain.ErrMissingField) {
		return "missing_field"
	}
	return "invalid_field"
}

// stationIDs returns the parseable ids of raws in feed order.
func stationIDs(raws []domain.RawStation) []int {
	ids := make([]int, 0, len(raws))
	for _, raw := range raws {
		if id, err := domain.ParseStationID(raw.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
