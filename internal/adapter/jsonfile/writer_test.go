package jsonfile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDocument() domain.Document {
	name := "Esso"
	return domain.Document{Stations: []domain.DenseStation{
		{
			ID:           1000001,
			Name:         &name,
			Address:      "RN 83",
			City:         "BOURG",
			PostalCode:   "01000",
			Latitude:     46.201,
			Longitude:    5.198,
			Carburants:   map[string][]float64{domain.FuelGazole: {0, 1.87}},
			OpeningDates: []string{"2023-12-30", "2023-12-31"},
		},
	}}
}

func TestWriter_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph_data", "data.json")
	w := NewWriter(path, testLogger())

	require.NoError(t, w.Load(context.Background(), testDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string][]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw["stations"], 1)
	assert.JSONEq(t, `{"Gazole":[0,1.87]}`, string(raw["stations"][0]["carburants"]))
	assert.Equal(t, "null", string(raw["stations"][0]["opening_hours"]))
}

func TestWriter_LoadReplacesPreviousDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	w := NewWriter(path, testLogger())

	require.NoError(t, w.Load(context.Background(), testDocument()))
	require.NoError(t, w.Load(context.Background(), domain.Document{Stations: []domain.DenseStation{}}))

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Stations)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	want := testDocument()

	require.NoError(t, NewWriter(path, testLogger()).Load(context.Background(), want))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriter_CanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWriter(path, testLogger()).Load(ctx, testDocument())
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"stations":`), 0o600))
	_, err = Read(bad)
	assert.Error(t, err)
}
