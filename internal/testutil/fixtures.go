// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// SampleConfiguration is a small canonical document with one source of
// each kind and one service.
func SampleConfiguration() models.Configuration {
	cfg := models.NewConfiguration()
	cfg.Layout.Navigation = models.Navigation{Logo: "/logo.png", Title: "Atlas"}
	cfg.InterfaceGroups = []string{"Land"}
	cfg.Services = []models.Service{{ID: "ts", Name: "Terrascope", URL: "https://services.example.com/wms", Format: "wms"}}
	cfg.Sources = []models.DataSource{
		{
			Name:        "Basemap",
			IsActive:    true,
			IsBaseLayer: true,
			Data:        []models.DataSourceItem{{URL: "https://tiles.example.com/{z}/{x}/{y}.png", Format: "xyz", ZIndex: 10}},
		},
		{
			Name: "Land cover",
			Data: []models.DataSourceItem{
				{URL: "https://example.com/a.tif", Format: "cog", ZIndex: 50},
				{URL: "https://example.com/b.tif", Format: "cog", ZIndex: 50},
			},
			Meta: &models.Meta{
				Description: "ESA WorldCover",
				Categories:  []models.Category{{Color: "#006400", Label: "Trees", Value: float64(10)}},
			},
			Layout: &models.SourceLayout{
				LayerCard: &models.LayerCard{Toggleable: true},
			},
		},
		{
			Name: "Compare",
			Data: []models.DataSourceItem{},
			Meta: &models.Meta{SwipeConfig: &models.SwipeConfig{
				ClippedSourceName: "Land cover",
				BaseSourceNames:   []string{"Basemap"},
			}},
			Layout: &models.SourceLayout{LayerCard: &models.LayerCard{}},
		},
	}
	return cfg
}

// SampleDocument is SampleConfiguration encoded as JSON.
func SampleDocument() []byte {
	cfg := SampleConfiguration()
	data, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return data
}

// ErrStubUnavailable is returned by StubResolver for URLs listed in Fail.
var ErrStubUnavailable = errors.New("stub: service unavailable")

// StubResolver answers capability lookups from memory.
type StubResolver struct {
	Fail map[string]bool

	mu    sync.Mutex
	calls []string
}

// Resolve returns one layer named after the format, or ErrStubUnavailable.
func (s *StubResolver) Resolve(_ context.Context, serviceURL, format string) (*models.ServiceCapabilities, error) {
	s.mu.Lock()
	s.calls = append(s.calls, serviceURL)
	s.mu.Unlock()

	if s.Fail[serviceURL] {
		return nil, ErrStubUnavailable
	}
	return &models.ServiceCapabilities{
		Title:  "Stub " + format,
		Layers: []models.LayerInfo{{Name: format + "-layer"}},
	}, nil
}

// Calls returns the URLs resolved so far.
func (s *StubResolver) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
