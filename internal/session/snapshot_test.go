package session

import (
	"testing"
	"time"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/exporter"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func names(s *Snapshot) []string {
	out := make([]string, 0, len(s.Config.Sources))
	for _, src := range s.Config.Sources {
		out = append(out, src.Name)
	}
	return out
}

func apply(t *testing.T, s *Snapshot, tr Transition) *Snapshot {
	t.Helper()
	next, err := Apply(s, tr, t0)
	require.NoError(t, err)
	return next
}

func withSources(t *testing.T, list ...string) *Snapshot {
	t.Helper()
	s := NewSnapshot(t0)
	for _, n := range list {
		s = apply(t, s, AddSource(models.DataSource{Name: n}))
	}
	return s
}

func TestSourceTransitions(t *testing.T) {
	s := withSources(t, "a", "b", "c", "d")
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(s))

	assert.Equal(t, []string{"b", "c", "a", "d"}, names(apply(t, s, MoveSource(0, 2))))
	assert.Equal(t, []string{"d", "a", "b", "c"}, names(apply(t, s, MoveSource(3, 0))))
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(apply(t, s, MoveSource(1, 1))))
	assert.Equal(t, []string{"a", "c", "d"}, names(apply(t, s, RemoveSource(1))))
	assert.Equal(t, []string{"a", "x", "c", "d"}, names(apply(t, s, UpdateSource(1, models.DataSource{Name: "x"}))))

	// s itself never changes
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(s))

	for _, tr := range []Transition{MoveSource(0, 4), MoveSource(-1, 0), RemoveSource(4), UpdateSource(9, models.DataSource{Name: "x"})} {
		_, err := Apply(s, tr, t0)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
	_, err := Apply(s, AddSource(models.DataSource{}), t0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestServiceTransitions(t *testing.T) {
	s := NewSnapshot(t0)
	s = apply(t, s, AddService(models.Service{ID: "ts", URL: "https://e/wms", Format: "wms"}))
	require.Len(t, s.Config.Services, 1)
	assert.Equal(t, "ts", s.Config.Services[0].Name, "name defaults to id")

	_, err := Apply(s, AddService(models.Service{ID: "ts", URL: "https://e/other"}), t0)
	assert.ErrorIs(t, err, ErrDuplicateService)

	caps := &models.ServiceCapabilities{Layers: []models.LayerInfo{{Name: "l"}}}
	s = apply(t, s, SetServiceCapabilities("ts", caps))
	assert.Equal(t, caps, s.Config.Services[0].Capabilities)

	s = apply(t, s, RemoveService("ts"))
	assert.Empty(t, s.Config.Services)

	_, err = Apply(s, RemoveService("ts"), t0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadResetAndOptions(t *testing.T) {
	cfg := models.NewConfiguration()
	cfg.Sources = []models.DataSource{{
		Name:        "Base",
		IsBaseLayer: true,
		Data:        []models.DataSourceItem{{Images: []models.Image{{URL: "https://e/a.tif"}}, Format: "cog", ZIndex: 3}},
	}}

	s := apply(t, NewSnapshot(t0), Load(&cfg))
	require.Len(t, s.Config.Sources, 1)
	assert.Equal(t, "https://e/a.tif", s.Config.Sources[0].Data[0].URL, "item defaults are applied")
	assert.Equal(t, models.KindBaseLayer, s.Config.Sources[0].Kind)
	assert.Empty(t, cfg.Sources[0].Data[0].URL, "loaded configuration is copied")

	s = apply(t, s, AutoTune())
	assert.Equal(t, 10, s.Config.Sources[0].Data[0].ZIndex)

	s = apply(t, s, SetNavigation(models.Navigation{Title: "Atlas", Logo: " /logo.png"}))
	assert.Equal(t, "/logo.png", s.Config.Layout.Navigation.Logo)

	opts := exporter.ViewerOptions()
	s = apply(t, s, SetExportOptions(opts))
	s = apply(t, s, Reset())
	assert.Empty(t, s.Config.Sources)
	assert.Equal(t, opts, s.ExportOptions)
	assert.Equal(t, int64(6), s.Version)
}
