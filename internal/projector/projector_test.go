package projector

import (
	"encoding/json"
	"testing"

	"github.com/brunoga/deep"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configWith(sources ...models.DataSource) *models.Configuration {
	cfg := models.NewConfiguration()
	cfg.Sources = sources
	return &cfg
}

func TestProject_VariantEquivalence(t *testing.T) {
	legacy := models.DataSource{
		Name:     "Basemap",
		IsActive: true,
		Data:     []models.DataSourceItem{{URL: "https://t/{z}/{x}/{y}.png", Format: "xyz", ZIndex: 10, IsBaseLayer: true}},
	}
	modern := models.DataSource{
		Name:        "Basemap",
		IsActive:    true,
		IsBaseLayer: true,
		Data:        []models.DataSourceItem{{URL: "https://t/{z}/{x}/{y}.png", Format: "xyz", ZIndex: 10}},
	}

	a := Project(configWith(legacy))
	b := Project(configWith(modern))

	assert.Equal(t, b, a)
	assert.True(t, a.Sources[0].IsBaseLayer)
	assert.False(t, a.Sources[0].Data[0].IsBaseLayer)
	assert.Equal(t, models.KindBaseLayer, a.Sources[0].Kind)
}

func TestProject_ItemInvariant(t *testing.T) {
	cfg := configWith(models.DataSource{
		Name: "Mixed",
		Data: []models.DataSourceItem{
			{URL: "https://e/a.tif", Format: "cog"},
			{Images: []models.Image{{URL: ""}, {URL: "https://e/b.tif"}}},
			{Format: "wms"},
			{Images: []models.Image{{URL: ""}}},
		},
		Statistics: []models.DataSourceItem{{}},
	})

	out := Project(cfg)

	data := out.Sources[0].Data
	require.Len(t, data, 2)
	for _, it := range data {
		assert.True(t, it.URL != "" || len(it.Images) > 0)
	}
	assert.Equal(t, "https://e/b.tif", data[1].URL)
	assert.Equal(t, models.DefaultFormat, data[1].Format)
	assert.Empty(t, out.Sources[0].Statistics)
}

func TestProject_Layout(t *testing.T) {
	legend := &models.Legend{Type: models.LegendGradient}
	controls := &models.Controls{OpacitySlider: true, Download: "https://e/a.zip"}

	tests := []struct {
		name         string
		layout       *models.SourceLayout
		wantLocation models.ContentLocation
		wantCard     *models.LayerCard
		wantPanel    *models.InfoPanel
	}{
		{
			name:         "no layout",
			layout:       nil,
			wantLocation: models.ContentLayerCard,
			wantCard:     &models.LayerCard{},
		},
		{
			name:         "legend in layer card",
			layout:       &models.SourceLayout{LayerCard: &models.LayerCard{Toggleable: true, Legend: legend, Controls: controls}},
			wantLocation: models.ContentLayerCard,
			wantCard:     &models.LayerCard{Toggleable: true, Legend: legend, Controls: controls},
		},
		{
			name: "info panel keeps toggleable",
			layout: &models.SourceLayout{
				ContentLocation: models.ContentInfoPanel,
				LayerCard:       &models.LayerCard{Toggleable: true, Legend: legend},
				InfoPanel:       &models.InfoPanel{Controls: controls},
			},
			wantLocation: models.ContentInfoPanel,
			wantCard:     &models.LayerCard{Toggleable: true},
			wantPanel:    &models.InfoPanel{Legend: legend, Controls: controls},
		},
		{
			name: "info panel without layer card",
			layout: &models.SourceLayout{
				ContentLocation: models.ContentInfoPanel,
				InfoPanel:       &models.InfoPanel{Legend: legend},
			},
			wantLocation: models.ContentInfoPanel,
			wantCard:     &models.LayerCard{},
			wantPanel:    &models.InfoPanel{Legend: legend},
		},
		{
			name: "stray info panel moves to layer card",
			layout: &models.SourceLayout{
				LayerCard: &models.LayerCard{Legend: legend},
				InfoPanel: &models.InfoPanel{Controls: controls},
			},
			wantLocation: models.ContentLayerCard,
			wantCard:     &models.LayerCard{Legend: legend, Controls: controls},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configWith(models.DataSource{
				Name:   "A",
				Data:   []models.DataSourceItem{{URL: "https://e/a.tif", Format: "cog"}},
				Meta:   &models.Meta{},
				Layout: tt.layout,
			})

			out := Project(cfg)

			l := out.Sources[0].Layout
			require.NotNil(t, l)
			assert.Equal(t, tt.wantLocation, l.ContentLocation)
			assert.Equal(t, tt.wantCard, l.LayerCard)
			assert.Equal(t, tt.wantPanel, l.InfoPanel)
		})
	}
}

func TestProject_ToggleableAlwaysSerialized(t *testing.T) {
	out := Project(configWith(models.DataSource{
		Name:   "A",
		Data:   []models.DataSourceItem{{URL: "https://e/a.tif"}},
		Layout: &models.SourceLayout{ContentLocation: models.ContentInfoPanel},
	}))

	raw, err := json.Marshal(out.Sources[0].Layout)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contentLocation":"infoPanel","layerCard":{"toggleable":false},"infoPanel":{}}`, string(raw))
}

func TestProject_DoesNotMutate(t *testing.T) {
	cfg := configWith(
		models.DataSource{
			Name: "Base",
			Data: []models.DataSourceItem{{Images: []models.Image{{URL: "https://e/a.tif"}}, IsBaseLayer: true}},
		},
		models.DataSource{Name: "Empty"},
	)
	cfg.Sources[0].Kind = models.KindBaseLayer
	before := deep.MustCopy(*cfg)

	out := Project(cfg)

	assert.Equal(t, before, *cfg)
	assert.NotSame(t, &cfg.Sources[0], &out.Sources[0])
	assert.NotNil(t, out.Sources[1].Data)
	assert.Equal(t, models.KindGeneric, out.Sources[1].Kind)
}
