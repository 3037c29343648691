package models

import (
	"encoding/json"
	"fmt"
)

// SourceKind is the explicit variant tag of a DataSource. The wire format
// stays tag-less; the kind is assigned once per load by ClassifySource.
type SourceKind string

const (
	KindUnclassified SourceKind = ""
	KindBaseLayer    SourceKind = "baseLayer"
	KindSwipeLayer   SourceKind = "swipeLayer"
	KindLayerCard    SourceKind = "layerCard"
	KindGeneric      SourceKind = "generic"
)

// ContentLocation selects which panel carries a source's legend and controls.
type ContentLocation string

const (
	ContentLayerCard ContentLocation = "layerCard"
	ContentInfoPanel ContentLocation = "infoPanel"
)

// DataSource is one entry of the layer list.
type DataSource struct {
	Name                 string                 `json:"name"`
	IsActive             bool                   `json:"isActive"`
	IsBaseLayer          bool                   `json:"isBaseLayer,omitempty"`
	Data                 []DataSourceItem       `json:"data"`
	Statistics           []DataSourceItem       `json:"statistics,omitempty"`
	Meta                 *Meta                  `json:"meta,omitempty"`
	Layout               *SourceLayout          `json:"layout,omitempty"`
	Constraints          []ConstraintSourceItem `json:"constraints,omitempty"`
	Workflows            []WorkflowItem         `json:"workflows,omitempty"`
	HasFeatureStatistics bool                   `json:"hasFeatureStatistics,omitempty"`
	ExclusivitySets      []string               `json:"exclusivitySets,omitempty"`
	Timeframe            string                 `json:"timeframe,omitempty"`
	DefaultTimestamp     *int64                 `json:"defaultTimestamp,omitempty"`

	Kind SourceKind `json:"-"`
}

// IsBase reports whether the source was classified as a base layer.
func (s *DataSource) IsBase() bool {
	return s.Kind == KindBaseLayer
}

// HasBaseLayerItem reports whether any data item carries the legacy
// per-item isBaseLayer flag.
func (s *DataSource) HasBaseLayerItem() bool {
	for _, item := range s.Data {
		if item.IsBaseLayer {
			return true
		}
	}
	return false
}

// SwipeConfig returns the swipe configuration, or nil.
func (s *DataSource) SwipeConfig() *SwipeConfig {
	if s.Meta == nil {
		return nil
	}
	return s.Meta.SwipeConfig
}

// Meta carries descriptive and legend metadata of a source.
type Meta struct {
	Description string       `json:"description,omitempty"`
	Attribution *Attribution `json:"attribution,omitempty"`
	Categories  []Category   `json:"categories,omitempty"`
	Units       string       `json:"units,omitempty"`
	Min         *float64     `json:"min,omitempty"`
	Max         *float64     `json:"max,omitempty"`
	StartColor  string       `json:"startColor,omitempty"`
	EndColor    string       `json:"endColor,omitempty"`
	Colormaps   []Colormap   `json:"colormaps,omitempty"`
	SwipeConfig *SwipeConfig `json:"swipeConfig,omitempty"`
}

type Attribution struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Category is one legend entry of a categorical layer.
type Category struct {
	Color string `json:"color"`
	Label string `json:"label"`
	Value any    `json:"value,omitempty"`
}

// Colormap describes a continuous colour ramp.
type Colormap struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Steps   int     `json:"steps"`
	Reverse bool    `json:"reverse,omitempty"`
}

// SwipeConfig marks a source as a swipe comparison between one clipped
// source and one or more base sources, referenced by name.
type SwipeConfig struct {
	ClippedSourceName string   `json:"clippedSourceName"`
	BaseSourceNames   []string `json:"baseSourceNames"`
}

// SourceLayout places legend and controls in the layer card or info panel.
type SourceLayout struct {
	ContentLocation ContentLocation `json:"contentLocation,omitempty"`
	LayerCard       *LayerCard      `json:"layerCard,omitempty"`
	InfoPanel       *InfoPanel      `json:"infoPanel,omitempty"`
}

// LayerCard is the per-layer card in the layer list. Toggleable is always
// serialized, whatever the content location.
type LayerCard struct {
	Toggleable     bool      `json:"toggleable"`
	Legend         *Legend   `json:"legend,omitempty"`
	Controls       *Controls `json:"controls,omitempty"`
	ShowStatistics bool      `json:"showStatistics,omitempty"`
}

type InfoPanel struct {
	Legend   *Legend   `json:"legend,omitempty"`
	Controls *Controls `json:"controls,omitempty"`
}

// Legend types.
const (
	LegendSwipe    = "swipe"
	LegendGradient = "gradient"
	LegendImage    = "image"
)

type Legend struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Controls is the normalized object form of a panel's control set.
// The legacy string-array form is migrated by UnmarshalJSON.
type Controls struct {
	OpacitySlider    bool   `json:"opacitySlider,omitempty"`
	ZoomToCenter     bool   `json:"zoomToCenter,omitempty"`
	Download         string `json:"download,omitempty"`
	TemporalControls bool   `json:"temporalControls,omitempty"`
	ConstraintSlider bool   `json:"constraintSlider,omitempty"`
	BlendControls    bool   `json:"blendControls,omitempty"`
}

// UnmarshalJSON accepts both the object form and the legacy array of
// control names. The array form always enables the opacity slider.
func (c *Controls) UnmarshalJSON(data []byte) error {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("legacy controls: %w", err)
		}
		*c = Controls{OpacitySlider: true}
		for _, name := range names {
			switch name {
			case "zoomToCenter":
				c.ZoomToCenter = true
			case "temporalControls":
				c.TemporalControls = true
			case "constraintSlider":
				c.ConstraintSlider = true
			case "blendControls":
				c.BlendControls = true
			}
		}
		return nil
	}

	type plain Controls
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Controls(p)
	return nil
}

func trimLeadingSpace(b []byte) []byte {
	for len(b) > 0 {
		switch b[0] {
		case ' ', '\t', '\n', '\r':
			b = b[1:]
		default:
			return b
		}
	}
	return b
}

// ConstraintSourceItem is an auxiliary raster used to filter a layer.
type ConstraintSourceItem struct {
	URL                  string     `json:"url,omitempty"`
	Format               string     `json:"format,omitempty"`
	Label                string     `json:"label"`
	Type                 string     `json:"type,omitempty"`
	Interactive          bool       `json:"interactive,omitempty"`
	Min                  *float64   `json:"min,omitempty"`
	Max                  *float64   `json:"max,omitempty"`
	Units                string     `json:"units,omitempty"`
	BandIndex            *int       `json:"bandIndex,omitempty"`
	ConstraintCategories []Category `json:"constraintCategories,omitempty"`
}

// WorkflowItem links a layer to a processing service.
type WorkflowItem struct {
	ZIndex  int    `json:"zIndex,omitempty"`
	Service string `json:"service,omitempty"`
	Label   string `json:"label,omitempty"`
}
