package models

// DefaultFormat is assumed for items that carry no format.
const DefaultFormat = "wms"

// Data formats known to the viewer.
const (
	FormatCOG        = "cog"
	FormatWMS        = "wms"
	FormatWMTS       = "wmts"
	FormatXYZ        = "xyz"
	FormatGeoJSON    = "geojson"
	FormatFlatGeobuf = "flatgeobuf"
	FormatWFS        = "wfs"
)

// KnownFormats lists every format the viewer can draw.
var KnownFormats = []string{
	FormatCOG, FormatWMS, FormatWMTS, FormatXYZ,
	FormatGeoJSON, FormatFlatGeobuf, FormatWFS,
}

// IsKnownFormat reports whether f is one of KnownFormats.
func IsKnownFormat(f string) bool {
	for _, k := range KnownFormats {
		if k == f {
			return true
		}
	}
	return false
}

// GeometryKind is the explicit geometry class of a vector item.
type GeometryKind string

const (
	GeometryPolygon GeometryKind = "polygon"
	GeometryLine    GeometryKind = "line"
	GeometryPoint   GeometryKind = "point"
)

// DataSourceItem is one drawable item of a source. Either URL is set or
// Images is non-empty.
type DataSourceItem struct {
	URL          string         `json:"url,omitempty"`
	Format       string         `json:"format"`
	ZIndex       int            `json:"zIndex"`
	IsBaseLayer  bool           `json:"isBaseLayer,omitempty"`
	Layers       string         `json:"layers,omitempty"`
	Level        *float64       `json:"level,omitempty"`
	Type         string         `json:"type,omitempty"`
	GeometryKind GeometryKind   `json:"geometryKind,omitempty"`
	ServiceID    string         `json:"serviceId,omitempty"`
	Normalize    *bool          `json:"normalize,omitempty"`
	Style        map[string]any `json:"style,omitempty"`
	Images       []Image        `json:"images,omitempty"`
	Position     any            `json:"position,omitempty"`
	MinZoom      *float64       `json:"minZoom,omitempty"`
	MaxZoom      *float64       `json:"maxZoom,omitempty"`
	Timestamps   []int64        `json:"timestamps,omitempty"`
}

type Image struct {
	URL string `json:"url"`
}

// HasLocation reports whether the item satisfies the url-or-images invariant.
func (it *DataSourceItem) HasLocation() bool {
	return it.URL != "" || len(it.Images) > 0
}

// ApplyDefaults fills the format, drops images without a URL and falls back
// to the first image URL when the item has none. ZIndex defaults to its
// zero value.
func (it *DataSourceItem) ApplyDefaults() {
	if it.Format == "" {
		it.Format = DefaultFormat
	}
	if len(it.Images) > 0 {
		kept := make([]Image, 0, len(it.Images))
		for _, img := range it.Images {
			if img.URL != "" {
				kept = append(kept, img)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		it.Images = kept
	}
	if it.URL == "" && len(it.Images) > 0 {
		it.URL = it.Images[0].URL
	}
}

// NormalizeItems applies item defaults to data and statistics of every
// source and makes sure data is never nil.
func NormalizeItems(sources []DataSource) {
	for i := range sources {
		s := &sources[i]
		if s.Data == nil {
			s.Data = []DataSourceItem{}
		}
		for j := range s.Data {
			s.Data[j].ApplyDefaults()
		}
		for j := range s.Statistics {
			s.Statistics[j].ApplyDefaults()
		}
	}
}
