// Package zlevel assigns canonical draw-order bands to data source items.
package zlevel

import (
	"fmt"
	"strings"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// Canonical bands.
const (
	BandBaseRaster = 10
	BandRaster     = 50
	BandPolygon    = 100
	BandLine       = 110
	BandPoint      = 120
	BandUnknown    = BandRaster
)

// Class names an item's draw-order class.
type Class string

const (
	ClassBaseRaster Class = "baseRaster"
	ClassRaster     Class = "raster"
	ClassPolygon    Class = "polygon"
	ClassLine       Class = "line"
	ClassPoint      Class = "point"
	ClassUnknown    Class = "unknown"
)

// Result is the classification of a single item.
type Result struct {
	ZIndex  int
	Class   Class
	Warning string
}

var rasterFormats = map[string]bool{
	models.FormatCOG:  true,
	models.FormatWMS:  true,
	models.FormatWMTS: true,
	models.FormatXYZ:  true,
}

var vectorFormats = map[string]bool{
	models.FormatGeoJSON:    true,
	models.FormatFlatGeobuf: true,
	models.FormatWFS:        true,
}

// Classify returns the band for item. isBaseLayer is true when the item
// belongs to a base layer source.
func Classify(item *models.DataSourceItem, isBaseLayer bool) Result {
	format := strings.ToLower(item.Format)
	if format == "" {
		format = models.DefaultFormat
	}

	switch {
	case rasterFormats[format]:
		if isBaseLayer || item.IsBaseLayer {
			return Result{ZIndex: BandBaseRaster, Class: ClassBaseRaster}
		}
		return Result{ZIndex: BandRaster, Class: ClassRaster}
	case vectorFormats[format]:
		switch geometryOf(item) {
		case models.GeometryLine:
			return Result{ZIndex: BandLine, Class: ClassLine}
		case models.GeometryPoint:
			return Result{ZIndex: BandPoint, Class: ClassPoint}
		default:
			return Result{ZIndex: BandPolygon, Class: ClassPolygon}
		}
	}
	return Result{
		ZIndex:  BandUnknown,
		Class:   ClassUnknown,
		Warning: fmt.Sprintf("unrecognized format %q, using band %d", item.Format, BandUnknown),
	}
}

func geometryOf(item *models.DataSourceItem) models.GeometryKind {
	switch item.GeometryKind {
	case models.GeometryPolygon, models.GeometryLine, models.GeometryPoint:
		return item.GeometryKind
	}
	return legacyGeometry(item.Type)
}

// legacyGeometry reads the geometry from the free-text type of documents
// written before geometryKind existed. Matching is by substring, so
// "MultiLineString" is a line.
func legacyGeometry(typ string) models.GeometryKind {
	t := strings.ToLower(typ)
	switch {
	case strings.Contains(t, "polygon"):
		return models.GeometryPolygon
	case strings.Contains(t, "line"):
		return models.GeometryLine
	case strings.Contains(t, "point"):
		return models.GeometryPoint
	}
	return models.GeometryPolygon
}
