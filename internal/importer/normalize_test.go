package importer

import (
	"encoding/json"
	"testing"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T, s string) document.Tree {
	t.Helper()
	var doc document.Tree
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

const messyDoc = `{
	"layout": null,
	"services": {"id": "s", "name": "S", "url": "https://e/wms"},
	"sources": [
		{
			"name": "Single",
			"data": {"url": "https://e/a.tif", "format": "cog"}
		},
		{
			"name": "Images",
			"isActive": true,
			"data": [{"images": [{"url": ""}, {"url": "https://e/1.tif"}, {"title": "no url"}], "format": "cog"}],
			"statistics": null
		},
		{
			"name": "Swipe",
			"data": {"type": "swipe", "clippedSource": "Single", "baseSources": ["Images"]}
		}
	]
}`

func TestCoerce(t *testing.T) {
	in := tree(t, messyDoc)
	out := Coerce(in)

	assert.Equal(t, models.DefaultVersion, out["version"])
	assert.JSONEq(t, `{"navigation":{}}`, toJSON(t, out["layout"]))
	assert.JSONEq(t, `[]`, toJSON(t, out["interfaceGroups"]))
	assert.JSONEq(t, `[{"id":"s","name":"S","url":"https://e/wms"}]`, toJSON(t, out["services"]))

	sources := document.Sources(out)
	require.Len(t, sources, 3)
	assert.Equal(t, false, sources[0]["isActive"])
	assert.JSONEq(t, `[{"url":"https://e/a.tif","format":"cog","zIndex":0}]`, toJSON(t, sources[0]["data"]))
	assert.JSONEq(t, `[{"url":"https://e/1.tif","images":[{"url":"https://e/1.tif"}],"format":"cog","zIndex":0}]`,
		toJSON(t, sources[1]["data"]))
	assert.NotContains(t, sources[1], "statistics")
	assert.JSONEq(t, `[{"type":"swipe","clippedSource":"Single","baseSources":["Images"]}]`, toJSON(t, sources[2]["data"]))

	// input untouched
	assert.IsType(t, map[string]any{}, in["sources"].([]any)[0].(map[string]any)["data"])
}

func TestCoerce_Idempotent(t *testing.T) {
	docs := []string{
		messyDoc,
		`{}`,
		`{"sources": [{"name": "a", "data": null, "statistics": {"images": [{"url": "https://e/s.tif"}]}}]}`,
	}
	for _, s := range docs {
		once := Coerce(tree(t, s))
		assert.Equal(t, once, Coerce(once), s)
	}
}

func TestNormalize_MetaDirected(t *testing.T) {
	doc := tree(t, `{
		"_exportMeta": {
			"version": "1.0",
			"transformations": ["singleItemArrayToObject", "configureCogsAsImages", "transformSwipeLayersToData",
				"addNormalizeFalseToCogs", "changeFormatToType", "stripCategoryValues"],
			"exportedAt": "2024-05-01T10:30:00Z"
		},
		"version": "1.0.0",
		"layout": {"navigation": {"logo": "", "title": ""}},
		"interfaceGroups": [], "exclusivitySets": [], "services": [],
		"sources": [
			{
				"name": "Mosaic", "isActive": true,
				"data": [
					{"type": "wms", "url": "https://e/wms", "zIndex": 50},
					{"type": "cog", "images": [{"url": "https://e/a.tif"}, {"url": "https://e/b.tif"}], "zIndex": 50, "normalize": false}
				]
			},
			{
				"name": "Vector", "isActive": false,
				"data": {"type": "MultiPolygon", "url": "https://e/v.geojson", "zIndex": 100}
			},
			{
				"name": "Compare", "isActive": false,
				"meta": {"description": "d"},
				"data": {"type": "swipe", "clippedSource": "Mosaic", "baseSources": ["Vector"]}
			}
		]
	}`)

	out, report := Normalize(doc)

	assert.NotContains(t, out, models.ExportMetaKey)
	require.NotNil(t, report.Meta)
	assert.False(t, report.Heuristic)
	assert.ElementsMatch(t, []string{
		models.TransformChangeFormatToType,
		models.TransformAddNormalizeFalseToCogs,
		models.TransformSwipeLayersToData,
		models.TransformConfigureCogsAsImages,
	}, report.Reversed)

	sources := document.Sources(out)
	assert.JSONEq(t, `[
		{"format":"wms","url":"https://e/wms","zIndex":50},
		{"format":"cog","url":"https://e/a.tif","zIndex":50},
		{"format":"cog","url":"https://e/b.tif","zIndex":50}
	]`, toJSON(t, sources[0]["data"]))
	// the metadata says format was renamed, so even a geometry type moves back
	assert.JSONEq(t, `[{"format":"multipolygon","url":"https://e/v.geojson","zIndex":100}]`, toJSON(t, sources[1]["data"]))
	assert.JSONEq(t, `[]`, toJSON(t, sources[2]["data"]))
	assert.JSONEq(t, `{"description":"d","swipeConfig":{"clippedSourceName":"Mosaic","baseSourceNames":["Vector"]}}`,
		toJSON(t, sources[2]["meta"]))
}

func TestNormalize_MetaLimitsReversal(t *testing.T) {
	doc := tree(t, `{
		"_exportMeta": {"version": "1.0", "transformations": ["singleItemArrayToObject"], "exportedAt": "2024-05-01T10:30:00Z"},
		"sources": [{
			"name": "Pre-consolidated", "isActive": true,
			"data": {"format": "cog", "images": [{"url": "https://e/a.tif"}, {"url": "https://e/b.tif"}], "zIndex": 50}
		}]
	}`)

	out, report := Normalize(doc)

	assert.Empty(t, report.Reversed)
	assert.JSONEq(t, `[{"format":"cog","url":"https://e/a.tif","images":[{"url":"https://e/a.tif"},{"url":"https://e/b.tif"}],"zIndex":50}]`,
		toJSON(t, document.Sources(out)[0]["data"]))
}

func TestNormalize_Heuristic(t *testing.T) {
	doc := tree(t, `{
		"sources": [
			{
				"name": "Collapsed mosaic",
				"data": {"type": "cog", "images": [{"url": "https://e/a.tif"}, {"url": "https://e/b.tif"}], "zIndex": 9, "normalize": false}
			},
			{
				"name": "Geometry",
				"data": [{"type": "LineString", "url": "https://e/l.geojson"}]
			}
		]
	}`)

	out, report := Normalize(doc)

	assert.Nil(t, report.Meta)
	assert.True(t, report.Heuristic)
	assert.ElementsMatch(t, []string{models.TransformChangeFormatToType, models.TransformConfigureCogsAsImages}, report.Reversed)

	sources := document.Sources(out)
	assert.JSONEq(t, `[
		{"format":"cog","url":"https://e/a.tif","zIndex":9,"normalize":false},
		{"format":"cog","url":"https://e/b.tif","zIndex":9,"normalize":false}
	]`, toJSON(t, sources[0]["data"]))
	// an unknown type is left alone and the default format applies
	assert.JSONEq(t, `[{"type":"LineString","url":"https://e/l.geojson","format":"wms","zIndex":0}]`, toJSON(t, sources[1]["data"]))
}

func TestNormalize_PromotesItemBaseLayer(t *testing.T) {
	doc := tree(t, `{"sources": [{"name": "Base", "isActive": true, "data": [{"url": "https://e/t", "format": "xyz", "isBaseLayer": true}]}]}`)

	out, _ := Normalize(doc)

	src := document.Sources(out)[0]
	assert.Equal(t, true, src["isBaseLayer"])
}

func TestNormalize_MalformedMeta(t *testing.T) {
	doc := tree(t, `{"_exportMeta": "yes", "sources": []}`)

	out, report := Normalize(doc)

	assert.NotContains(t, out, models.ExportMetaKey)
	assert.True(t, report.Heuristic)
	assert.Len(t, report.Warnings, 1)
}

func TestNormalize_SwipeWithExistingConfig(t *testing.T) {
	doc := tree(t, `{"sources": [{
		"name": "Compare",
		"meta": {"swipeConfig": {"clippedSourceName": "A", "baseSourceNames": ["B"]}},
		"data": {"type": "swipe", "clippedSource": "X", "baseSources": ["Y"]}
	}]}`)

	out, report := Normalize(doc)

	src := document.Sources(out)[0]
	assert.JSONEq(t, `{"swipeConfig":{"clippedSourceName":"A","baseSourceNames":["B"]}}`, toJSON(t, src["meta"]))
	assert.JSONEq(t, `[]`, toJSON(t, src["data"]))
	assert.Len(t, report.Warnings, 1)
}
