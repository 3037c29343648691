package importer

import (
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// Coerce returns a copy of doc in canonical shape: top-level lists and
// layout present, data and statistics as arrays and item defaults filled.
// Coerce(Coerce(d)) equals Coerce(d).
func Coerce(doc document.Tree) document.Tree {
	out := document.Clone(doc)
	coerceShape(out)
	applyItemDefaults(out)
	return out
}

func coerceShape(doc document.Tree) {
	if v, _ := document.String(doc["version"]); v == "" {
		doc["version"] = models.DefaultVersion
	}

	layout, ok := document.Map(doc["layout"])
	if !ok {
		layout = document.Tree{}
		doc["layout"] = layout
	}
	if _, ok := document.Map(layout["navigation"]); !ok {
		layout["navigation"] = document.Tree{}
	}

	for _, key := range []string{"interfaceGroups", "exclusivitySets", "services", "sources"} {
		switch v := doc[key].(type) {
		case []any:
		case map[string]any:
			doc[key] = []any{v}
		default:
			doc[key] = []any{}
		}
	}

	for _, src := range document.Sources(doc) {
		if _, ok := src["isActive"].(bool); !ok {
			src["isActive"] = false
		}
		for _, key := range document.Collections {
			switch v := src[key].(type) {
			case []any:
			case map[string]any:
				src[key] = []any{v}
			case nil:
				if key == document.KeyData {
					src[key] = []any{}
				} else {
					delete(src, key)
				}
			}
		}
	}
}

// isSwipePlaceholder reports whether item is the {type:'swipe'} reference
// an export writes in place of a swipe layer's data.
func isSwipePlaceholder(item document.Tree) bool {
	t, _ := document.String(item["type"])
	_, hasClipped := item["clippedSource"]
	_, hasFormat := item["format"]
	return t == "swipe" && hasClipped && !hasFormat
}

func applyItemDefaults(doc document.Tree) {
	for _, src := range document.Sources(doc) {
		document.EachItem(src, func(_ string, item document.Tree) {
			if isSwipePlaceholder(item) {
				return
			}
			itemDefaults(item)
		})
	}
}

func itemDefaults(item document.Tree) {
	if f, _ := document.String(item["format"]); f == "" {
		item["format"] = models.DefaultFormat
	}
	if item["zIndex"] == nil {
		item["zIndex"] = float64(0)
	}

	if images, ok := document.Slice(item["images"]); ok {
		kept := make([]any, 0, len(images))
		for _, el := range images {
			img, ok := document.Map(el)
			if !ok {
				continue
			}
			if u, _ := document.String(img["url"]); u != "" {
				kept = append(kept, img)
			}
		}
		if len(kept) == 0 {
			delete(item, "images")
		} else {
			item["images"] = kept
		}
	}

	if u, _ := document.String(item["url"]); u == "" {
		if images, ok := document.Slice(item["images"]); ok && len(images) > 0 {
			first, _ := document.Map(images[0])
			item["url"] = first["url"]
		}
	}
}
