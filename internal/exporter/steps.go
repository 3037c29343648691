package exporter

import (
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// pipelineDoc is the tree being rewritten by the export steps.
type pipelineDoc struct {
	tree document.Tree
}

func (p *pipelineDoc) sources() []document.Tree {
	return document.Sources(p.tree)
}

// itemList returns the items of a collection and whether it was a bare object.
func itemList(v any) ([]any, bool) {
	switch c := v.(type) {
	case []any:
		return c, false
	case map[string]any:
		return []any{c}, true
	}
	return nil, false
}

func singleItemArrayToObject(p *pipelineDoc) {
	for _, src := range p.sources() {
		for _, key := range document.Collections {
			if list, ok := document.Slice(src[key]); ok && len(list) == 1 {
				if _, isObj := document.Map(list[0]); isObj {
					src[key] = list[0]
				}
			}
		}
	}
}

func isCOG(item document.Tree) bool {
	f, _ := document.String(item["format"])
	return f == models.FormatCOG
}

func configureCogsAsImages(p *pipelineDoc) {
	for _, src := range p.sources() {
		for _, key := range document.Collections {
			list, bare := itemList(src[key])
			if list == nil {
				continue
			}
			if out, ok := consolidateCOGs(list); ok {
				if bare && len(out) == 1 {
					src[key] = out[0]
				} else {
					src[key] = out
				}
			}
		}
	}
}

// consolidateCOGs merges every COG item with a url into one item carrying
// an images list, appended after the remaining items. It reports false when
// there is nothing to merge.
func consolidateCOGs(list []any) ([]any, bool) {
	var others []any
	var cogs []document.Tree
	for _, el := range list {
		item, ok := document.Map(el)
		if ok && isCOG(item) {
			if u, _ := document.String(item["url"]); u != "" {
				cogs = append(cogs, item)
				continue
			}
		}
		others = append(others, el)
	}
	if len(cogs) == 0 {
		return nil, false
	}

	merged := document.Clone(cogs[0])
	delete(merged, "url")
	images := make([]any, 0, len(cogs))
	var maxZ float64
	for i, c := range cogs {
		u, _ := document.String(c["url"])
		images = append(images, document.Tree{"url": u})
		if z, ok := document.Number(c["zIndex"]); ok && (i == 0 || z > maxZ) {
			maxZ = z
		}
	}
	merged["images"] = images
	merged["zIndex"] = maxZ

	return append(others, merged), true
}

// transformSwipeLayersToData rewrites every source carrying a swipeConfig,
// whether or not it passed the strict swipe variant checks.
func transformSwipeLayersToData(p *pipelineDoc) {
	for _, src := range p.sources() {
		meta, ok := document.Map(src["meta"])
		if !ok {
			continue
		}
		sc, ok := document.Map(meta["swipeConfig"])
		if !ok {
			continue
		}
		bases, _ := document.Slice(sc["baseSourceNames"])
		if bases == nil {
			bases = []any{}
		}
		delete(meta, "swipeConfig")
		src[document.KeyData] = document.Tree{
			"type":          "swipe",
			"clippedSource": sc["clippedSourceName"],
			"baseSources":   bases,
		}
	}
}

func addNormalizeFalseToCogs(p *pipelineDoc) {
	for _, src := range p.sources() {
		document.EachItem(src, func(_ string, item document.Tree) {
			if isCOG(item) {
				item["normalize"] = false
			}
		})
	}
}

func changeFormatToType(p *pipelineDoc) {
	for _, src := range p.sources() {
		document.EachItem(src, func(_ string, item document.Tree) {
			if f, ok := item["format"]; ok {
				item["type"] = f
				delete(item, "format")
			}
		})
	}
}

var categoryKeys = []string{"categories", "constraintCategories"}

func removeEmptyCategories(p *pipelineDoc) {
	document.Walk(p.tree, func(obj document.Tree) {
		for _, key := range categoryKeys {
			if list, ok := document.Slice(obj[key]); ok && len(list) == 0 {
				delete(obj, key)
			}
		}
	})
}

func stripCategoryValues(p *pipelineDoc) {
	document.Walk(p.tree, func(obj document.Tree) {
		for _, key := range categoryKeys {
			list, _ := document.Slice(obj[key])
			for _, el := range list {
				if cat, ok := document.Map(el); ok {
					delete(cat, "value")
				}
			}
		}
	})
}
