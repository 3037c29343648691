package importer

import (
	"fmt"
	"strings"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// Report describes what Normalize undid.
type Report struct {
	// Meta is the export metadata found in the upload, if any.
	Meta *models.ExportMeta `json:"exportMeta,omitempty"`
	// Heuristic is set when no metadata was present and reversible shapes
	// were detected by inspection.
	Heuristic bool `json:"heuristic"`
	// Reversed lists the transformations that changed the document.
	Reversed []string `json:"reversed"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) reversed(name string) {
	for _, n := range r.Reversed {
		if n == name {
			return
		}
	}
	r.Reversed = append(r.Reversed, name)
}

// Normalize returns a canonical copy of an uploaded document, undoing the
// export transformations named in its _exportMeta block or, without one,
// those that can be recognized from the document's shape.
func Normalize(doc document.Tree) (document.Tree, Report) {
	out := document.Clone(doc)
	report := Report{Reversed: []string{}}

	if raw, present := out[models.ExportMetaKey]; present {
		delete(out, models.ExportMetaKey)
		var meta models.ExportMeta
		m, ok := document.Map(raw)
		if ok {
			if err := document.Decode(m, &meta); err == nil {
				report.Meta = &meta
			} else {
				ok = false
			}
		}
		if !ok {
			report.Warnings = append(report.Warnings, "ignored malformed "+models.ExportMetaKey+" block")
		}
	}
	report.Heuristic = report.Meta == nil

	coerceShape(out)

	for _, src := range document.Sources(out) {
		reverseSource(src, &report)
	}

	applyItemDefaults(out)
	promoteBaseLayer(out)
	return out, report
}

// wants reports whether the reversal of name should run.
func (r *Report) wants(name string) bool {
	if r.Meta != nil {
		return r.Meta.Has(name)
	}
	return true
}

// reverseSource undoes export steps in reverse pipeline order.
func reverseSource(src document.Tree, report *Report) {
	if report.wants(models.TransformChangeFormatToType) {
		document.EachItem(src, func(_ string, item document.Tree) {
			if isSwipePlaceholder(item) {
				return
			}
			if _, hasFormat := item["format"]; hasFormat {
				return
			}
			t, ok := document.String(item["type"])
			if !ok || t == "" {
				return
			}
			if report.Heuristic && !models.IsKnownFormat(strings.ToLower(t)) {
				return
			}
			item["format"] = strings.ToLower(t)
			delete(item, "type")
			report.reversed(models.TransformChangeFormatToType)
		})
	}

	if report.Meta.Has(models.TransformAddNormalizeFalseToCogs) {
		document.EachItem(src, func(_ string, item document.Tree) {
			if n, ok := item["normalize"].(bool); ok && !n && isCOG(item) {
				delete(item, "normalize")
				report.reversed(models.TransformAddNormalizeFalseToCogs)
			}
		})
	}

	if restoreSwipe(src, report) {
		report.reversed(models.TransformSwipeLayersToData)
	}

	if report.wants(models.TransformConfigureCogsAsImages) {
		for _, key := range document.Collections {
			list, _ := document.Slice(src[key])
			if expanded, changed := expandCOGs(list); changed {
				src[key] = expanded
				report.reversed(models.TransformConfigureCogsAsImages)
			}
		}
	}
}

func isCOG(item document.Tree) bool {
	f, _ := document.String(item["format"])
	return strings.ToLower(f) == models.FormatCOG
}

// restoreSwipe moves a swipe placeholder from data back into
// meta.swipeConfig. Other data items are kept.
func restoreSwipe(src document.Tree, report *Report) bool {
	list, _ := document.Slice(src[document.KeyData])
	var placeholder document.Tree
	kept := make([]any, 0, len(list))
	for _, el := range list {
		if item, ok := document.Map(el); ok && isSwipePlaceholder(item) {
			if placeholder == nil {
				placeholder = item
			}
			continue
		}
		kept = append(kept, el)
	}
	if placeholder == nil {
		return false
	}

	meta, ok := document.Map(src["meta"])
	if !ok {
		meta = document.Tree{}
		src["meta"] = meta
	}
	if _, exists := meta["swipeConfig"]; exists {
		name, _ := document.String(src["name"])
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("layer %q has both a swipe placeholder and meta.swipeConfig; kept meta.swipeConfig", name))
	} else {
		bases, ok := document.Slice(placeholder["baseSources"])
		if !ok {
			bases = []any{}
		}
		meta["swipeConfig"] = document.Tree{
			"clippedSourceName": placeholder["clippedSource"],
			"baseSourceNames":   bases,
		}
	}
	src[document.KeyData] = kept
	return true
}

// expandCOGs splits every consolidated COG item (format cog, images, no
// url) into one item per image.
func expandCOGs(list []any) ([]any, bool) {
	changed := false
	out := make([]any, 0, len(list))
	for _, el := range list {
		item, ok := document.Map(el)
		if !ok || !isConsolidatedCOG(item) {
			out = append(out, el)
			continue
		}
		urls := imageURLs(item)
		if len(urls) == 0 {
			out = append(out, el)
			continue
		}
		for _, u := range urls {
			expanded := document.Clone(item)
			delete(expanded, "images")
			expanded["url"] = u
			out = append(out, expanded)
		}
		changed = true
	}
	if !changed {
		return list, false
	}
	return out, true
}

func imageURLs(item document.Tree) []string {
	images, _ := document.Slice(item["images"])
	var urls []string
	for _, el := range images {
		img, ok := document.Map(el)
		if !ok {
			continue
		}
		if u, _ := document.String(img["url"]); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func isConsolidatedCOG(item document.Tree) bool {
	if !isCOG(item) {
		return false
	}
	if u, _ := document.String(item["url"]); u != "" {
		return false
	}
	images, _ := document.Slice(item["images"])
	return len(images) > 0
}

// promoteBaseLayer sets isBaseLayer on sources whose data carries the
// legacy per-item flag.
func promoteBaseLayer(doc document.Tree) {
	for _, src := range document.Sources(doc) {
		if b, _ := src["isBaseLayer"].(bool); b {
			continue
		}
		list, _ := document.Slice(src[document.KeyData])
		for _, el := range list {
			item, ok := document.Map(el)
			if !ok {
				continue
			}
			if b, _ := item["isBaseLayer"].(bool); b {
				src["isBaseLayer"] = true
				break
			}
		}
	}
}
