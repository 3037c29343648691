package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var indexPattern = regexp.MustCompile(`\[\d+\]`)

var sourceIndexPattern = regexp.MustCompile(`^sources\[(\d+)\]`)

// fieldLabels maps path shapes to the labels shown to users.
var fieldLabels = map[string]string{
	"":                                      "Document",
	"version":                               "Configuration version",
	"layout":                                "Layout",
	"layout.navigation":                     "Navigation",
	"layout.navigation.logo":                "Navigation logo",
	"layout.navigation.title":               "Navigation title",
	"interfaceGroups":                       "Interface groups",
	"exclusivitySets":                       "Exclusivity sets",
	"services":                              "Services",
	"services[]":                            "Service",
	"services[].id":                         "Service ID",
	"services[].name":                       "Service name",
	"services[].url":                        "Service URL",
	"services[].format":                     "Service format",
	"sources":                               "Layers",
	"sources[]":                             "Layer",
	"sources[].name":                        "Layer name",
	"sources[].isActive":                    "Active flag",
	"sources[].isBaseLayer":                 "Base layer flag",
	"sources[].data":                        "Data",
	"sources[].data[]":                      "Data item",
	"sources[].data[].url":                  "Data URL",
	"sources[].data[].format":               "Data format",
	"sources[].data[].zIndex":               "Data z-index",
	"sources[].data[].images":               "Data images",
	"sources[].data[].images[].url":         "Data image URL",
	"sources[].data[].geometryKind":         "Geometry kind",
	"sources[].statistics":                  "Statistics",
	"sources[].statistics[]":                "Statistics item",
	"sources[].statistics[].url":            "Statistics URL",
	"sources[].statistics[].format":         "Statistics format",
	"sources[].statistics[].zIndex":         "Statistics z-index",
	"sources[].statistics[].images[].url":   "Statistics image URL",
	"sources[].meta":                        "Metadata",
	"sources[].meta.attribution.url":        "Attribution URL",
	"sources[].meta.categories":             "Categories",
	"sources[].meta.categories[]":           "Category",
	"sources[].meta.colormaps[]":            "Colormap",
	"sources[].meta.swipeConfig":            "Swipe configuration",
	"sources[].layout":                      "Layer layout",
	"sources[].layout.contentLocation":      "Content location",
	"sources[].layout.layerCard.legend":     "Layer card legend",
	"sources[].layout.layerCard.legend.url": "Layer card legend image",
	"sources[].layout.layerCard.controls":   "Layer card controls",
	"sources[].layout.infoPanel.legend":     "Info panel legend",
	"sources[].layout.infoPanel.legend.url": "Info panel legend image",
	"sources[].layout.infoPanel.controls":   "Info panel controls",
	"sources[].constraints[]":               "Constraint",
	"sources[].constraints[].url":           "Constraint URL",
	"sources[].workflows[]":                 "Workflow",
}

// labeler renders human labels for field paths, naming the layer when the
// path points into a source whose name is known.
type labeler struct {
	sourceName func(i int) string
}

func (l labeler) label(path string) string {
	shape := indexPattern.ReplaceAllString(path, "[]")
	label := lookupLabel(shape)
	if label == "" {
		label = path
	}

	if m := sourceIndexPattern.FindStringSubmatch(path); m != nil && l.sourceName != nil {
		i, _ := strconv.Atoi(m[1])
		if name := l.sourceName(i); name != "" {
			return fmt.Sprintf("%s in layer %q", label, name)
		}
	}
	return label
}

// lookupLabel finds the label of the shape or of its nearest ancestor.
func lookupLabel(shape string) string {
	for {
		if label, ok := fieldLabels[shape]; ok {
			return label
		}
		cut := strings.LastIndexAny(shape, ".[")
		if cut <= 0 {
			return ""
		}
		shape = shape[:cut]
	}
}

func (l labeler) apply(errs ValidationErrors) ValidationErrors {
	for i := range errs {
		if errs[i].Label == "" {
			errs[i].Label = l.label(errs[i].Path)
		}
	}
	return errs
}

// renderPath joins path selectors as sources[0].data[1].url.
func renderPath(selectors []string) string {
	var b strings.Builder
	for _, sel := range selectors {
		sel = strings.Trim(sel, `"`)
		if strings.HasPrefix(sel, "#") {
			continue
		}
		if _, err := strconv.Atoi(sel); err == nil {
			b.WriteString("[" + sel + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(sel)
	}
	return b.String()
}

// joinPath appends a rendered path to the path of the value it is relative to.
func joinPath(prefix, rel string) string {
	switch {
	case prefix == "":
		return rel
	case rel == "":
		return prefix
	case strings.HasPrefix(rel, "["):
		return prefix + rel
	}
	return prefix + "." + rel
}

func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}
