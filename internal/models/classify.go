package models

import "fmt"

// ClassifySource tries the variants in their fixed order (base layer, swipe
// layer, layer card) and returns the first whose refinements hold. When none
// hold it returns KindGeneric together with the reasons each candidate was
// rejected.
func ClassifySource(s *DataSource) (SourceKind, []string) {
	if s.IsBaseLayer || s.HasBaseLayerItem() {
		return KindBaseLayer, nil
	}

	var reasons []string
	if sc := s.SwipeConfig(); sc != nil {
		problems := swipeProblems(s, sc)
		if len(problems) == 0 {
			return KindSwipeLayer, nil
		}
		reasons = append(reasons, problems...)
	}

	if s.Meta != nil && s.Layout != nil {
		return KindLayerCard, nil
	}
	if s.Meta == nil {
		reasons = append(reasons, "layer card requires meta")
	}
	if s.Layout == nil {
		reasons = append(reasons, "layer card requires layout")
	}
	return KindGeneric, reasons
}

func swipeProblems(s *DataSource, sc *SwipeConfig) []string {
	var problems []string
	if sc.ClippedSourceName == "" {
		problems = append(problems, "swipe layer requires a clipped source name")
	}
	if len(sc.BaseSourceNames) == 0 {
		problems = append(problems, "swipe layer requires at least one base source")
	}
	seen := make(map[string]bool, len(sc.BaseSourceNames))
	for _, name := range sc.BaseSourceNames {
		if seen[name] {
			problems = append(problems, fmt.Sprintf("swipe base source %q is listed more than once", name))
		}
		seen[name] = true
	}
	if s.HasBaseLayerItem() {
		problems = append(problems, "swipe layer must not contain base layer items")
	}
	return problems
}

// ClassifyAll assigns Kind on every source in place.
func ClassifyAll(sources []DataSource) {
	for i := range sources {
		sources[i].Kind, _ = ClassifySource(&sources[i])
	}
}
