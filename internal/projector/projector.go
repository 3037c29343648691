// Package projector derives the fully defaulted, read-only view of a
// configuration that editing surfaces display.
package projector

import (
	"github.com/brunoga/deep"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// Project returns a defaulted copy of cfg. cfg is not modified.
//
// In the projection every item satisfies the url-or-images invariant,
// base layers are flagged on the source only, every source has a layout
// with a layer card, and legend and controls sit in the panel named by
// contentLocation.
func Project(cfg *models.Configuration) *models.Configuration {
	out := deep.MustCopy(*cfg)
	out.EnsureCollections()

	for i := range out.Sources {
		projectSource(&out.Sources[i])
	}
	return &out
}

func projectSource(s *models.DataSource) {
	s.Data = projectItems(s.Data)
	if s.Data == nil {
		s.Data = []models.DataSourceItem{}
	}
	s.Statistics = projectItems(s.Statistics)

	if s.Kind == models.KindUnclassified {
		s.Kind, _ = models.ClassifySource(s)
	}
	if s.Kind == models.KindBaseLayer || s.HasBaseLayerItem() {
		s.IsBaseLayer = true
		for j := range s.Data {
			s.Data[j].IsBaseLayer = false
		}
	}

	projectLayout(s)
}

// projectItems applies item defaults and drops items that still have
// neither url nor images.
func projectItems(items []models.DataSourceItem) []models.DataSourceItem {
	if items == nil {
		return nil
	}
	out := make([]models.DataSourceItem, 0, len(items))
	for _, it := range items {
		it.ApplyDefaults()
		if !it.HasLocation() {
			continue
		}
		out = append(out, it)
	}
	return out
}

func projectLayout(s *models.DataSource) {
	if s.Layout == nil {
		s.Layout = &models.SourceLayout{}
	}
	l := s.Layout
	if l.ContentLocation != models.ContentInfoPanel {
		l.ContentLocation = models.ContentLayerCard
	}
	if l.LayerCard == nil {
		l.LayerCard = &models.LayerCard{}
	}

	switch l.ContentLocation {
	case models.ContentInfoPanel:
		if l.InfoPanel == nil {
			l.InfoPanel = &models.InfoPanel{}
		}
		if l.InfoPanel.Legend == nil {
			l.InfoPanel.Legend = l.LayerCard.Legend
		}
		if l.InfoPanel.Controls == nil {
			l.InfoPanel.Controls = l.LayerCard.Controls
		}
		l.LayerCard.Legend = nil
		l.LayerCard.Controls = nil
	default:
		if l.InfoPanel != nil {
			if l.LayerCard.Legend == nil {
				l.LayerCard.Legend = l.InfoPanel.Legend
			}
			if l.LayerCard.Controls == nil {
				l.LayerCard.Controls = l.InfoPanel.Controls
			}
			l.InfoPanel = nil
		}
	}
}
