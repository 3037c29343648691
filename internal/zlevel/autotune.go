package zlevel

import (
	"sort"

	"github.com/brunoga/deep"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// ItemChange is the preview of one item's band assignment.
type ItemChange struct {
	Source     string `json:"source"`
	SourceIdx  int    `json:"sourceIndex"`
	Collection string `json:"collection"`
	Index      int    `json:"index"`
	Format     string `json:"format"`
	Class      Class  `json:"class"`
	Current    int    `json:"current"`
	Proposed   int    `json:"proposed"`
	WillChange bool   `json:"willChange"`
	Warning    string `json:"warning,omitempty"`
}

// BandCount is the number of items proposed for one band.
type BandCount struct {
	ZIndex int `json:"zIndex"`
	Count  int `json:"count"`
}

// Summary is the non-mutating preview of AutoTune.
type Summary struct {
	Items     []ItemChange `json:"items"`
	Bands     []BandCount  `json:"bands"`
	Changed   int          `json:"changed"`
	Unchanged int          `json:"unchanged"`
	Warnings  []string     `json:"warnings"`
}

func sourceIsBase(s *models.DataSource) bool {
	return s.IsBase() || s.IsBaseLayer || s.HasBaseLayerItem()
}

// AutoTune returns a copy of sources with the zIndex of every data and
// statistics item recomputed. The input is not modified.
func AutoTune(sources []models.DataSource) []models.DataSource {
	if sources == nil {
		return nil
	}
	out := deep.MustCopy(sources)
	for i := range out {
		s := &out[i]
		base := sourceIsBase(s)
		for j := range s.Data {
			s.Data[j].ZIndex = Classify(&s.Data[j], base).ZIndex
		}
		for j := range s.Statistics {
			s.Statistics[j].ZIndex = Classify(&s.Statistics[j], base).ZIndex
		}
	}
	return out
}

// Preview reports what AutoTune would change without applying it.
func Preview(sources []models.DataSource) Summary {
	sum := Summary{Items: []ItemChange{}, Bands: []BandCount{}, Warnings: []string{}}
	bands := make(map[int]int)

	for i := range sources {
		s := &sources[i]
		base := sourceIsBase(s)
		visit := func(collection string, items []models.DataSourceItem) {
			for j := range items {
				it := &items[j]
				r := Classify(it, base)
				change := ItemChange{
					Source:     s.Name,
					SourceIdx:  i,
					Collection: collection,
					Index:      j,
					Format:     it.Format,
					Class:      r.Class,
					Current:    it.ZIndex,
					Proposed:   r.ZIndex,
					WillChange: it.ZIndex != r.ZIndex,
					Warning:    r.Warning,
				}
				sum.Items = append(sum.Items, change)
				bands[r.ZIndex]++
				if change.WillChange {
					sum.Changed++
				} else {
					sum.Unchanged++
				}
				if r.Warning != "" {
					sum.Warnings = append(sum.Warnings, s.Name+": "+r.Warning)
				}
			}
		}
		visit(document.KeyData, s.Data)
		visit(document.KeyStatistics, s.Statistics)
	}

	for z, n := range bands {
		sum.Bands = append(sum.Bands, BandCount{ZIndex: z, Count: n})
	}
	sort.Slice(sum.Bands, func(a, b int) bool { return sum.Bands[a].ZIndex < sum.Bands[b].ZIndex })
	return sum
}
