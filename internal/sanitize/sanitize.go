// Package sanitize cleans URL-bearing fields before they are stored or exported.
package sanitize

import (
	"strings"
	"unicode"

	"github.com/brunoga/deep"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// URL trims surrounding whitespace and removes control and invisible
// formatting runes (zero-width spaces and joiners, byte order marks) that
// survive copy and paste from documents and chat tools.
func URL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// Configuration returns a copy of cfg with every URL-bearing field passed
// through URL. The input is left untouched.
func Configuration(cfg models.Configuration) models.Configuration {
	out := deep.MustCopy(cfg)

	out.Layout.Navigation.Logo = URL(out.Layout.Navigation.Logo)
	for i := range out.Services {
		out.Services[i].URL = URL(out.Services[i].URL)
	}
	for i := range out.Sources {
		Source(&out.Sources[i])
	}
	return out
}

// Source sanitizes the URL fields of a single source in place.
func Source(s *models.DataSource) {
	items(s.Data)
	items(s.Statistics)

	if s.Meta != nil && s.Meta.Attribution != nil {
		s.Meta.Attribution.URL = URL(s.Meta.Attribution.URL)
	}
	if s.Layout != nil {
		if lc := s.Layout.LayerCard; lc != nil {
			legend(lc.Legend)
			controls(lc.Controls)
		}
		if ip := s.Layout.InfoPanel; ip != nil {
			legend(ip.Legend)
			controls(ip.Controls)
		}
	}
	for i := range s.Constraints {
		s.Constraints[i].URL = URL(s.Constraints[i].URL)
	}
}

func items(list []models.DataSourceItem) {
	for i := range list {
		list[i].URL = URL(list[i].URL)
		for j := range list[i].Images {
			list[i].Images[j].URL = URL(list[i].Images[j].URL)
		}
	}
}

func legend(l *models.Legend) {
	if l != nil {
		l.URL = URL(l.URL)
	}
}

func controls(c *models.Controls) {
	if c != nil {
		c.Download = URL(c.Download)
	}
}

// urlKeys are the object keys holding URLs in an untyped document.
var urlKeys = map[string]bool{"url": true, "logo": true, "download": true}

// Tree sanitizes the URL-bearing string fields of an untyped document in
// place.
func Tree(doc document.Tree) {
	document.Walk(doc, func(obj document.Tree) {
		for key, v := range obj {
			if !urlKeys[key] {
				continue
			}
			if s, ok := v.(string); ok {
				obj[key] = URL(s)
			}
		}
	})
}
