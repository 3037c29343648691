package validator

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// checkRules applies the cross-field rules the schema cannot express.
func checkRules(cfg *models.Configuration) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, checkURL("layout.navigation.logo", cfg.Layout.Navigation.Logo)...)

	seen := make(map[string]int, len(cfg.Services))
	for i, svc := range cfg.Services {
		base := indexPath("services", i)
		if first, dup := seen[svc.ID]; dup {
			errs = append(errs, ValidationError{
				Path:    base + ".id",
				Message: fmt.Sprintf("duplicates the ID of services[%d]", first),
				Code:    CodeDuplicateService,
			})
		} else {
			seen[svc.ID] = i
		}
		errs = append(errs, checkURL(base+".url", svc.URL)...)
	}

	for i := range cfg.Sources {
		errs = append(errs, checkSource(indexPath("sources", i), &cfg.Sources[i])...)
	}
	return errs
}

func checkSource(base string, s *models.DataSource) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, checkItems(base+".data", s.Data)...)
	errs = append(errs, checkItems(base+".statistics", s.Statistics)...)

	if s.Meta != nil && s.Meta.Attribution != nil {
		errs = append(errs, checkURL(base+".meta.attribution.url", s.Meta.Attribution.URL)...)
	}
	if s.Layout != nil {
		if lc := s.Layout.LayerCard; lc != nil {
			errs = append(errs, checkLegend(base+".layout.layerCard.legend", lc.Legend)...)
		}
		if ip := s.Layout.InfoPanel; ip != nil {
			errs = append(errs, checkLegend(base+".layout.infoPanel.legend", ip.Legend)...)
		}
	}
	for i, c := range s.Constraints {
		errs = append(errs, checkURL(indexPath(base+".constraints", i)+".url", c.URL)...)
	}
	return errs
}

func checkItems(base string, items []models.DataSourceItem) ValidationErrors {
	var errs ValidationErrors
	for i := range items {
		it := &items[i]
		path := indexPath(base, i)
		if !it.HasLocation() {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "needs a url or at least one image",
				Code:    CodeItemMissingURL,
			})
		}
		errs = append(errs, checkURL(path+".url", it.URL)...)
		for j, img := range it.Images {
			errs = append(errs, checkURL(indexPath(path+".images", j)+".url", img.URL)...)
		}
	}
	return errs
}

func checkLegend(path string, l *models.Legend) ValidationErrors {
	if l == nil {
		return nil
	}
	if l.Type == models.LegendImage && l.URL == "" {
		return ValidationErrors{{
			Path:    path + ".url",
			Message: "an image legend needs a url",
			Code:    CodeLegendURLMissing,
		}}
	}
	return checkURL(path+".url", l.URL)
}

// checkURL accepts an empty value, an absolute URL with a scheme, or a
// path starting with /, ./ or ../. Web URLs also need a host.
func checkURL(path, raw string) ValidationErrors {
	if raw == "" || validURL(raw) {
		return nil
	}
	return ValidationErrors{{
		Path:    path,
		Message: fmt.Sprintf("%q is not a valid URL", raw),
		Code:    CodeInvalidURL,
	}}
}

// templateToken matches tile URL placeholders such as {s}, {z} or {-y}.
var templateToken = regexp.MustCompile(`\{[^{}]*\}`)

func validURL(raw string) bool {
	for _, prefix := range []string{"/", "./", "../"} {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	u, err := url.Parse(templateToken.ReplaceAllString(raw, "0"))
	if err != nil || u.Scheme == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	}
	return true
}

// classifySources assigns each source its kind and warns for sources that
// only fit the permissive fallback.
func classifySources(cfg *models.Configuration) []Warning {
	var warnings []Warning
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		kind, reasons := models.ClassifySource(s)
		s.Kind = kind
		if kind != models.KindGeneric {
			continue
		}
		msg := "layer matches no specific variant"
		if len(reasons) > 0 {
			msg += ": " + strings.Join(reasons, "; ")
		}
		warnings = append(warnings, Warning{
			Path:    indexPath("sources", i),
			Code:    WarnVariantFallback,
			Message: fmt.Sprintf("%s (layer %q)", msg, s.Name),
		})
	}
	return warnings
}

// referenceWarnings reports dangling service and swipe references and
// repeated source names.
func referenceWarnings(cfg *models.Configuration) []Warning {
	var warnings []Warning

	names := make(map[string]int, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if first, dup := names[s.Name]; dup {
			warnings = append(warnings, Warning{
				Path:    indexPath("sources", i) + ".name",
				Code:    WarnDuplicateSource,
				Message: fmt.Sprintf("layer name %q is also used by sources[%d]", s.Name, first),
			})
			continue
		}
		names[s.Name] = i
	}

	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		base := indexPath("sources", i)
		for j, it := range s.Data {
			if it.ServiceID != "" && cfg.FindService(it.ServiceID) < 0 {
				warnings = append(warnings, Warning{
					Path:    indexPath(base+".data", j) + ".serviceId",
					Code:    WarnUnknownService,
					Message: fmt.Sprintf("service %q is not defined", it.ServiceID),
				})
			}
		}

		sc := s.SwipeConfig()
		if sc == nil {
			continue
		}
		refs := append([]string{sc.ClippedSourceName}, sc.BaseSourceNames...)
		for _, ref := range refs {
			if ref == "" {
				continue
			}
			if cfg.FindSource(ref) < 0 {
				warnings = append(warnings, Warning{
					Path:    base + ".meta.swipeConfig",
					Code:    WarnUnknownSwipeLayer,
					Message: fmt.Sprintf("swipe references unknown layer %q", ref),
				})
			}
		}
	}
	return warnings
}
