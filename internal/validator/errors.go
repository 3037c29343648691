package validator

import (
	"fmt"
	"strings"
)

// Machine-readable validation codes.
const (
	CodeInvalidRoot      = "invalid_root"
	CodeRequired         = "required"
	CodeInvalidValue     = "invalid_value"
	CodeNotInteger       = "not_integer"
	CodeDecode           = "decode_failed"
	CodeItemMissingURL   = "item_missing_url"
	CodeInvalidURL       = "invalid_url"
	CodeLegendURLMissing = "legend_url_required"
	CodeDuplicateService = "duplicate_service_id"
)

// Warning codes. Warnings never block a load.
const (
	WarnVariantFallback   = "variant_fallback"
	WarnUnknownService    = "unknown_service"
	WarnUnknownSwipeLayer = "unknown_swipe_source"
	WarnDuplicateSource   = "duplicate_source_name"
)

// ValidationError is one field-path-tagged problem of a document.
type ValidationError struct {
	Path    string `json:"path"`
	Label   string `json:"label"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	if e.Label == "" {
		return e.Message
	}
	return e.Label + ": " + e.Message
}

// ValidationErrors is the complete list of problems that blocked a load.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no validation errors"
	case 1:
		return errs[0].Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("%d validation errors: %s", len(errs), strings.Join(msgs, "; "))
}

// Warning is a non-fatal finding recorded during validation.
type Warning struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
