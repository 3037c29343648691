// Package validator checks a normalized configuration document against the
// structural schema and the cross-field business rules, and assigns every
// source its variant kind.
package validator

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

//go:embed schema.cue
var schemaSource string

// Result is a successfully validated configuration.
type Result struct {
	Config   *models.Configuration
	Warnings []Warning
}

// Validator holds the compiled schema. A CUE context is not safe for
// concurrent use, so structural checks are serialized.
type Validator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	schema  cue.Value
	service cue.Value
	source  cue.Value
	item    cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v := &Validator{ctx: ctx}
	for name, dst := range map[string]*cue.Value{
		"#Configuration": &v.schema,
		"#Service":       &v.service,
		"#DataSource":    &v.source,
		"#Item":          &v.item,
	} {
		def := root.LookupPath(cue.ParsePath(name))
		if err := def.Err(); err != nil {
			return nil, fmt.Errorf("lookup %s: %w", name, err)
		}
		*dst = def
	}
	return v, nil
}

// MustNew is New for package initialization; the schema is embedded so a
// failure is a programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw, which must be a decoded JSON object, and returns the
// typed configuration. Any failure returns ValidationErrors listing every
// problem found; nothing is partially applied.
func (v *Validator) Validate(raw any) (*Result, error) {
	doc, ok := document.Map(raw)
	if !ok {
		return nil, ValidationErrors{{
			Code:    CodeInvalidRoot,
			Label:   "Document",
			Message: "must be a JSON object",
		}}
	}

	lbl := labeler{sourceName: treeSourceName(doc)}

	errs := v.structural(doc)
	errs = append(errs, integerFields(doc)...)
	if len(errs) > 0 {
		return nil, lbl.apply(errs)
	}

	var cfg models.Configuration
	if err := document.Decode(doc, &cfg); err != nil {
		return nil, lbl.apply(ValidationErrors{{Code: CodeDecode, Message: err.Error()}})
	}

	lbl = labeler{sourceName: configSourceName(&cfg)}
	if errs := checkRules(&cfg); len(errs) > 0 {
		return nil, lbl.apply(errs)
	}

	warnings := classifySources(&cfg)
	warnings = append(warnings, referenceWarnings(&cfg)...)

	return &Result{Config: &cfg, Warnings: warnings}, nil
}

// structural checks the root, every service, every source and every item
// separately. CUE stops reporting at the first conflict of a value, so
// checking the document as a whole would hide the problems of its other
// elements.
func (v *Validator) structural(doc document.Tree) ValidationErrors {
	v.mu.Lock()
	defer v.mu.Unlock()

	root := make(document.Tree, len(doc))
	for k, val := range doc {
		root[k] = val
	}
	services, servicesOK := document.Slice(doc["services"])
	if servicesOK {
		root["services"] = []any{}
	}
	sources, sourcesOK := document.Slice(doc["sources"])
	if sourcesOK {
		root["sources"] = []any{}
	}

	errs := v.check(v.schema, root, "")
	for i, svc := range services {
		errs = append(errs, v.check(v.service, svc, indexPath("services", i))...)
	}
	for i, src := range sources {
		errs = append(errs, v.checkSource(src, indexPath("sources", i))...)
	}
	return errs
}

func (v *Validator) checkSource(raw any, base string) ValidationErrors {
	src, ok := document.Map(raw)
	if !ok {
		return v.check(v.source, raw, base)
	}

	shell := make(document.Tree, len(src))
	for k, val := range src {
		shell[k] = val
	}
	var itemErrs ValidationErrors
	for _, key := range document.Collections {
		items, ok := document.Slice(src[key])
		if !ok {
			continue
		}
		shell[key] = []any{}
		for j, it := range items {
			itemErrs = append(itemErrs, v.check(v.item, it, indexPath(base+"."+key, j))...)
		}
	}
	return append(v.check(v.source, shell, base), itemErrs...)
}

func (v *Validator) check(def cue.Value, value any, prefix string) ValidationErrors {
	data := v.ctx.Encode(value)
	if err := data.Err(); err != nil {
		return fromCUE(err, prefix)
	}
	if err := def.Unify(data).Validate(cue.Concrete(true), cue.All()); err != nil {
		return fromCUE(err, prefix)
	}
	return nil
}

func fromCUE(err error, prefix string) ValidationErrors {
	var out ValidationErrors
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		path := joinPath(prefix, renderPath(e.Path()))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		key := path + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true

		code := CodeInvalidValue
		if strings.Contains(msg, "incomplete value") {
			code = CodeRequired
			msg = "is required"
		}
		out = append(out, ValidationError{Path: path, Message: msg, Code: code})
	}
	return out
}

// integerFields reports item zIndex values with a fractional part; the
// schema only asserts they are numbers.
func integerFields(doc document.Tree) ValidationErrors {
	var errs ValidationErrors
	sources, _ := document.Slice(doc["sources"])
	for i, s := range sources {
		src, ok := document.Map(s)
		if !ok {
			continue
		}
		for _, key := range document.Collections {
			items, _ := document.Slice(src[key])
			for j, it := range items {
				item, ok := document.Map(it)
				if !ok {
					continue
				}
				if z, present := item["zIndex"]; present && !document.IsInteger(z) {
					errs = append(errs, ValidationError{
						Path:    fmt.Sprintf("sources[%d].%s[%d].zIndex", i, key, j),
						Message: "must be a whole number",
						Code:    CodeNotInteger,
					})
				}
			}
		}
	}
	return errs
}

func treeSourceName(doc document.Tree) func(int) string {
	sources, _ := document.Slice(doc["sources"])
	return func(i int) string {
		if i < 0 || i >= len(sources) {
			return ""
		}
		src, ok := document.Map(sources[i])
		if !ok {
			return ""
		}
		name, _ := document.String(src["name"])
		return name
	}
}

func configSourceName(cfg *models.Configuration) func(int) string {
	return func(i int) string {
		if i < 0 || i >= len(cfg.Sources) {
			return ""
		}
		return cfg.Sources[i].Name
	}
}
