// Package importer turns uploaded documents into validated configurations.
// Uploads are parsed, coerced into canonical shape and stripped of export
// transformations before validation. Services are then enriched with
// their capabilities.
package importer

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/capabilities"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/sanitize"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/validator"
)

// Stage names a step of Import, reported through a progress callback.
type Stage string

const (
	StageReading     Stage = "reading"
	StageNormalizing Stage = "normalizing"
	StageValidating  Stage = "validating"
	StageResolving   Stage = "resolving"
)

// DefaultMaxSize bounds the size of an uploaded document.
const DefaultMaxSize = 32 << 20

// ErrTooLarge is returned when an upload, before or after decompression,
// exceeds the size limit.
var ErrTooLarge = errors.New("document too large")

// Result is a successfully imported configuration.
type Result struct {
	Config   *models.Configuration `json:"config"`
	Warnings []validator.Warning   `json:"warnings"`
	Report   Report                `json:"report"`
}

// Importer runs the import pipeline. Resolver may be nil, in which case
// services are loaded without capabilities.
type Importer struct {
	Validator   *validator.Validator
	Resolver    capabilities.Resolver
	Concurrency int
	MaxSize     int64
	Logger      *logging.Logger
}

// Import reads, checks and enriches one uploaded document.
func (im *Importer) Import(ctx context.Context, name string, r io.Reader) (*Result, error) {
	return im.ImportWithProgress(ctx, name, r, nil)
}

// ImportWithProgress is Import calling progress as each stage starts.
func (im *Importer) ImportWithProgress(ctx context.Context, name string, r io.Reader, progress func(Stage)) (*Result, error) {
	report := func(s Stage) {
		if progress != nil {
			progress(s)
		}
	}

	report(StageReading)
	data, err := im.read(ctx, r)
	if err != nil {
		return nil, err
	}

	report(StageNormalizing)
	res, err := im.prepare(name, data, func() { report(StageValidating) })
	if err != nil {
		return nil, err
	}

	report(StageResolving)
	services, err := capabilities.Enrich(ctx, im.Resolver, res.Config.Services, im.Concurrency, im.Logger)
	if err != nil {
		return nil, fmt.Errorf("resolve capabilities: %w", err)
	}
	res.Config.Services = services

	im.Logger.Info("document imported",
		"name", name,
		"sources", len(res.Config.Sources),
		"services", len(res.Config.Services),
		"warnings", len(res.Warnings),
		"reversed", res.Report.Reversed)
	return res, nil
}

// Check parses, normalizes and validates data without resolving
// capabilities.
func (im *Importer) Check(name string, data []byte) (*Result, error) {
	return im.prepare(name, data, nil)
}

func (im *Importer) prepare(name string, data []byte, beforeValidate func()) (*Result, error) {
	doc, err := ParseDocument(name, data)
	if err != nil {
		return nil, err
	}

	normalized, report := Normalize(doc)
	sanitize.Tree(normalized)

	if beforeValidate != nil {
		beforeValidate()
	}
	v := im.Validator
	if v == nil {
		v = validator.MustNew()
	}
	checked, err := v.Validate(normalized)
	if err != nil {
		return nil, err
	}

	cfg := *checked.Config
	cfg.EnsureCollections()
	models.NormalizeItems(cfg.Sources)

	warnings := checked.Warnings
	if warnings == nil {
		warnings = []validator.Warning{}
	}
	return &Result{Config: &cfg, Warnings: warnings, Report: report}, nil
}

// read loads the upload, honouring cancellation and the size limit, and
// transparently gunzips compressed uploads.
func (im *Importer) read(ctx context.Context, r io.Reader) ([]byte, error) {
	limit := im.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	data, err := io.ReadAll(io.LimitReader(ctxReader{ctx: ctx, r: r}, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, limit)
	}

	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("invalid gzip upload: %v", err)}
		}
		defer zr.Close()
		data, err = io.ReadAll(io.LimitReader(ctxReader{ctx: ctx, r: zr}, limit+1))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("read upload: %w", ctxErr)
		}
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("decompress upload: %v", err)}
		}
		if int64(len(data)) > limit {
			return nil, fmt.Errorf("%w: exceeds %d bytes once decompressed", ErrTooLarge, limit)
		}
	}
	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
