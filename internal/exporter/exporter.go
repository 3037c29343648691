// Package exporter turns the canonical configuration into the document the
// viewer downloads or is served, applying the optional rewrite pipeline.
package exporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/sanitize"
	"github.com/vmihailenco/msgpack/v5"
)

// Document is an exported configuration.
type Document struct {
	Tree document.Tree
	Meta *models.ExportMeta
}

// JSON renders the document indented with two spaces.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(d.Tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// MsgPack renders the document as MessagePack.
func (d *Document) MsgPack() ([]byte, error) {
	data, err := msgpack.Marshal(d.Tree)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// Exporter runs the export pipeline. The zero value is ready to use.
type Exporter struct {
	// Now stamps exportedAt. Defaults to time.Now.
	Now func() time.Time
}

// Export builds the exported document. cfg is not modified.
func (e *Exporter) Export(cfg *models.Configuration, opts Options) (*Document, error) {
	clean := sanitize.Configuration(*cfg)
	clean.EnsureCollections()
	clean.Services = exportServices(clean.Services)

	tree, err := document.FromValue(clean)
	if err != nil {
		return nil, err
	}

	p := &pipelineDoc{tree: tree}
	var applied []string
	for _, s := range steps {
		if !s.enabled(opts) {
			continue
		}
		s.run(p)
		applied = append(applied, s.name)
	}

	doc := &Document{Tree: p.tree}
	if len(applied) > 0 {
		doc.Meta = &models.ExportMeta{
			Version:         models.ExportMetaVersion,
			Transformations: applied,
			ExportedAt:      e.now().UTC().Format(time.RFC3339),
		}
		metaTree, err := document.FromValue(doc.Meta)
		if err != nil {
			return nil, err
		}
		doc.Tree[models.ExportMetaKey] = metaTree
	}
	return doc, nil
}

// Marshal exports cfg and renders it as JSON.
func (e *Exporter) Marshal(cfg *models.Configuration, opts Options) ([]byte, error) {
	doc, err := e.Export(cfg, opts)
	if err != nil {
		return nil, err
	}
	return doc.JSON()
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// exportServices keeps only the fields the viewer reads.
func exportServices(in []models.Service) []models.Service {
	out := make([]models.Service, 0, len(in))
	for _, s := range in {
		out = append(out, models.Service{ID: s.ID, Name: s.Name, URL: s.URL, Format: s.Format})
	}
	return out
}
