package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/brunoga/deep"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/exporter"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/sanitize"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/zlevel"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrDuplicateService = errors.New("duplicate service id")
	ErrInvalid          = errors.New("invalid input")
)

// Snapshot is one published version of a session's document. Snapshots
// are never modified after Apply returns them.
type Snapshot struct {
	Version       int64                `json:"version"`
	Config        models.Configuration `json:"config"`
	ExportOptions exporter.Options     `json:"exportOptions"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// NewSnapshot is the empty document a session starts with.
func NewSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Version:       1,
		Config:        models.NewConfiguration(),
		ExportOptions: exporter.DefaultOptions(),
		UpdatedAt:     now,
	}
}

// Transition edits a private draft of a snapshot.
type Transition func(draft *Snapshot) error

// Apply runs t on a copy of prev and returns the next snapshot. URLs are
// re-sanitized, item lists re-normalized and sources re-classified on
// every transition. prev is left untouched, also when t fails.
func Apply(prev *Snapshot, t Transition, now time.Time) (*Snapshot, error) {
	draft := deep.MustCopy(*prev)
	if err := t(&draft); err != nil {
		return nil, err
	}

	draft.Config = sanitize.Configuration(draft.Config)
	draft.Config.EnsureCollections()
	models.NormalizeItems(draft.Config.Sources)
	models.ClassifyAll(draft.Config.Sources)

	draft.Version = prev.Version + 1
	draft.UpdatedAt = now
	return &draft, nil
}

// Load replaces the whole document.
func Load(cfg *models.Configuration) Transition {
	return func(d *Snapshot) error {
		d.Config = deep.MustCopy(*cfg)
		return nil
	}
}

// Reset empties the document. Export options are kept.
func Reset() Transition {
	return func(d *Snapshot) error {
		d.Config = models.NewConfiguration()
		return nil
	}
}

// AutoTune assigns the canonical draw-order band to every item.
func AutoTune() Transition {
	return func(d *Snapshot) error {
		d.Config.Sources = zlevel.AutoTune(d.Config.Sources)
		return nil
	}
}

func checkSource(src *models.DataSource) error {
	if src.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	return nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, n)
	}
	return nil
}

// AddSource appends a source.
func AddSource(src models.DataSource) Transition {
	return func(d *Snapshot) error {
		if err := checkSource(&src); err != nil {
			return err
		}
		src.Kind = models.KindUnclassified
		d.Config.Sources = append(d.Config.Sources, deep.MustCopy(src))
		return nil
	}
}

// UpdateSource replaces the source at index.
func UpdateSource(index int, src models.DataSource) Transition {
	return func(d *Snapshot) error {
		if err := checkIndex(index, len(d.Config.Sources)); err != nil {
			return err
		}
		if err := checkSource(&src); err != nil {
			return err
		}
		d.Config.Sources[index] = deep.MustCopy(src)
		return nil
	}
}

// RemoveSource deletes the source at index.
func RemoveSource(index int) Transition {
	return func(d *Snapshot) error {
		if err := checkIndex(index, len(d.Config.Sources)); err != nil {
			return err
		}
		srcs := d.Config.Sources
		d.Config.Sources = append(srcs[:index:index], srcs[index+1:]...)
		return nil
	}
}

// MoveSource moves the source at from to position to, shifting the
// sources in between.
func MoveSource(from, to int) Transition {
	return func(d *Snapshot) error {
		n := len(d.Config.Sources)
		if err := checkIndex(from, n); err != nil {
			return err
		}
		if err := checkIndex(to, n); err != nil {
			return err
		}
		moved := d.Config.Sources[from]
		rest := append(d.Config.Sources[:from:from], d.Config.Sources[from+1:]...)
		out := make([]models.DataSource, 0, n)
		out = append(out, rest[:to]...)
		out = append(out, moved)
		out = append(out, rest[to:]...)
		d.Config.Sources = out
		return nil
	}
}

// AddService registers a service. IDs are unique.
func AddService(svc models.Service) Transition {
	return func(d *Snapshot) error {
		if svc.ID == "" || svc.URL == "" {
			return fmt.Errorf("%w: service id and url are required", ErrInvalid)
		}
		if d.Config.FindService(svc.ID) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateService, svc.ID)
		}
		if svc.Name == "" {
			svc.Name = svc.ID
		}
		d.Config.Services = append(d.Config.Services, svc)
		return nil
	}
}

// RemoveService deletes the service with the given id.
func RemoveService(id string) Transition {
	return func(d *Snapshot) error {
		i := d.Config.FindService(id)
		if i < 0 {
			return fmt.Errorf("service %s: %w", id, ErrNotFound)
		}
		svcs := d.Config.Services
		d.Config.Services = append(svcs[:i:i], svcs[i+1:]...)
		return nil
	}
}

// SetServiceCapabilities records resolved capabilities; nil clears them.
func SetServiceCapabilities(id string, caps *models.ServiceCapabilities) Transition {
	return func(d *Snapshot) error {
		i := d.Config.FindService(id)
		if i < 0 {
			return fmt.Errorf("service %s: %w", id, ErrNotFound)
		}
		d.Config.Services[i].Capabilities = caps
		return nil
	}
}

// SetNavigation replaces the header settings.
func SetNavigation(nav models.Navigation) Transition {
	return func(d *Snapshot) error {
		d.Config.Layout.Navigation = nav
		return nil
	}
}

// SetExportOptions stores the options used for the served export.
func SetExportOptions(opts exporter.Options) Transition {
	return func(d *Snapshot) error {
		d.ExportOptions = opts
		return nil
	}
}
