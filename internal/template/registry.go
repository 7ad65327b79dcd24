package template

import (
	"context"
	"sync"
	"time"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/checksum"
	"github.com/marloe/tend/internal/domain"
)

// Store persists template versions as an append-only log. Implemented by
// the SQLite store; defined here so the registry can be tested with an
// in-memory fake.
type Store interface {
	SaveTemplateVersion(ctx context.Context, v *Version) error
	LatestTemplateVersion(ctx context.Context) (*Version, error)
	TemplateVersions(ctx context.Context) ([]*Version, error)
}

// Registry serves the latest template version and validates attribute
// payloads against it. The cached snapshot is guarded because the file
// watcher publishes concurrently with HTTP reads.
type Registry struct {
	store Store
	now   func() time.Time

	mu     sync.RWMutex
	latest *Version
}

// NewRegistry loads the latest published version (if any) and returns a
// ready registry. now is injectable for deterministic tests.
func NewRegistry(ctx context.Context, store Store, now func() time.Time) (*Registry, error) {
	if now == nil {
		now = time.Now
	}
	r := &Registry{store: store, now: now}
	v, err := store.LatestTemplateVersion(ctx)
	switch {
	case err == nil:
		r.latest = v
	case apperr.IsNotFound(err):
		// No version published yet; only empty attribute payloads
		// validate until one is.
	default:
		return nil, err
	}
	return r, nil
}

// Latest returns the highest published version.
func (r *Registry) Latest() (*Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil, apperr.NotFound("no template version published")
	}
	return r.latest, nil
}

// History returns every published version, oldest first.
func (r *Registry) History(ctx context.Context) ([]*Version, error) {
	return r.store.TemplateVersions(ctx)
}

// Publish validates the definition, snapshots it under the next version
// number, and makes it the one governing new writes. Existing contact
// rows are never touched. Publishing a definition whose fingerprint
// matches the current latest returns that version unchanged.
func (r *Registry) Publish(ctx context.Context, cats Categories) (*Version, error) {
	if err := checkDefinition(cats); err != nil {
		return nil, err
	}
	cs, err := checksum.SumJSON(cats)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := 1
	if r.latest != nil {
		if r.latest.Checksum == cs {
			return r.latest, nil
		}
		next = r.latest.Version + 1
	}
	v := &Version{
		Version:    next,
		Categories: cats,
		Checksum:   cs,
		CreatedAt:  r.now().UTC(),
	}
	if err := r.store.SaveTemplateVersion(ctx, v); err != nil {
		return nil, err
	}
	r.latest = v
	return v, nil
}

// ValidateAttributes checks a payload against the latest version. With
// no version published only an empty payload passes.
func (r *Registry) ValidateAttributes(attrs domain.Attributes) error {
	if len(attrs) == 0 {
		return nil
	}
	v, err := r.Latest()
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Validation("attributes supplied but no template version is published")
		}
		return err
	}
	return v.Validate(attrs)
}
