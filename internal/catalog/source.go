package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
)

// Source produces the raw catalog records. Implementations include the
// backend HTTP client, the SQLite cache and HCL manifests.
type Source interface {
	FetchCatalog(ctx context.Context) ([]NodeRecord, error)
}

// Sink receives a catalog that was fetched successfully, e.g. to cache it.
type Sink interface {
	SaveCatalog(ctx context.Context, records []NodeRecord) error
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]NodeRecord, error)

// FetchCatalog implements Source.
func (f SourceFunc) FetchCatalog(ctx context.Context) ([]NodeRecord, error) {
	return f(ctx)
}

// Static serves a fixed set of records.
type Static []NodeRecord

// FetchCatalog implements Source.
func (s Static) FetchCatalog(context.Context) ([]NodeRecord, error) {
	return s, nil
}

// Fallback tries each source in order and returns the first catalog that
// both fetches and validates. A malformed catalog counts as a failure so the
// next source gets a chance.
type Fallback struct {
	names   []string
	sources []Source
	sink    Sink
}

// NewFallback creates an empty fallback chain. When sink is non-nil, the
// records of the first source are stored in it after they validate.
func NewFallback(sink Sink) *Fallback {
	return &Fallback{sink: sink}
}

// Add appends a named source to the chain.
func (f *Fallback) Add(name string, src Source) *Fallback {
	f.names = append(f.names, name)
	f.sources = append(f.sources, src)
	return f
}

// Len returns the number of sources in the chain.
func (f *Fallback) Len() int {
	return len(f.sources)
}

// Load fetches and validates a catalog from the first healthy source.
func (f *Fallback) Load(ctx context.Context) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	if len(f.sources) == 0 {
		return nil, errors.New("no catalog source configured")
	}

	var errs []error
	for i, src := range f.sources {
		name := f.names[i]
		logger.Debug("Fetching node catalog.", "source", name)

		records, err := src.FetchCatalog(ctx)
		if err != nil {
			logger.Warn("Catalog source failed.", "source", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		cat, err := FromRecords(records)
		if err != nil {
			logger.Warn("Catalog source returned malformed data.", "source", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		if i == 0 && f.sink != nil {
			if err := f.sink.SaveCatalog(ctx, records); err != nil {
				logger.Warn("Failed to store catalog in sink.", "error", err)
			}
		}
		logger.Info("Node catalog loaded.", "source", name, "node_types", cat.Len())
		return cat, nil
	}
	return nil, errors.Join(errs...)
}
