// Package rotation serves vocabulary words in least-served-first order.
//
// The Picker is stateless: it delegates selection, locking and counting to
// the store in one transaction per call, so any number of goroutines or
// processes can share the same database.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kittclouds/tenwords/internal/logging"
	"github.com/kittclouds/tenwords/internal/store"
	"github.com/kittclouds/tenwords/pkg/response"
)

// ErrInvalidBatchSize is returned for a non-positive batch size.
var ErrInvalidBatchSize = errors.New("rotation: batch size must be positive")

// Source is the part of the store the picker needs.
type Source interface {
	PickLeastServed(ctx context.Context, n int) ([]store.Item, error)
}

// Picker hands out batches of the least served words.
type Picker struct {
	source Source
	logger *slog.Logger
}

// Option configures a Picker.
type Option func(*Picker)

// WithLogger sets the picker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Picker) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a picker over the given source.
func New(source Source, opts ...Option) *Picker {
	p := &Picker{
		source: source,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PickBatch returns up to n words and counts each of them as served once.
// A short or empty batch is not an error. Store failures are returned
// wrapped and are never retried here: a retry after a lost commit
// acknowledgement would serve the same words twice.
func (p *Picker) PickBatch(ctx context.Context, n int) ([]store.Item, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, n)
	}

	items, err := p.source.PickLeastServed(ctx, n)
	if err != nil {
		p.logger.ErrorContext(ctx, "pick batch failed",
			slog.Int("requested", n),
			slog.Bool("unavailable", errors.Is(err, store.ErrUnavailable)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("pick batch: %w", err)
	}

	p.logger.DebugContext(ctx, "picked batch",
		slog.Int("requested", n),
		slog.Int("returned", len(items)),
	)
	return items, nil
}

// Words picks a batch and shapes it for clients.
func (p *Picker) Words(ctx context.Context, n int) (*response.WordResponse, error) {
	items, err := p.PickBatch(ctx, n)
	if err != nil {
		return nil, err
	}
	return response.FromItems(items), nil
}
