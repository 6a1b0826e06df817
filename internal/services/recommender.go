// Package services – Recommender
//
// Recommendation lookup: a capped exact-match cuisine search followed by a
// uniform random pick and a store lookup for the chosen restaurant.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/search"
)

const (
	// DefaultSampleSize caps the search hits a recommendation is drawn from.
	DefaultSampleSize = 5

	PlaceholderName    = "Unknown Restaurant"
	PlaceholderAddress = "Unknown Address"
)

// RecordGetter resolves restaurant records by id.
type RecordGetter interface {
	Get(ctx context.Context, id string) (*domain.RestaurantRecord, error)
}

// Recommender picks one restaurant for a cuisine: a capped exact-match
// search, a uniform random pick among the hits, then a store lookup.
type Recommender struct {
	Index search.Index
	Store RecordGetter
	// SampleSize caps the hits drawn from (DefaultSampleSize when zero).
	SampleSize int

	// Intn returns a value in [0, n). Tests inject a fixed source.
	Intn func(n int) int
}

// NewRecommender returns a Recommender drawing from the shared random source.
func NewRecommender(idx search.Index, store RecordGetter) *Recommender {
	return &Recommender{Index: idx, Store: store, SampleSize: DefaultSampleSize, Intn: rand.Intn}
}

// Recommend returns details for one restaurant serving cuisine, or
// ErrNoRecommendation when the index has none. A record missing from the
// store yields placeholder name and address.
func (r *Recommender) Recommend(ctx context.Context, cuisine string) (*domain.RestaurantDetails, error) {
	ctx, span := otel.Tracer("services/Recommender").Start(ctx, "Recommend",
		trace.WithAttributes(attribute.String("cuisine", cuisine)),
	)
	defer span.End()

	size := r.SampleSize
	if size <= 0 {
		size = DefaultSampleSize
	}
	hits, err := r.Index.Search(ctx, cuisine, size)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search %q: %w", cuisine, err)
	}
	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	if len(hits) == 0 {
		return nil, ErrNoRecommendation
	}

	pick := hits[r.intn(len(hits))]
	details := &domain.RestaurantDetails{
		RestaurantID: pick.RestaurantID,
		Name:         PlaceholderName,
		Address:      PlaceholderAddress,
		Cuisine:      cuisine,
	}

	rec, err := r.Store.Get(ctx, pick.RestaurantID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return details, nil
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("get restaurant %s: %w", pick.RestaurantID, err)
	}
	if rec.Name != "" {
		details.Name = rec.Name
	}
	if rec.Address != "" {
		details.Address = rec.Address
	}
	return details, nil
}

func (r *Recommender) intn(n int) int {
	if r.Intn == nil {
		return rand.Intn(n)
	}
	return r.Intn(n)
}
