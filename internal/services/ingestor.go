// Package services – Ingestor
//
// This file implements the two ingestion jobs. They are independent and not
// coordinated at run time:
//
//   - RebuildIndex pages through the restaurant store by cursor and upserts
//     one index entry per record, skipping records without an id or cuisine.
//   - IngestSource pages through the business API for every cuisine, stops
//     on a short page or at the API's offset ceiling, de-duplicates by
//     business id within the run and writes the records to the store.
//     Pages are spaced by PageDelay.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/observability"
	"github.com/tbourn/go-dining-concierge/internal/search"
	"github.com/tbourn/go-dining-concierge/internal/yelp"
)

// Ingestion defaults, matching the business API limits.
const (
	DefaultPageSize  = 50
	DefaultMaxOffset = 190
	DefaultScanPage  = 100
)

// RecordStore is the key-value store side of ingestion.
type RecordStore interface {
	Scan(ctx context.Context, cursor string, limit int) ([]domain.RestaurantRecord, string, error)
	BatchPut(ctx context.Context, recs []domain.RestaurantRecord) error
}

// BusinessSource pages through the business search API.
type BusinessSource interface {
	Search(ctx context.Context, location, term string, limit, offset int) ([]yelp.Business, error)
}

// IndexStats summarizes an index rebuild.
type IndexStats struct {
	Scanned int `json:"scanned"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// SourceStats summarizes a source ingestion run.
type SourceStats struct {
	Location   string         `json:"location"`
	PerCuisine map[string]int `json:"per_cuisine"`
	Stored     int            `json:"stored"`
	Failed     []string       `json:"failed,omitempty"` // cuisines whose paging hit an API error
}

// Ingestor runs the two ingestion jobs: rebuilding the search index from
// the store, and filling the store from the business API.
type Ingestor struct {
	Store RecordStore
	Index search.Index
	// Source is the business API. Nil makes IngestSource return
	// ErrNotConfigured.
	Source BusinessSource

	// Cuisines are the search terms of a source run.
	Cuisines []string
	// PageSize is the API page size (DefaultPageSize when zero).
	PageSize int
	// MaxOffset is the highest offset the API serves (DefaultMaxOffset).
	MaxOffset int
	// ScanPage is the store page size of an index rebuild (DefaultScanPage).
	ScanPage int
	// PageDelay is the minimum spacing between API pages; zero disables it.
	PageDelay time.Duration

	// Now stamps InsertedAt; time.Now when nil.
	Now func() time.Time
}

// EnsureIndex creates the search index if it does not exist.
func (in *Ingestor) EnsureIndex(ctx context.Context) (bool, error) {
	created, err := in.Index.EnsureIndex(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure index: %w", err)
	}
	if created {
		zerolog.Ctx(ctx).Info().Msg("search index created")
	}
	return created, nil
}

// RebuildIndex pages through the whole store and upserts an index entry per
// record. Records without an id or cuisine are skipped.
func (in *Ingestor) RebuildIndex(ctx context.Context) (stats IndexStats, err error) {
	ctx, span := otel.Tracer("services/Ingestor").Start(ctx, "RebuildIndex")
	defer func() {
		span.SetAttributes(attribute.Int("records.indexed", stats.Indexed))
		observability.EndSpan(span, err)
	}()

	page := in.ScanPage
	if page <= 0 {
		page = DefaultScanPage
	}
	cursor := ""
	for {
		recs, next, err := in.Store.Scan(ctx, cursor, page)
		if err != nil {
			return stats, fmt.Errorf("scan store: %w", err)
		}
		stats.Scanned += len(recs)

		entries := make([]domain.SearchIndexEntry, 0, len(recs))
		for _, r := range recs {
			if r.BusinessID == "" || r.Cuisine == "" {
				stats.Skipped++
				continue
			}
			entries = append(entries, domain.SearchIndexEntry{RestaurantID: r.BusinessID, Cuisine: r.Cuisine})
		}
		if len(entries) > 0 {
			if err := in.Index.BulkUpsert(ctx, entries); err != nil {
				return stats, fmt.Errorf("bulk upsert: %w", err)
			}
			stats.Indexed += len(entries)
		}
		if next == "" {
			break
		}
		cursor = next
	}

	observability.IngestedRecords.WithLabelValues("indexed").Add(float64(stats.Indexed))
	observability.IngestedRecords.WithLabelValues("skipped").Add(float64(stats.Skipped))
	zerolog.Ctx(ctx).Info().
		Int("scanned", stats.Scanned).
		Int("indexed", stats.Indexed).
		Int("skipped", stats.Skipped).
		Msg("index rebuild complete")
	return stats, nil
}

// IngestSource fetches every cuisine near location from the business API
// and writes the results to the store. Paging for a cuisine stops at the
// offset ceiling, on a short page, or on an API error; whatever was
// collected for that cuisine is still stored.
func (in *Ingestor) IngestSource(ctx context.Context, location string) (stats SourceStats, err error) {
	ctx, span := otel.Tracer("services/Ingestor").Start(ctx, "IngestSource",
		trace.WithAttributes(attribute.String("location", location)),
	)
	defer func() {
		span.SetAttributes(attribute.Int("records.stored", stats.Stored))
		observability.EndSpan(span, err)
	}()

	if in.Source == nil {
		return stats, fmt.Errorf("%w: business source", ErrNotConfigured)
	}
	stats = SourceStats{Location: location, PerCuisine: map[string]int{}}

	limit := in.PageSize
	if limit <= 0 {
		limit = DefaultPageSize
	}
	maxOffset := in.MaxOffset
	if maxOffset <= 0 {
		maxOffset = DefaultMaxOffset
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if in.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(in.PageDelay), 1)
	}

	cuisines := in.Cuisines
	if len(cuisines) == 0 {
		cuisines = domain.Cuisines
	}
	logger := zerolog.Ctx(ctx)

	for _, cuisine := range cuisines {
		recs, err := in.fetchCuisine(ctx, limiter, location, cuisine, limit, maxOffset)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			var apiErr *yelp.APIError
			if !errors.As(err, &apiErr) {
				logger.Warn().Err(err).Str("cuisine", cuisine).Msg("business search failed")
			} else {
				logger.Warn().Int("status", apiErr.Status).Str("cuisine", cuisine).Msg("business API error")
			}
			stats.Failed = append(stats.Failed, cuisine)
		}
		observability.IngestedRecords.WithLabelValues("fetched").Add(float64(len(recs)))
		stats.PerCuisine[cuisine] = len(recs)
		if len(recs) == 0 {
			continue
		}
		if err := in.Store.BatchPut(ctx, recs); err != nil {
			return stats, fmt.Errorf("store %s restaurants: %w", cuisine, err)
		}
		stats.Stored += len(recs)
		observability.IngestedRecords.WithLabelValues("stored").Add(float64(len(recs)))
		logger.Info().Str("cuisine", cuisine).Int("count", len(recs)).Msg("restaurants stored")
	}
	return stats, nil
}

// fetchCuisine returns the de-duplicated records collected for cuisine. On
// error the records gathered so far are returned with it.
func (in *Ingestor) fetchCuisine(ctx context.Context, limiter *rate.Limiter, location, cuisine string, limit, maxOffset int) ([]domain.RestaurantRecord, error) {
	term := cuisine + " restaurants"
	seen := map[string]struct{}{}
	var out []domain.RestaurantRecord

	for offset := 0; offset <= maxOffset; offset += limit {
		if err := limiter.Wait(ctx); err != nil {
			return out, err
		}
		page, err := in.Source.Search(ctx, location, term, limit, offset)
		if err != nil {
			return out, err
		}
		now := in.now()
		for _, b := range page {
			if b.ID == "" {
				continue
			}
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			out = append(out, b.Record(cuisine, now))
		}
		if len(page) < limit {
			break
		}
	}
	return out, nil
}

func (in *Ingestor) now() time.Time {
	if in.Now != nil {
		return in.Now().UTC()
	}
	return time.Now().UTC()
}
