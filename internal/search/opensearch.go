package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v2/signer/awsv2"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-dining-concierge/internal/config"
	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// bulkChunk bounds the number of documents sent per _bulk request.
const bulkChunk = 500

// ErrBulkRejected is returned when the _bulk response reports item errors.
var ErrBulkRejected = errors.New("opensearch rejected bulk items")

// OpenSearch is an Index on an OpenSearch (or Amazon OpenSearch Service)
// cluster. Documents are stored with _id = RestaurantID.
type OpenSearch struct {
	Client opensearchapi.Transport
	Index  string
}

// NewOpenSearch builds a client from cfg. When cfg.SigV4 is set requests
// are signed for the "es" service with awsCfg.
func NewOpenSearch(cfg config.SearchConfig, awsCfg *aws.Config) (*OpenSearch, error) {
	osCfg := opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.SigV4 {
		if awsCfg == nil {
			return nil, errors.New("opensearch: sigv4 requires an aws config")
		}
		signer, err := requestsigner.NewSignerWithService(*awsCfg, "es")
		if err != nil {
			return nil, fmt.Errorf("opensearch signer: %w", err)
		}
		osCfg.Signer = signer
	}
	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}
	return &OpenSearch{Client: client, Index: cfg.Index}, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source domain.SearchIndexEntry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search implements Index with a term query on the keyword Cuisine field.
func (o *OpenSearch) Search(ctx context.Context, cuisine string, size int) ([]domain.SearchIndexEntry, error) {
	if size <= 0 {
		return nil, nil
	}
	return o.query(ctx, map[string]any{
		"size":  size,
		"query": map[string]any{"term": map[string]any{"Cuisine": cuisine}},
	})
}

// All implements Index with a match_all query.
func (o *OpenSearch) All(ctx context.Context, limit int) ([]domain.SearchIndexEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return o.query(ctx, map[string]any{
		"size":  limit,
		"query": map[string]any{"match_all": map[string]any{}},
	})
}

func (o *OpenSearch) query(ctx context.Context, q map[string]any) ([]domain.SearchIndexEntry, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	res, err := opensearchapi.SearchRequest{
		Index: []string{o.Index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, o.Client)
	if err != nil {
		return nil, fmt.Errorf("opensearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, statusError("search", res)
	}
	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]domain.SearchIndexEntry, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// BulkUpsert implements Index using the _bulk API with index actions.
func (o *OpenSearch) BulkUpsert(ctx context.Context, entries []domain.SearchIndexEntry) error {
	for start := 0; start < len(entries); start += bulkChunk {
		end := start + bulkChunk
		if end > len(entries) {
			end = len(entries)
		}
		if err := o.bulk(ctx, entries[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (o *OpenSearch) bulk(ctx context.Context, entries []domain.SearchIndexEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	n := 0
	for _, e := range entries {
		if e.RestaurantID == "" {
			continue
		}
		action := map[string]any{"index": map[string]any{"_index": o.Index, "_id": e.RestaurantID}}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(e); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return nil
	}

	res, err := opensearchapi.BulkRequest{
		Index: o.Index,
		Body:  &buf,
	}.Do(ctx, o.Client)
	if err != nil {
		return fmt.Errorf("opensearch bulk: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return statusError("bulk", res)
	}
	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !br.Errors {
		return nil
	}
	failed := 0
	for _, item := range br.Items {
		for _, r := range item {
			if r.Error != nil {
				failed++
				zerolog.Ctx(ctx).Warn().
					Str("id", r.ID).
					Int("status", r.Status).
					Str("reason", r.Error.Reason).
					Msg("bulk item rejected")
			}
		}
	}
	return fmt.Errorf("%w: %d of %d", ErrBulkRejected, failed, n)
}

// EnsureIndex implements Index. The index is created with one shard and
// keyword mappings for RestaurantID and Cuisine.
func (o *OpenSearch) EnsureIndex(ctx context.Context) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{o.Index}}.Do(ctx, o.Client)
	if err != nil {
		return false, fmt.Errorf("opensearch index exists: %w", err)
	}
	drain(res)
	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("opensearch index exists: status %d", res.StatusCode)
	}

	body, _ := json.Marshal(map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"RestaurantID": map[string]string{"type": "keyword"},
				"Cuisine":      map[string]string{"type": "keyword"},
			},
		},
	})
	res, err = opensearchapi.IndicesCreateRequest{
		Index: o.Index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, o.Client)
	if err != nil {
		return false, fmt.Errorf("opensearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, statusError("create index", res)
	}
	return true, nil
}

// Ping checks that the cluster answers.
func (o *OpenSearch) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, o.Client)
	if err != nil {
		return fmt.Errorf("opensearch ping: %w", err)
	}
	drain(res)
	if res.IsError() {
		return fmt.Errorf("opensearch ping: status %d", res.StatusCode)
	}
	return nil
}

func statusError(op string, res *opensearchapi.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("opensearch %s: status %d: %s", op, res.StatusCode, bytes.TrimSpace(b))
}

func drain(res *opensearchapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
