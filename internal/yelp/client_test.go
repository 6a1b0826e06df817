package yelp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tbourn/go-dining-concierge/internal/config"
)

const page = `{"total":2,"businesses":[
 {"id":"b1","name":"Luigi's","rating":4.5,"review_count":120,
  "coordinates":{"latitude":40.7,"longitude":-73.9},
  "location":{"display_address":["1 Main St","New York, NY 10001"],"zip_code":"10001"}},
 {"id":"b2","name":"Roma","rating":4,"review_count":8,
  "coordinates":{"latitude":40.8,"longitude":-73.8},
  "location":{"display_address":["2 Side St"],"zip_code":""}}]}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.YelpConfig{APIKey: "secret", BaseURL: srv.URL + "/v3/businesses/search", Timeout: 2 * time.Second})
}

func TestSearch_SendsBearerAndParams(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(page))
	})

	bs, err := c.Search(context.Background(), "New York", "italian restaurants", 50, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(bs) != 2 || bs[0].ID != "b1" {
		t.Fatalf("businesses = %+v", bs)
	}
	if h := got.Header.Get("Authorization"); h != "Bearer secret" {
		t.Fatalf("Authorization = %q", h)
	}
	q := got.URL.Query()
	if q.Get("location") != "New York" || q.Get("term") != "italian restaurants" ||
		q.Get("limit") != "50" || q.Get("offset") != "100" {
		t.Fatalf("query = %v", q)
	}
	if got.URL.Path != "/v3/businesses/search" {
		t.Fatalf("path = %q", got.URL.Path)
	}
}

func TestSearch_NonOKIsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"TOO_MANY_REQUESTS_PER_SECOND"}}`))
	})
	_, err := c.Search(context.Background(), "Boston", "thai restaurants", 50, 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("err = %v; want APIError 429", err)
	}
}

func TestBusiness_Record(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(page)) })
	bs, err := c.Search(context.Background(), "New York", "italian restaurants", 50, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	rec := bs[0].Record("italian", now)
	if rec.BusinessID != "b1" || rec.Name != "Luigi's" || rec.Cuisine != "italian" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Address != "1 Main St, New York, NY 10001" {
		t.Fatalf("address = %q", rec.Address)
	}
	if rec.ReviewCount != 120 || rec.Rating != 4.5 || rec.ZipCode != "10001" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Coordinates.Latitude != 40.7 || rec.InsertedAt.Location() != time.UTC {
		t.Fatalf("record = %+v", rec)
	}
}
