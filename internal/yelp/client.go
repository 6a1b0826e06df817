// Package yelp is a small client for the business search API used to
// populate the restaurant store.
package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/tbourn/go-dining-concierge/internal/config"
	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yelp api: status %d: %s", e.Status, e.Body)
}

// Business is one entry of the search response.
type Business struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Rating      float64            `json:"rating"`
	ReviewCount int                `json:"review_count"`
	Coordinates domain.Coordinates `json:"coordinates"`
	Location    struct {
		DisplayAddress []string `json:"display_address"`
		ZipCode        string   `json:"zip_code"`
	} `json:"location"`
}

// Record maps b to a store record for the given cuisine.
func (b Business) Record(cuisine string, now time.Time) domain.RestaurantRecord {
	return domain.RestaurantRecord{
		BusinessID:  b.ID,
		Name:        b.Name,
		Address:     strings.Join(b.Location.DisplayAddress, ", "),
		Cuisine:     cuisine,
		Coordinates: b.Coordinates,
		ReviewCount: b.ReviewCount,
		Rating:      b.Rating,
		ZipCode:     b.Location.ZipCode,
		InsertedAt:  now.UTC(),
	}
}

type searchResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}

// Client calls the business search endpoint with a bearer API key.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// NewClient returns a Client authenticated with cfg.APIKey.
func NewClient(cfg config.YelpConfig) *Client {
	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	hc.Timeout = cfg.Timeout
	return &Client{HTTP: hc, BaseURL: cfg.BaseURL}
}

// Search returns one page of businesses matching term near location.
func (c *Client) Search(ctx context.Context, location, term string, limit, offset int) ([]Business, error) {
	q := url.Values{}
	q.Set("location", location)
	q.Set("term", term)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yelp search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode yelp response: %w", err)
	}
	return sr.Businesses, nil
}
