// Package domain defines the core data model of the dining concierge: the
// dining request produced by the dialog, the restaurant records owned by the
// key-value store, and the cuisine-keyed search index entries that point back
// into them. Persistence tags cover both GORM (SQLite/Postgres) and DynamoDB.
package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DiningRequest is the completed, validated request handed from the dialog
// to the recommendation worker. It is immutable after creation and travels
// through the queue as JSON.
type DiningRequest struct {
	Location       string `json:"location"`
	Cuisine        string `json:"cuisine"`
	DiningTime     string `json:"dining_time"`
	NumberOfPeople int    `json:"number_of_people"`
	Email          string `json:"email"`
}

// Coordinates is a latitude/longitude pair as reported by the business API.
type Coordinates struct {
	Latitude  float64 `json:"latitude"  dynamodbav:"latitude"`
	Longitude float64 `json:"longitude" dynamodbav:"longitude"`
}

// RestaurantRecord is a single restaurant owned by the key-value store.
//
// BusinessID is the stable identifier from the business API; re-ingestion
// upserts on it, so a record is never duplicated.
type RestaurantRecord struct {
	BusinessID  string      `json:"business_id"  gorm:"type:varchar(64);primaryKey" dynamodbav:"BusinessID"`
	Name        string      `json:"name"         gorm:"type:varchar(255);not null"  dynamodbav:"Name"`
	Address     string      `json:"address"      gorm:"type:text"                   dynamodbav:"Address"`
	Cuisine     string      `json:"cuisine"      gorm:"type:varchar(32);index"      dynamodbav:"Cuisine"`
	Coordinates Coordinates `json:"coordinates"  gorm:"embedded;embeddedPrefix:coord_" dynamodbav:"Coordinates"`
	ReviewCount int         `json:"review_count" dynamodbav:"NumberOfReviews"`
	Rating      float64     `json:"rating"       dynamodbav:"Rating"`
	ZipCode     string      `json:"zip_code"     gorm:"type:varchar(16)"            dynamodbav:"ZipCode"`
	InsertedAt  time.Time   `json:"inserted_at"  dynamodbav:"insertedAtTimestamp"`
}

// TableName returns the database table name for RestaurantRecord.
func (RestaurantRecord) TableName() string { return "restaurants" }

// SearchIndexEntry is a cuisine-keyed pointer into a RestaurantRecord. The
// JSON field names match the index mapping (RestaurantID, Cuisine).
type SearchIndexEntry struct {
	RestaurantID string `json:"RestaurantID"`
	Cuisine      string `json:"Cuisine"`
}

// RestaurantDetails is what the recommendation lookup resolves for a chosen
// index entry. Name and Address carry placeholders when the record is gone.
type RestaurantDetails struct {
	RestaurantID string
	Name         string
	Address      string
	Cuisine      string
}
