// Package services holds the concierge workflows: recommendation lookup,
// the queue consumer, ingestion and the conversation front end.
//
// Translation of these errors into user-facing messages or HTTP status
// codes happens at the handler layer.
package services

import "errors"

var (
	// ErrNoRecommendation is returned when the search index has no entry
	// for the requested cuisine.
	ErrNoRecommendation = errors.New("no restaurant found for cuisine")

	// ErrEmptyMessage is returned when the user sends an empty utterance.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrEngineFailure wraps dialog engine errors.
	ErrEngineFailure = errors.New("dialog engine failure")

	// ErrPublish wraps queue enqueue errors.
	ErrPublish = errors.New("enqueue dining request")

	// ErrNotConfigured is returned when an optional dependency is missing.
	ErrNotConfigured = errors.New("service dependency not configured")
)
