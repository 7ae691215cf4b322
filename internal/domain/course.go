package domain

import (
	"time"
)

// MinBudget is the minimum accepted budget for a generation request, in won.
const MinBudget = 10000

// GenerationRequest is the user input for course generation.
// It is immutable once constructed and is the basis of the cache key.
type GenerationRequest struct {
	// Region is the target neighborhood (e.g. 홍대).
	Region string `json:"region" validate:"required"`

	// DateType is the date style label (e.g. 문화데이트).
	DateType string `json:"dateType" validate:"required"`

	// Budget is the total budget in won. Must be at least MinBudget.
	Budget int `json:"budget" validate:"required,min=10000"`
}

// Stop is a single place within a generated course.
type Stop struct {
	ID                string `json:"placeId"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	EstimatedCost     int    `json:"estimatedCost"`
	EstimatedDuration int    `json:"estimatedDuration"`
	Description       string `json:"description"`
}

// Course is an ordered multi-stop itinerary.
type Course struct {
	ID        string `json:"courseId"`
	Title     string `json:"title"`
	Stops     []Stop `json:"places"`
	TotalCost int    `json:"totalCost"`
	TotalTime string `json:"totalTime"`
}

// GenerationResult is the outcome of one course generation, either produced
// by the LLM or by the rule-based fallback path.
type GenerationResult struct {
	// RequestID is a server-generated correlation id.
	RequestID string `json:"requestId"`

	// GeneratedAt is when the result was produced.
	GeneratedAt time.Time `json:"generatedAt"`

	// Courses holds the generated courses (3 for LLM output, 1 for fallback).
	Courses []Course `json:"courses"`

	// Fallback marks results produced without the LLM so downstream
	// consumers can tell them apart.
	Fallback bool `json:"fallback,omitempty"`
}
