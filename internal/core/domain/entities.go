package domain

import (
	"time"
)

// Fountain is a normalized public drinking-water point of interest.
type Fountain struct {
	ID       string            `json:"id"`
	Location GeoPoint          `json:"location"`
	Name     string            `json:"name,omitempty"`
	Tags     map[string]string `json:"tags"`
}

// FountainSnapshot is the last successfully fetched fountain set.
type FountainSnapshot struct {
	Fountains []Fountain `json:"fountains"`
	SavedAt   time.Time  `json:"saved_at"`
}

// RouteSource tells whether a route came from the routing provider or was synthesized.
type RouteSource string

const (
	RouteSourceProvider RouteSource = "provider"
	RouteSourceFallback RouteSource = "fallback"
)

// Route is a walking path between two points.
type Route struct {
	Path            []RoutePoint `json:"path"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	Source          RouteSource  `json:"source"`
}

// IsFallback reports whether the route is a straight-line estimate.
func (r Route) IsFallback() bool {
	return r.Source == RouteSourceFallback
}

// NearestResult is the closest fountain to a point.
type NearestResult struct {
	Fountain       Fountain `json:"fountain"`
	DistanceMeters float64  `json:"distance_meters"`
}

// VoteType is a crowd-sourced fountain status.
type VoteType string

const (
	VoteRunning      VoteType = "running"
	VoteOutOfService VoteType = "outOfService"
	VoteAbandoned    VoteType = "abandoned"
)

// VoteTypes lists the accepted vote types in display order.
var VoteTypes = []VoteType{VoteRunning, VoteOutOfService, VoteAbandoned}

// ParseVoteType validates a raw vote type.
func ParseVoteType(s string) (VoteType, error) {
	for _, v := range VoteTypes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", ErrInvalidVoteType
}

// Feedback holds the vote counters of one fountain.
type Feedback struct {
	FountainID   string `json:"fountainId"`
	Running      int    `json:"running"`
	OutOfService int    `json:"outOfService"`
	Abandoned    int    `json:"abandoned"`
}

// Add increments the counter matching v.
func (f *Feedback) Add(v VoteType) {
	switch v {
	case VoteRunning:
		f.Running++
	case VoteOutOfService:
		f.OutOfService++
	case VoteAbandoned:
		f.Abandoned++
	}
}

// VoteEvent is published after a vote has been recorded.
type VoteEvent struct {
	FountainID string    `json:"fountainId"`
	VoteType   VoteType  `json:"voteType"`
	Feedback   Feedback  `json:"feedback"`
	Time       time.Time `json:"time"`
}
