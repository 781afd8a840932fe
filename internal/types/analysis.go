package types

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// TravelMode is the isochrone travel profile requested by the caller.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
)

// AnalyzeRequest is the inbound contract of the discovery pipeline.
type AnalyzeRequest struct {
	Longitude   float64    `json:"longitude"`
	Latitude    float64    `json:"latitude"`
	TimeMinutes int        `json:"time_minutes"`
	Mode        TravelMode `json:"mode"`
	CallerID    string     `json:"caller_id,omitempty"`
}

// Validate enforces the request bounds before any provider is contacted.
func (r *AnalyzeRequest) Validate() error {
	if r.TimeMinutes < 1 || r.TimeMinutes > 60 {
		return fmt.Errorf("time_minutes must be between 1 and 60, got %d", r.TimeMinutes)
	}
	switch r.Mode {
	case ModeDriving, ModeWalking, ModeCycling:
	default:
		return fmt.Errorf("unsupported travel mode %q", r.Mode)
	}
	if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("coordinates out of range: lat=%f lng=%f", r.Latitude, r.Longitude)
	}
	return nil
}

// NeighborhoodResult pairs a resolved neighborhood with its assigned POIs.
type NeighborhoodResult struct {
	Neighborhood Neighborhood `json:"neighborhood"`
	POIs         []POI        `json:"pois"`
}

// AnalyzeResult is the outbound contract of the discovery pipeline.
type AnalyzeResult struct {
	Neighborhoods []NeighborhoodResult `json:"neighborhoods"`
}
