package models

import (
	"fmt"
	"time"
)

// CachedPrediction is the storage form of a predicted tide extreme.
type CachedPrediction struct {
	Type      string  `dynamodbav:"type" json:"type"`           // H or L
	Timestamp int64   `dynamodbav:"timestamp" json:"timestamp"` // unix milliseconds
	Height    float64 `dynamodbav:"height" json:"height"`
}

// PredictionRecord is a cached three-day window of predictions for a station.
// Date is the first day of the window.
type PredictionRecord struct {
	StationID   string             `dynamodbav:"stationId"`
	Date        string             `dynamodbav:"date"`
	Predictions []CachedPrediction `dynamodbav:"predictions"`
	LastUpdated int64              `dynamodbav:"lastUpdated"`
	TTL         int64              `dynamodbav:"ttl"`
}

// NewPredictionRecord converts fetched prediction events into a cache record.
func NewPredictionRecord(stationID string, windowStart time.Time, events []TideEvent) PredictionRecord {
	predictions := make([]CachedPrediction, 0, len(events))
	for _, e := range events {
		if !e.IsPrediction {
			continue
		}
		typ := "L"
		if e.Kind == KindHighTide {
			typ = "H"
		}
		predictions = append(predictions, CachedPrediction{
			Type:      typ,
			Timestamp: e.Time.UnixMilli(),
			Height:    e.Height,
		})
	}
	return PredictionRecord{
		StationID:   stationID,
		Date:        windowStart.Format("2006-01-02"),
		Predictions: predictions,
	}
}

// Events restores the prediction events in the given location.
func (r *PredictionRecord) Events(loc *time.Location) []TideEvent {
	events := make([]TideEvent, len(r.Predictions))
	for i, p := range r.Predictions {
		kind := KindLowTide
		if p.Type == "H" {
			kind = KindHighTide
		}
		events[i] = TideEvent{
			Kind:         kind,
			Time:         time.UnixMilli(p.Timestamp).In(loc),
			Height:       p.Height,
			IsPrediction: true,
		}
	}
	return events
}

// Validate checks if a PredictionRecord's fields are valid
func (r *PredictionRecord) Validate() error {
	if r.StationID == "" {
		return fmt.Errorf("station ID is required")
	}

	if r.Date == "" {
		return fmt.Errorf("date is required")
	}

	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("invalid date format: %s", r.Date)
	}

	for i, p := range r.Predictions {
		if p.Type != "H" && p.Type != "L" {
			return fmt.Errorf("invalid prediction at index %d: unknown type %q", i, p.Type)
		}
		if p.Timestamp <= 0 {
			return fmt.Errorf("invalid prediction at index %d: invalid timestamp: %d", i, p.Timestamp)
		}
	}

	return nil
}
