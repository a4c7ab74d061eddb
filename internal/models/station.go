package models

import (
	"context"
	"errors"
	"time"
)

type Source string

const SourceNOAA Source = "NOAA"

// Station is a NOAA tide prediction station.
type Station struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	State          *string  `json:"state,omitempty"`
	Region         *string  `json:"region,omitempty"`
	Distance       float64  `json:"distance"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Source         Source   `json:"source"`
	Capabilities   []string `json:"capabilities"`
	TimeZoneOffset int      `json:"timeZoneOffset"`
	Level          *string  `json:"level,omitempty"`
	StationType    *string  `json:"stationType,omitempty"`
}

// Query builds a timeline query for the station on the given day.
func (s Station) Query(day time.Time) StationQuery {
	return StationQuery{
		StationID: s.ID,
		Date:      day,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	}
}

// ErrStationNotFound is returned by a StationFinder for an unknown station ID.
var ErrStationNotFound = errors.New("station not found")

type StationFinder interface {
	FindStation(ctx context.Context, stationID string) (*Station, error)
	FindNearestStations(ctx context.Context, lat, lon float64, limit int) ([]Station, error)
}
