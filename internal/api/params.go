package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/moneytides/backend-go/internal/models"
)

// DateLayout is the civil date format accepted and returned by the API.
const DateLayout = "2006-01-02"

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}

// InvalidParameterError names the query parameter that could not be parsed.
type InvalidParameterError struct {
	Name  string
	Value string
}

func (e InvalidParameterError) Error() string {
	return fmt.Sprintf("Invalid %s: %q", e.Name, e.Value)
}

// ParseCoordinates reads lat and lon. Both absent yields 0, 0 and no error.
func ParseCoordinates(params map[string]string) (float64, float64, error) {
	latStr, hasLat := params["lat"]
	lonStr, hasLon := params["lon"]

	if !hasLat && !hasLon {
		return 0, 0, nil
	}
	if !hasLat || !hasLon {
		return 0, 0, InvalidCoordinatesError{}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, InvalidParameterError{Name: "lat", Value: latStr}
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, InvalidParameterError{Name: "lon", Value: lonStr}
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, InvalidCoordinatesError{}
	}

	return lat, lon, nil
}

// ParseDate reads a YYYY-MM-DD civil date. An empty value means today in loc.
func ParseDate(value string, now time.Time, loc *time.Location) (time.Time, error) {
	if value == "" {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, InvalidParameterError{Name: "date", Value: value}
	}
	return date, nil
}

// ParseInstant reads an RFC 3339 timestamp. An empty value means now.
func ParseInstant(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, InvalidParameterError{Name: "at", Value: value}
	}
	return at, nil
}

// ParseLimit reads a positive result count, falling back to def.
func ParseLimit(value string, def int) int {
	if limit, err := strconv.Atoi(value); err == nil && limit > 0 {
		return limit
	}
	return def
}

// ParseStationQuery builds a timeline query from stationId, date, lat and lon.
func ParseStationQuery(params map[string]string, now time.Time, loc *time.Location) (models.StationQuery, error) {
	stationID := params["stationId"]
	if stationID == "" {
		return models.StationQuery{}, InvalidParameterError{Name: "stationId", Value: stationID}
	}

	date, err := ParseDate(params["date"], now, loc)
	if err != nil {
		return models.StationQuery{}, err
	}

	lat, lon, err := ParseCoordinates(params)
	if err != nil {
		return models.StationQuery{}, err
	}

	return models.StationQuery{
		StationID: stationID,
		Date:      date,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}
