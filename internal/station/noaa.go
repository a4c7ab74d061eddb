package station

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/moneytides/backend-go/internal/models"
)

const stationListPath = "/mdapi/prod/webapi/tidepredstations.json"

type noaaStationList struct {
	Stations []noaaStation `json:"stationList"`
}

type noaaStation struct {
	ID           string  `json:"stationId"`
	Name         string  `json:"name"`
	State        string  `json:"state"`
	Region       string  `json:"region"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	TimeZoneCorr string  `json:"timeZoneCorr"`
	Level        string  `json:"level"`
	StationType  string  `json:"stationType"`
}

func (f *NOAAStationFinder) fetchStations(ctx context.Context) ([]models.Station, error) {
	resp, err := f.httpClient.Get(ctx, stationListPath)
	if err != nil {
		return nil, fmt.Errorf("fetching stations: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetching stations: unexpected status %d", resp.StatusCode)
	}

	var list noaaStationList
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	stations := make([]models.Station, len(list.Stations))
	for i, s := range list.Stations {
		stations[i] = models.Station{
			ID:             s.ID,
			Name:           s.Name,
			State:          optional(s.State),
			Region:         optional(s.Region),
			Latitude:       s.Lat,
			Longitude:      s.Lon,
			Source:         models.SourceNOAA,
			Capabilities:   []string{"TIDE_PREDICTIONS"},
			TimeZoneOffset: parseTimeZoneOffset(s.TimeZoneCorr),
			Level:          optional(s.Level),
			StationType:    optional(s.StationType),
		}
	}

	return stations, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseTimeZoneOffset(tzCorr string) int {
	offset, err := strconv.Atoi(tzCorr)
	if err != nil {
		return 0
	}
	return offset * 3600 // Convert hours to seconds
}
