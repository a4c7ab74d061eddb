package tide

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	datagetterPath = "/api/prod/datagetter"
	noaaTimeLayout = "2006-01-02 15:04"
	noaaDateLayout = "20060102"
	applicationID  = "MoneyTides"
)

// NOAAFetcher reads high/low predictions from the CO-OPS datagetter.
type NOAAFetcher struct {
	httpClient client.Interface
	location   *time.Location
}

// NewNOAAFetcher returns a fetcher that interprets NOAA local times in loc.
func NewNOAAFetcher(httpClient client.Interface, loc *time.Location) *NOAAFetcher {
	return &NOAAFetcher{
		httpClient: httpClient,
		location:   loc,
	}
}

// FetchPredictions issues one request covering the day before target through
// the day after and returns the extremes in the order NOAA sent them. Every
// failure is a *FetchError; retrying is up to the caller.
func (f *NOAAFetcher) FetchPredictions(ctx context.Context, stationID string, target time.Time) ([]models.TideEvent, error) {
	day := target.In(f.location)
	params := url.Values{}
	params.Add("begin_date", day.AddDate(0, 0, -1).Format(noaaDateLayout))
	params.Add("end_date", day.AddDate(0, 0, 1).Format(noaaDateLayout))
	params.Add("station", stationID)
	params.Add("product", "predictions")
	params.Add("datum", "MLLW")
	params.Add("time_zone", "lst_ldt")
	params.Add("interval", "hilo")
	params.Add("units", "english")
	params.Add("format", "json")
	params.Add("application", applicationID)

	resp, err := f.httpClient.Get(ctx, datagetterPath+"?"+params.Encode())
	if err != nil {
		return nil, NewFetchError(stationID, "fetching predictions", err)
	}

	log.Debug().
		Str("station_id", stationID).
		Str("begin_date", params.Get("begin_date")).
		Str("end_date", params.Get("end_date")).
		Int("status", resp.StatusCode).
		Msg("Fetched predictions from NOAA")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{
			StationID:  stationID,
			StatusCode: resp.StatusCode,
			Message:    "unexpected response",
		}
	}

	var noaaResp models.NoaaResponse
	if err := json.Unmarshal(resp.Body, &noaaResp); err != nil {
		return nil, NewFetchError(stationID, "decoding response", err)
	}
	if noaaResp.Error != nil {
		return nil, NewFetchError(stationID, noaaResp.Error.Message, nil)
	}

	events, err := parsePredictions(noaaResp.Predictions, f.location)
	if err != nil {
		return nil, NewFetchError(stationID, "parsing predictions", err)
	}
	return events, nil
}

func parsePredictions(predictions []models.NoaaPrediction, loc *time.Location) ([]models.TideEvent, error) {
	events := make([]models.TideEvent, 0, len(predictions))
	for _, p := range predictions {
		t, err := time.ParseInLocation(noaaTimeLayout, p.Time, loc)
		if err != nil {
			return nil, fmt.Errorf("parsing time %s: %w", p.Time, err)
		}

		height, err := strconv.ParseFloat(p.Height, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing height %s: %w", p.Height, err)
		}

		var kind models.EventKind
		switch p.Type {
		case "H":
			kind = models.KindHighTide
		case "L":
			kind = models.KindLowTide
		default:
			return nil, fmt.Errorf("unknown tide type %q at %s", p.Type, p.Time)
		}

		events = append(events, models.TideEvent{
			Kind:         kind,
			Time:         t,
			Height:       models.RoundHeight(height),
			IsPrediction: true,
		})
	}
	return events, nil
}
