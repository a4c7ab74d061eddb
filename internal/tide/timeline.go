package tide

import (
	"sort"
	"time"

	"github.com/moneytides/backend-go/internal/celestial"
	"github.com/moneytides/backend-go/internal/models"
)

// localMidnight returns midnight in loc of the calendar day written in t.
// The date components are taken as-is so a date parsed in UTC keeps its day.
func localMidnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sortByTime(events []models.TideEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
}

// BuildTimeline merges the predictions with the solar and lunar events of
// days, back-fills interpolated heights, flags the target day and classifies
// it. The result shares no memory with its inputs.
func BuildTimeline(query models.StationQuery, predictions []models.TideEvent, days []celestial.DayEvents, loc *time.Location) *models.Timeline {
	target := localMidnight(query.Date, loc)
	next := target.AddDate(0, 0, 1)

	events := make([]models.TideEvent, 0, len(predictions)+len(days)*8)
	for _, p := range predictions {
		p.IsPrediction = true
		p.Classification = models.NotMoney
		events = append(events, p)
	}

	var lunar []models.TideEvent
	for _, day := range days {
		events = append(events, day.SolarEvents()...)
		lunar = append(lunar, day.LunarEvents()...)
	}

	// Culminations pair each lunar event with the next one, so the
	// rise/set sequence must be in order first.
	sortByTime(lunar)
	events = append(events, lunar...)
	events = append(events, celestial.Culminations(lunar)...)
	sortByTime(events)

	curve := make([]models.TideEvent, 0, len(predictions))
	for _, e := range events {
		if e.IsPrediction {
			curve = append(curve, e)
		}
	}

	for i := range events {
		e := &events[i]
		if !e.IsPrediction {
			e.Height = interpolateHeight(curve, e.Time)
		}
		e.IsTargetDay = !e.Time.Before(target) && e.Time.Before(next)
	}

	verdict := ClassifyDay(events, target)
	timeline := &models.Timeline{
		StationID:        query.StationID,
		Date:             target,
		Latitude:         query.Latitude,
		Longitude:        query.Longitude,
		Classification:   verdict.Classification,
		ClassifiedEvents: []int{},
		Events:           events,
	}
	if verdict.Earned >= 0 && verdict.Classification != models.NotMoney {
		events[verdict.Earned].Classification = verdict.Classification
		timeline.ClassifiedEvents = append(timeline.ClassifiedEvents, verdict.Earned)
	}

	return timeline
}
