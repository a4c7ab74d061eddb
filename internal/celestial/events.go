package celestial

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/moneytides/backend-go/internal/models"
)

// ErrNoSolarEvents is returned when the sun does not rise or set on a day.
// That never happens at tide-station latitudes, so callers treat it as fatal.
var ErrNoSolarEvents = errors.New("sun does not rise or set on this date")

// DayEvents holds the solar and lunar events of one civil day.
type DayEvents struct {
	Day        time.Time
	SolarNadir time.Time
	SolarNoon  time.Time
	Sunrise    time.Time
	Sunset     time.Time
	Moonrise   *time.Time
	Moonset    *time.Time
}

// ForDay computes the events for the civil day containing day, in day's
// location.
func ForDay(eph Ephemeris, day time.Time, lat, lon float64) (DayEvents, error) {
	loc := day.Location()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	sun := eph.SunRiseSet(start, lat, lon)
	if !sun.HasRise() || !sun.HasSet() {
		return DayEvents{}, fmt.Errorf("%s at %.4f,%.4f: %w", start.Format("2006-01-02"), lat, lon, ErrNoSolarEvents)
	}

	noon := sun.Rise.Add(sun.Set.Sub(sun.Rise) / 2).In(loc)
	events := DayEvents{
		Day:        start,
		SolarNadir: noon.Add(-12 * time.Hour),
		SolarNoon:  noon,
		Sunrise:    sun.Rise.In(loc),
		Sunset:     sun.Set.In(loc),
	}

	moon := eph.MoonRiseSet(start, lat, lon)
	if moon.HasRise() {
		rise := moon.Rise.In(loc)
		events.Moonrise = &rise
	}
	if moon.HasSet() {
		set := moon.Set.In(loc)
		events.Moonset = &set
	}

	return events, nil
}

// ForWindow computes events for the day before target, target and the day
// after.
func ForWindow(eph Ephemeris, target time.Time, lat, lon float64) ([]DayEvents, error) {
	days := make([]DayEvents, 0, 3)
	for offset := -1; offset <= 1; offset++ {
		events, err := ForDay(eph, target.AddDate(0, 0, offset), lat, lon)
		if err != nil {
			return nil, err
		}
		days = append(days, events)
	}
	return days, nil
}

// SolarEvents returns the day's four solar events. Heights are left at
// models.InvalidHeight for the timeline builder to fill in.
func (d DayEvents) SolarEvents() []models.TideEvent {
	return []models.TideEvent{
		celestialEvent(models.KindSolarNadir, d.SolarNadir),
		celestialEvent(models.KindSunrise, d.Sunrise),
		celestialEvent(models.KindSolarNoon, d.SolarNoon),
		celestialEvent(models.KindSunset, d.Sunset),
	}
}

// LunarEvents returns whichever of moonrise and moonset happen on the day.
func (d DayEvents) LunarEvents() []models.TideEvent {
	var events []models.TideEvent
	if d.Moonrise != nil {
		events = append(events, celestialEvent(models.KindMoonrise, *d.Moonrise))
	}
	if d.Moonset != nil {
		events = append(events, celestialEvent(models.KindMoonset, *d.Moonset))
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return events
}

// Culminations derives lunar noon and nadir from a time-ordered sequence of
// moonrise/moonset events. Each rise followed by a set yields a lunar noon at
// their midpoint, each set followed by a rise a lunar nadir. The final event
// has no successor in the window and yields nothing, as does any pair of
// consecutive events of the same kind.
func Culminations(lunar []models.TideEvent) []models.TideEvent {
	var culminations []models.TideEvent
	for i := 0; i+1 < len(lunar); i++ {
		cur, next := lunar[i], lunar[i+1]

		var kind models.EventKind
		switch {
		case cur.Kind == models.KindMoonrise && next.Kind == models.KindMoonset:
			kind = models.KindLunarNoon
		case cur.Kind == models.KindMoonset && next.Kind == models.KindMoonrise:
			kind = models.KindLunarNadir
		default:
			continue
		}

		mid := cur.Time.Add(next.Time.Sub(cur.Time) / 2)
		culminations = append(culminations, celestialEvent(kind, mid))
	}
	return culminations
}

func celestialEvent(kind models.EventKind, t time.Time) models.TideEvent {
	return models.TideEvent{
		Kind:   kind,
		Time:   t,
		Height: models.InvalidHeight,
	}
}
