package tide

import (
	"sort"
	"time"

	"github.com/moneytides/backend-go/internal/models"
)

// DayClassification is the verdict for a target day and the events it was
// derived from. Indices point into the slice handed to ClassifyDay; -1 means
// absent.
type DayClassification struct {
	Classification models.MoneyClassification
	Highest        int
	Second         int
	// Earned is the event the verdict belongs to: Highest for money and
	// mostly-money, Second for kinda-money and potentially-money.
	Earned int
}

type clockRange struct {
	from, to time.Time
}

func (r clockRange) contains(t time.Time) bool {
	return !t.Before(r.from) && !t.After(r.to)
}

func rangeOn(day time.Time, fromHour, toHour int) clockRange {
	y, m, d := day.Date()
	loc := day.Location()
	return clockRange{
		from: time.Date(y, m, d, fromHour, 0, 0, 0, loc),
		to:   time.Date(y, m, d, toHour, 0, 0, 0, loc),
	}
}

// ClassifyDay ranks the target-day predictions in events by height and
// checks where the top two fall relative to the midday windows of day. The
// second candidate only counts when it is a high tide.
func ClassifyDay(events []models.TideEvent, day time.Time) DayClassification {
	result := DayClassification{
		Classification: models.NotMoney,
		Highest:        -1,
		Second:         -1,
		Earned:         -1,
	}

	var candidates []int
	for i, e := range events {
		if e.IsPrediction && e.IsTargetDay {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return result
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return events[candidates[a]].Height > events[candidates[b]].Height
	})

	result.Highest = candidates[0]
	if len(candidates) > 1 && events[candidates[1]].Kind == models.KindHighTide {
		result.Second = candidates[1]
	}

	money := rangeOn(day, 11, 13)
	kinda := rangeOn(day, 10, 14)
	highest := events[result.Highest].Time

	switch {
	case money.contains(highest):
		result.Classification, result.Earned = models.Money, result.Highest
	case kinda.contains(highest):
		result.Classification, result.Earned = models.MostlyMoney, result.Highest
	case result.Second >= 0 && money.contains(events[result.Second].Time):
		result.Classification, result.Earned = models.KindaMoney, result.Second
	case result.Second >= 0 && kinda.contains(events[result.Second].Time):
		result.Classification, result.Earned = models.PotentiallyMoney, result.Second
	}

	return result
}
