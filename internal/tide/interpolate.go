package tide

import (
	"sort"
	"time"

	"github.com/moneytides/backend-go/internal/models"
)

// interpolateHeight returns the height of the prediction curve at t, or
// models.InvalidHeight when t is not bracketed by two predictions.
// predictions must be sorted ascending by time.
func interpolateHeight(predictions []models.TideEvent, t time.Time) float64 {
	// First index whose time is >= t.
	idx := sort.Search(len(predictions), func(i int) bool {
		return !predictions[i].Time.Before(t)
	})

	if idx < len(predictions) && predictions[idx].Time.Equal(t) {
		return predictions[idx].Height
	}

	preceding := idx - 1
	upcoming := preceding + 1
	if preceding < 0 || upcoming >= len(predictions) {
		return models.InvalidHeight
	}

	p1, p2 := predictions[preceding], predictions[upcoming]
	if t.Before(p1.Time) || t.After(p2.Time) {
		return models.InvalidHeight
	}

	span := p2.Time.Sub(p1.Time)
	ratio := float64(t.Sub(p1.Time)) / float64(span)
	return models.RoundHeight(p1.Height + (p2.Height-p1.Height)*ratio)
}

// HeightAt interpolates the tide height at an arbitrary instant from the
// timeline's predictions.
func HeightAt(timeline *models.Timeline, at time.Time) float64 {
	if timeline == nil {
		return models.InvalidHeight
	}
	return interpolateHeight(timeline.Predictions(), at)
}
