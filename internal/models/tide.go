package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// InvalidHeight marks a height that could not be interpolated because the
// instant falls outside the predicted range.
const InvalidHeight = -999.0

// EventKind identifies what a timeline event represents.
type EventKind int

const (
	KindHighTide EventKind = iota
	KindLowTide
	KindSunrise
	KindSunset
	KindSolarNoon
	KindSolarNadir
	KindMoonrise
	KindMoonset
	KindLunarNoon
	KindLunarNadir
)

var eventKindNames = [...]string{
	KindHighTide:   "high-tide",
	KindLowTide:    "low-tide",
	KindSunrise:    "sunrise",
	KindSunset:     "sunset",
	KindSolarNoon:  "solar-noon",
	KindSolarNadir: "solar-nadir",
	KindMoonrise:   "moonrise",
	KindMoonset:    "moonset",
	KindLunarNoon:  "lunar-noon",
	KindLunarNadir: "lunar-nadir",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

func (k EventKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(eventKindNames) {
		return nil, fmt.Errorf("unknown event kind: %d", int(k))
	}
	return []byte(eventKindNames[k]), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	for i, name := range eventKindNames {
		if name == string(text) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind: %q", string(text))
}

// IsTide reports whether the kind is a predicted tide extreme.
func (k EventKind) IsTide() bool {
	return k == KindHighTide || k == KindLowTide
}

func (k EventKind) IsSolar() bool {
	switch k {
	case KindSunrise, KindSunset, KindSolarNoon, KindSolarNadir:
		return true
	}
	return false
}

func (k EventKind) IsLunar() bool {
	switch k {
	case KindMoonrise, KindMoonset, KindLunarNoon, KindLunarNadir:
		return true
	}
	return false
}

// MoneyClassification is the day-level verdict, ordered from best to worst.
// The zero value is NotMoney.
type MoneyClassification int

const (
	NotMoney MoneyClassification = iota
	PotentiallyMoney
	KindaMoney
	MostlyMoney
	Money
)

var classificationNames = map[MoneyClassification]string{
	Money:            "money",
	MostlyMoney:      "mostly-money",
	KindaMoney:       "kinda-money",
	PotentiallyMoney: "potentially-money",
	NotMoney:         "not-money",
}

// Classifications lists every verdict from best to worst.
var Classifications = []MoneyClassification{Money, MostlyMoney, KindaMoney, PotentiallyMoney, NotMoney}

func (c MoneyClassification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("MoneyClassification(%d)", int(c))
}

func (c MoneyClassification) MarshalText() ([]byte, error) {
	name, ok := classificationNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown classification: %d", int(c))
	}
	return []byte(name), nil
}

func (c *MoneyClassification) UnmarshalText(text []byte) error {
	for value, name := range classificationNames {
		if name == string(text) {
			*c = value
			return nil
		}
	}
	return fmt.Errorf("unknown classification: %q", string(text))
}

// Better reports whether c ranks above other.
func (c MoneyClassification) Better(other MoneyClassification) bool {
	return c > other
}

// TideEvent is a single point on the timeline: a predicted tide extreme or a
// solar/lunar event carrying an interpolated height.
type TideEvent struct {
	Kind           EventKind           `json:"kind"`
	Time           time.Time           `json:"time"`
	Height         float64             `json:"height"` // feet above MLLW
	IsPrediction   bool                `json:"isPrediction"`
	IsTargetDay    bool                `json:"isTargetDay"`
	Classification MoneyClassification `json:"classification"`
}

// HasHeight reports whether the event carries a usable height.
func (e TideEvent) HasHeight() bool {
	return e.Height != InvalidHeight
}

type tideEventJSON struct {
	Kind           EventKind           `json:"kind"`
	Time           time.Time           `json:"time"`
	Height         *float64            `json:"height"`
	IsPrediction   bool                `json:"isPrediction"`
	IsTargetDay    bool                `json:"isTargetDay"`
	Classification MoneyClassification `json:"classification"`
}

// MarshalJSON writes InvalidHeight as null.
func (e TideEvent) MarshalJSON() ([]byte, error) {
	out := tideEventJSON{
		Kind:           e.Kind,
		Time:           e.Time,
		IsPrediction:   e.IsPrediction,
		IsTargetDay:    e.IsTargetDay,
		Classification: e.Classification,
	}
	if e.HasHeight() {
		height := e.Height
		out.Height = &height
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null or missing height back as InvalidHeight.
func (e *TideEvent) UnmarshalJSON(data []byte) error {
	var in tideEventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = TideEvent{
		Kind:           in.Kind,
		Time:           in.Time,
		Height:         InvalidHeight,
		IsPrediction:   in.IsPrediction,
		IsTargetDay:    in.IsTargetDay,
		Classification: in.Classification,
	}
	if in.Height != nil {
		e.Height = *in.Height
	}
	return nil
}

// Timeline is the merged, time-ordered set of events spanning the day before,
// the target day and the day after for one station.
type Timeline struct {
	StationID        string              `json:"stationId"`
	Date             time.Time           `json:"date"` // local midnight of the target day
	Latitude         float64             `json:"latitude"`
	Longitude        float64             `json:"longitude"`
	Classification   MoneyClassification `json:"classification"`
	ClassifiedEvents []int               `json:"classifiedEvents"`
	Events           []TideEvent         `json:"events"`
}

// Predictions returns the service-sourced tide extremes in timeline order.
func (t *Timeline) Predictions() []TideEvent {
	var predictions []TideEvent
	for _, e := range t.Events {
		if e.IsPrediction {
			predictions = append(predictions, e)
		}
	}
	return predictions
}

// TargetDayEvents returns the events falling on the requested day.
func (t *Timeline) TargetDayEvents() []TideEvent {
	var events []TideEvent
	for _, e := range t.Events {
		if e.IsTargetDay {
			events = append(events, e)
		}
	}
	return events
}

// StationQuery is the input for building a timeline.
type StationQuery struct {
	StationID string
	Date      time.Time
	Latitude  float64
	Longitude float64
}

// HasCoordinates reports whether the caller supplied a position. A station
// sitting exactly on 0,0 is not a tide station.
func (q StationQuery) HasCoordinates() bool {
	return q.Latitude != 0 || q.Longitude != 0
}

func (q StationQuery) Validate() error {
	if q.StationID == "" {
		return fmt.Errorf("station ID is required")
	}
	if q.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if q.Latitude < -90 || q.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", q.Latitude)
	}
	if q.Longitude < -180 || q.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", q.Longitude)
	}
	return nil
}

// RoundHeight rounds a height to two decimal places.
func RoundHeight(h float64) float64 {
	return math.Round(h*100) / 100
}

// NoaaPrediction represents the raw NOAA API prediction response
type NoaaPrediction struct {
	Time   string `json:"t"`    // station local time, "2006-01-02 15:04"
	Height string `json:"v"`    // predicted water level
	Type   string `json:"type"` // H for high, L for low
}

type NoaaResponse struct {
	Predictions []NoaaPrediction `json:"predictions"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
