// Package celestial computes solar and lunar events for a station and day.
//
// Sunrise and sunset come from go-sunrise. Lunar rise/set, sun and moon
// positions and moon illumination use the usual low-precision formulas
// (mean elements plus the largest periodic terms), which are good to a few
// minutes for rise/set times at mid latitudes.
package celestial

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// RiseSet holds rise and set times of a body on a given day. A zero time
// means the event does not happen that day.
type RiseSet struct {
	Rise       time.Time
	Set        time.Time
	AlwaysUp   bool
	AlwaysDown bool
}

func (rs RiseSet) HasRise() bool { return !rs.Rise.IsZero() }
func (rs RiseSet) HasSet() bool  { return !rs.Set.IsZero() }

// HorizontalPosition is an apparent position in degrees. Azimuth is measured
// clockwise from north.
type HorizontalPosition struct {
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}

func (p HorizontalPosition) AboveHorizon() bool {
	return p.Altitude > 0
}

type MoonPosition struct {
	HorizontalPosition
	DistanceKm       float64 `json:"distanceKm"`
	ParallacticAngle float64 `json:"parallacticAngle"`
}

// Illumination describes the moon's lit fraction and phase. Phase runs from
// 0 (new) through 0.5 (full) back to 1.
type Illumination struct {
	Fraction float64 `json:"fraction"`
	Phase    float64 `json:"phase"`
	Angle    float64 `json:"angle"`
}

// Ephemeris is the astronomical surface the calculator depends on.
type Ephemeris interface {
	SunRiseSet(day time.Time, lat, lon float64) RiseSet
	MoonRiseSet(day time.Time, lat, lon float64) RiseSet
	SunPosition(t time.Time, lat, lon float64) HorizontalPosition
	MoonPosition(t time.Time, lat, lon float64) MoonPosition
	MoonIllumination(t time.Time) Illumination
}

// Astronomy is the production Ephemeris.
type Astronomy struct{}

var _ Ephemeris = Astronomy{}

// SunRiseSet returns sunrise and sunset for the calendar day of day, in the
// location of day.
func (Astronomy) SunRiseSet(day time.Time, lat, lon float64) RiseSet {
	loc := day.Location()
	rise, set := sunrise.SunriseSunset(lat, lon, day.Year(), day.Month(), day.Day())
	rs := RiseSet{}
	if !rise.IsZero() {
		rs.Rise = rise.In(loc)
	}
	if !set.IsZero() {
		rs.Set = set.In(loc)
	}
	if rs.Rise.IsZero() && rs.Set.IsZero() {
		if sunAltitudeAt(day.Add(12*time.Hour), lat, lon) > 0 {
			rs.AlwaysUp = true
		} else {
			rs.AlwaysDown = true
		}
	}
	return rs
}

func (Astronomy) SunPosition(t time.Time, lat, lon float64) HorizontalPosition {
	lw := rad * -lon
	phi := rad * lat
	d := toDays(t)
	dec, ra := sunCoords(d)
	h := siderealTime(d, lw) - ra
	return HorizontalPosition{
		Altitude: altitude(h, phi, dec) / rad,
		Azimuth:  northAzimuth(azimuth(h, phi, dec)),
	}
}

func (Astronomy) MoonPosition(t time.Time, lat, lon float64) MoonPosition {
	p := moonPosition(t, lat, lon)
	return MoonPosition{
		HorizontalPosition: HorizontalPosition{
			Altitude: p.altitude / rad,
			Azimuth:  northAzimuth(p.azimuth),
		},
		DistanceKm:       p.distance,
		ParallacticAngle: p.parallacticAngle / rad,
	}
}

func (Astronomy) MoonIllumination(t time.Time) Illumination {
	d := toDays(t)
	sDec, sRA := sunCoords(d)
	m := moonCoords(d)

	const sunDistance = 149598000 // km

	phi := math.Acos(math.Sin(sDec)*math.Sin(m.dec) + math.Cos(sDec)*math.Cos(m.dec)*math.Cos(sRA-m.ra))
	inc := math.Atan2(sunDistance*math.Sin(phi), m.dist-sunDistance*math.Cos(phi))
	angle := math.Atan2(math.Cos(sDec)*math.Sin(sRA-m.ra),
		math.Sin(sDec)*math.Cos(m.dec)-math.Cos(sDec)*math.Sin(m.dec)*math.Cos(sRA-m.ra))

	sign := 1.0
	if angle < 0 {
		sign = -1.0
	}

	return Illumination{
		Fraction: (1 + math.Cos(inc)) / 2,
		Phase:    0.5 + 0.5*inc*sign/math.Pi,
		Angle:    angle,
	}
}

// MoonRiseSet searches from local midnight of day to the next local midnight
// for the moon crossing the horizon, fitting a parabola through altitudes
// sampled every hour. The civil day is 23 or 25 hours long across a DST
// change; crossings at or past the next midnight belong to the following day.
func (Astronomy) MoonRiseSet(day time.Time, lat, lon float64) RiseSet {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	hours := start.AddDate(0, 0, 1).Sub(start).Hours()
	hc := 0.133 * rad
	h0 := moonPosition(start, lat, lon).altitude - hc

	var rise, set float64
	var hasRise, hasSet bool
	var ye float64

	for i := 1.0; i-1 < hours; i += 2 {
		h1 := moonPosition(hoursLater(start, i), lat, lon).altitude - hc
		h2 := moonPosition(hoursLater(start, i+1), lat, lon).altitude - hc

		a := (h0+h2)/2 - h1
		b := (h2 - h0) / 2
		xe := -b / (2 * a)
		ye = (a*xe+b)*xe + h1
		disc := b*b - 4*a*h1
		roots := 0
		var x1, x2 float64

		if disc >= 0 {
			dx := math.Sqrt(disc) / (math.Abs(a) * 2)
			x1 = xe - dx
			x2 = xe + dx
			if math.Abs(x1) <= 1 {
				roots++
			}
			if math.Abs(x2) <= 1 {
				roots++
			}
			if x1 < -1 {
				x1 = x2
			}
		}

		switch roots {
		case 1:
			if i+x1 < hours {
				if h0 < 0 {
					rise, hasRise = i+x1, true
				} else {
					set, hasSet = i+x1, true
				}
			}
		case 2:
			r, st := i+x1, i+x2
			if ye < 0 {
				r, st = i+x2, i+x1
			}
			if r < hours {
				rise, hasRise = r, true
			}
			if st < hours {
				set, hasSet = st, true
			}
		}

		if hasRise && hasSet {
			break
		}
		h0 = h2
	}

	rs := RiseSet{}
	if hasRise {
		rs.Rise = hoursLater(start, rise)
	}
	if hasSet {
		rs.Set = hoursLater(start, set)
	}
	if !hasRise && !hasSet {
		if ye > 0 {
			rs.AlwaysUp = true
		} else {
			rs.AlwaysDown = true
		}
	}
	return rs
}

func hoursLater(t time.Time, h float64) time.Time {
	return t.Add(time.Duration(h * float64(time.Hour)))
}

func sunAltitudeAt(t time.Time, lat, lon float64) float64 {
	return Astronomy{}.SunPosition(t, lat, lon).Altitude
}

// northAzimuth converts a south-based azimuth in radians to degrees from north.
func northAzimuth(az float64) float64 {
	return math.Mod(az/rad+180, 360)
}
