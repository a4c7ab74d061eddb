package celestial

import (
	"math"
	"time"
)

const (
	rad       = math.Pi / 180
	dayMs     = 1000 * 60 * 60 * 24
	j1970     = 2440588.0
	j2000     = 2451545.0
	obliquity = rad * 23.4397
)

func toJulian(t time.Time) float64 {
	return float64(t.UnixMilli())/dayMs - 0.5 + j1970
}

// toDays returns days since J2000.0.
func toDays(t time.Time) float64 {
	return toJulian(t) - j2000
}

func rightAscension(l, b float64) float64 {
	return math.Atan2(math.Sin(l)*math.Cos(obliquity)-math.Tan(b)*math.Sin(obliquity), math.Cos(l))
}

func declination(l, b float64) float64 {
	return math.Asin(math.Sin(b)*math.Cos(obliquity) + math.Cos(b)*math.Sin(obliquity)*math.Sin(l))
}

// azimuth is measured from south, in radians.
func azimuth(h, phi, dec float64) float64 {
	return math.Atan2(math.Sin(h), math.Cos(h)*math.Sin(phi)-math.Tan(dec)*math.Cos(phi))
}

func altitude(h, phi, dec float64) float64 {
	return math.Asin(math.Sin(phi)*math.Sin(dec) + math.Cos(phi)*math.Cos(dec)*math.Cos(h))
}

func siderealTime(d, lw float64) float64 {
	return rad*(280.16+360.9856235*d) - lw
}

func astroRefraction(h float64) float64 {
	if h < 0 {
		h = 0
	}
	return 0.0002967 / math.Tan(h+0.00312536/(h+0.08901179))
}

func solarMeanAnomaly(d float64) float64 {
	return rad * (357.5291 + 0.98560028*d)
}

func eclipticLongitude(m float64) float64 {
	c := rad * (1.9148*math.Sin(m) + 0.02*math.Sin(2*m) + 0.0003*math.Sin(3*m))
	perihelion := rad * 102.9372
	return m + c + perihelion + math.Pi
}

func sunCoords(d float64) (dec, ra float64) {
	l := eclipticLongitude(solarMeanAnomaly(d))
	return declination(l, 0), rightAscension(l, 0)
}

type moonCoord struct {
	ra   float64
	dec  float64
	dist float64 // km
}

func moonCoords(d float64) moonCoord {
	l := rad * (218.316 + 13.176396*d) // ecliptic longitude
	m := rad * (134.963 + 13.064993*d) // mean anomaly
	f := rad * (93.272 + 13.229350*d)  // mean distance

	lng := l + rad*6.289*math.Sin(m)
	lat := rad * 5.128 * math.Sin(f)

	return moonCoord{
		ra:   rightAscension(lng, lat),
		dec:  declination(lng, lat),
		dist: 385001 - 20905*math.Cos(m),
	}
}

type moonPos struct {
	azimuth          float64
	altitude         float64
	distance         float64
	parallacticAngle float64
}

func moonPosition(t time.Time, lat, lon float64) moonPos {
	lw := rad * -lon
	phi := rad * lat
	d := toDays(t)
	c := moonCoords(d)
	h := siderealTime(d, lw) - c.ra
	alt := altitude(h, phi, c.dec)
	pa := math.Atan2(math.Sin(h), math.Tan(phi)*math.Cos(c.dec)-math.Sin(c.dec)*math.Cos(h))

	return moonPos{
		azimuth:          azimuth(h, phi, c.dec),
		altitude:         alt + astroRefraction(alt),
		distance:         c.dist,
		parallacticAngle: pa,
	}
}
