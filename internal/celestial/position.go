package celestial

import "time"

// SkyPosition is the state of the sun and moon at an instant, used for
// above/below-horizon bearings on the map.
type SkyPosition struct {
	Time      time.Time          `json:"time"`
	Sun       HorizontalPosition `json:"sun"`
	Moon      MoonPosition       `json:"moon"`
	MoonLight Illumination       `json:"moonIllumination"`
	MoonPhase string             `json:"moonPhase"`
}

// Position evaluates sun and moon positions at t.
func Position(eph Ephemeris, t time.Time, lat, lon float64) SkyPosition {
	light := eph.MoonIllumination(t)
	return SkyPosition{
		Time:      t,
		Sun:       eph.SunPosition(t, lat, lon),
		Moon:      eph.MoonPosition(t, lat, lon),
		MoonLight: light,
		MoonPhase: PhaseName(light.Phase),
	}
}

var phaseNames = []string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// PhaseName maps a phase in [0,1) to one of the eight named phases, each
// centred on its nominal value.
func PhaseName(phase float64) string {
	idx := int(phase*8+0.5) % 8
	if idx < 0 {
		idx += 8
	}
	return phaseNames[idx]
}
