package proj

import "math"

// WGS84 ellipsoid
const (
	wgs84SemiMajor  = 6378137.0
	wgs84Flattening = 1 / 298.257223563

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Universal Polar Stereographic parameters
const (
	upsScaleFactor  = 0.994
	upsFalseEasting = 2000000.0
	upsFalseNorth   = 2000000.0
)

// PolarStereographic is the ellipsoidal polar stereographic projection on
// WGS84 with the Universal Polar Stereographic parameters. The projection is
// undefined at the opposite pole.
type PolarStereographic struct {
	code  string
	south bool

	e    float64 // eccentricity
	akm1 float64 // 2·a·k0 / sqrt((1+e)^(1+e)·(1-e)^(1-e))
}

// NorthPolarStereographic returns the EPSG:32661 projection
func NorthPolarStereographic() *PolarStereographic {
	return newPolarStereographic(CodeNorthPole, false)
}

// SouthPolarStereographic returns the EPSG:32761 projection
func SouthPolarStereographic() *PolarStereographic {
	return newPolarStereographic(CodeSouthPole, true)
}

func newPolarStereographic(code string, south bool) *PolarStereographic {
	e := math.Sqrt(wgs84Flattening * (2 - wgs84Flattening))
	return &PolarStereographic{
		code:  code,
		south: south,
		e:     e,
		akm1:  2 * wgs84SemiMajor * upsScaleFactor / math.Sqrt(math.Pow(1+e, 1+e)*math.Pow(1-e, 1-e)),
	}
}

func (p *PolarStereographic) Code() string {
	return p.code
}

func (p *PolarStereographic) FromLonLat(lon, lat float64) (x, y float64, ok bool) {
	phi := lat * degToRad
	lam := lon * degToRad
	if p.south {
		phi = -phi
	}
	if phi <= -math.Pi/2+1e-10 || phi > math.Pi/2 {
		return 0, 0, false
	}

	rho := p.akm1 * p.tsfn(phi)
	if math.IsInf(rho, 0) || math.IsNaN(rho) {
		return 0, 0, false
	}

	x = upsFalseEasting + rho*math.Sin(lam)
	if p.south {
		y = upsFalseNorth + rho*math.Cos(lam)
	} else {
		y = upsFalseNorth - rho*math.Cos(lam)
	}
	return x, y, true
}

func (p *PolarStereographic) ToLonLat(x, y float64) (lon, lat float64) {
	dx := x - upsFalseEasting
	dy := y - upsFalseNorth
	rho := math.Hypot(dx, dy)

	pole := 90.0
	if p.south {
		pole = -90.0
	}
	if rho < 1e-9 {
		return 0, pole
	}

	t := rho / p.akm1
	halfE := p.e / 2
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := p.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), halfE))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	if p.south {
		lon = math.Atan2(dx, dy) * radToDeg
		lat = -phi * radToDeg
	} else {
		lon = math.Atan2(dx, -dy) * radToDeg
		lat = phi * radToDeg
	}
	return lon, lat
}

// tsfn is the isometric co-latitude function of the ellipsoid
func (p *PolarStereographic) tsfn(phi float64) float64 {
	es := p.e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), p.e/2)
}
