// Package geodesy implements the WGS-84 ECEF conversion and ECEF-to-ENU
// rotation used by the GNSS processor to turn raw fixes into a station-local
// displacement and velocity frame.
package geodesy

import "math"

// WGS-84 ellipsoid constants.
const (
	SemiMajorAxis float64 = 6378137.0
	Flattening    float64 = 1.0 / 298.257223563

	// MeanEarthRadius is used for the haversine great-circle term of the
	// candidate-dispersion distance, not for ECEF conversion.
	MeanEarthRadius float64 = 6371000.0
)

// EccentricitySquared is e² = 2f - f² for the WGS-84 ellipsoid.
var EccentricitySquared = 2*Flattening - Flattening*Flattening

// Vector3 is a plain 3-component vector (ECEF coordinates, ENU coordinates,
// or a velocity in either frame).
type Vector3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Norm returns the Euclidean norm of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Matrix3 is a row-major 3x3 matrix, used for the ECEF->ENU rotation.
type Matrix3 [3][3]float64

// Apply returns R * v.
func (m Matrix3) Apply(v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Flatten returns the matrix's nine scalars in row-major order, for
// persistence.
func (m Matrix3) Flatten() [9]float64 {
	return [9]float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	}
}

// UnflattenMatrix3 reconstructs a Matrix3 from nine row-major scalars.
func UnflattenMatrix3(f [9]float64) Matrix3 {
	return Matrix3{
		{f[0], f[1], f[2]},
		{f[3], f[4], f[5]},
		{f[6], f[7], f[8]},
	}
}

// ECEF converts a WGS-84 geodetic position (degrees, degrees, meters) to
// Earth-Centered Earth-Fixed Cartesian coordinates.
func ECEF(latDeg, lonDeg, h float64) Vector3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	n := SemiMajorAxis / math.Sqrt(1-EccentricitySquared*sinLat*sinLat)

	return Vector3{
		X: (n + h) * cosLat * math.Cos(lon),
		Y: (n + h) * cosLat * math.Sin(lon),
		Z: (n*(1-EccentricitySquared) + h) * sinLat,
	}
}

// Rotation returns the ECEF->ENU rotation matrix anchored at the given
// WGS-84 origin (degrees).
func Rotation(lat0Deg, lon0Deg float64) Matrix3 {
	lat0 := lat0Deg * math.Pi / 180
	lon0 := lon0Deg * math.Pi / 180
	sinLon, cosLon := math.Sin(lon0), math.Cos(lon0)
	sinLat, cosLat := math.Sin(lat0), math.Cos(lat0)

	return Matrix3{
		{-sinLon, cosLon, 0},
		{-sinLat * cosLon, -sinLat * sinLon, cosLat},
		{cosLat * cosLon, cosLat * sinLon, sinLat},
	}
}

// Haversine3D combines the 2-D great-circle distance (mean Earth radius)
// between two WGS-84 points with their height difference in quadrature.
func Haversine3D(lat1, lon1, h1, lat2, lon2, h2 float64) float64 {
	toRad := math.Pi / 180
	lat1r, lon1r := lat1*toRad, lon1*toRad
	lat2r, lon2r := lat2*toRad, lon2*toRad

	dLat := lat2r - lat1r
	dLon := lon2r - lon1r

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distance2D := MeanEarthRadius * c

	dh := h2 - h1
	return math.Sqrt(distance2D*distance2D + dh*dh)
}
