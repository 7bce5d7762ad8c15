package geodesy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/geodesy"
)

func TestOriginMapsToZeroInItsOwnENUFrame(t *testing.T) {
	lat0, lon0, h0 := 21.0280, 105.8540, 12.3

	origin := geodesy.ECEF(lat0, lon0, h0)
	rot := geodesy.Rotation(lat0, lon0)

	// The origin itself must map to (0,0,0) in its own ENU frame.
	enu := rot.Apply(origin.Sub(origin))
	require.InDelta(t, 0, enu.X, 1e-9)
	require.InDelta(t, 0, enu.Y, 1e-9)
	require.InDelta(t, 0, enu.Z, 1e-9)
}

func TestHaversine3DZeroForIdenticalPoints(t *testing.T) {
	d := geodesy.Haversine3D(21.0, 105.0, 10, 21.0, 105.0, 10)
	require.InDelta(t, 0, d, 1e-9)
}

func TestHaversine3DCombinesHeightInQuadrature(t *testing.T) {
	d := geodesy.Haversine3D(21.0, 105.0, 0, 21.0, 105.0, 10)
	require.InDelta(t, 10, d, 1e-6)
}

func TestMatrixFlattenRoundTrips(t *testing.T) {
	m := geodesy.Rotation(12.3, 45.6)
	flat := m.Flatten()
	back := geodesy.UnflattenMatrix3(flat)
	require.Equal(t, m, back)
}

func TestRotationIsOrthonormal(t *testing.T) {
	m := geodesy.Rotation(10, 20)
	for i := 0; i < 3; i++ {
		row := geodesy.Vector3{X: m[i][0], Y: m[i][1], Z: m[i][2]}
		require.InDelta(t, 1.0, row.Norm()*row.Norm(), 1e-9)
		for j := i + 1; j < 3; j++ {
			dot := m[i][0]*m[j][0] + m[i][1]*m[j][1] + m[i][2]*m[j][2]
			require.InDelta(t, 0.0, dot, 1e-9)
		}
	}
}
