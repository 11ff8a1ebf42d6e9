package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name      string
		azimuth   float32
		elevation float32
		want      mgl32.Vec3
	}{
		{"zenith", 0, 90, mgl32.Vec3{0, 1, 0}},
		{"south horizon", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"east horizon", 90, 0, mgl32.Vec3{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.azimuth, tt.elevation)
			if !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("SunDirection(%v, %v) = %v, want %v", tt.azimuth, tt.elevation, got, tt.want)
			}
		})
	}
}

func TestSunAnglesRoundTrip(t *testing.T) {
	for _, a := range [][2]float32{{30, 45}, {200, 10}, {359, -20}} {
		dir := SunDirection(a[0], a[1])
		az, el := SunAngles(dir)
		if !mgl32.FloatEqualThreshold(az, a[0], 1e-3) || !mgl32.FloatEqualThreshold(el, a[1], 1e-3) {
			t.Errorf("SunAngles(SunDirection(%v)) = (%v, %v)", a, az, el)
		}
	}

	if az, el := SunAngles(mgl32.Vec3{}); az != 0 || el != 90 {
		t.Errorf("zero vector angles = (%v, %v), want (0, 90)", az, el)
	}
}
