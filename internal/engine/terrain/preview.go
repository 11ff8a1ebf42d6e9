package terrain

import (
	"image"
	"image/color"
	"math"

	perlin "github.com/aquilax/go-perlin"
)

// PreviewSeed fixes the noise so previews only change with the settings.
const PreviewSeed = 1337

// PreviewExtent is the world-space width covered by a preview.
const PreviewExtent = 64.0

// Height samples the terrain heightfield at world position (x, z) with noise.
func Height(p *perlin.Perlin, s Settings, x, z float64) float64 {
	freq := float64(s.BaseFrequency)
	n := p.Noise2D(x*freq, z*freq)

	h := n*float64(s.BaseAmplitude)*0.5 + 0.5
	h = math.Min(math.Max(h, 0), 1)
	h = math.Pow(h, float64(s.FlattenPower))
	return h * float64(s.FinalScale)
}

// NewNoise returns the octave noise generator for s.
func NewNoise(s Settings) *perlin.Perlin {
	persistence := float64(s.Persistence)
	if persistence <= 0 {
		persistence = 0.5
	}
	// go-perlin divides each octave's amplitude by alpha.
	return perlin.NewPerlin(1/persistence, 2, s.Octaves, PreviewSeed)
}

// Preview renders a size x size top-down color map of the heightfield.
func Preview(s Settings, size int) *image.NRGBA {
	size = max(size, 1)
	s.Clamp()
	p := NewNoise(s)

	maxHeight := float64(s.FinalScale)
	if maxHeight <= 0 {
		maxHeight = 1
	}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	step := PreviewExtent / float64(size)
	for y := range size {
		for x := range size {
			h := Height(p, s, float64(x)*step, float64(y)*step) / maxHeight
			img.SetNRGBA(x, y, ramp(h))
		}
	}
	return img
}

// ramp maps a normalized height to a terrain color.
func ramp(h float64) color.NRGBA {
	type stop struct {
		at  float64
		col [3]float64
	}
	stops := [...]stop{
		{0.00, [3]float64{30, 60, 120}},
		{0.15, [3]float64{60, 110, 60}},
		{0.55, [3]float64{110, 100, 80}},
		{0.85, [3]float64{150, 145, 140}},
		{1.00, [3]float64{245, 245, 250}},
	}
	h = math.Min(math.Max(h, 0), 1)
	for i := 1; i < len(stops); i++ {
		if h <= stops[i].at {
			a, b := stops[i-1], stops[i]
			t := (h - a.at) / (b.at - a.at)
			return color.NRGBA{
				R: uint8(a.col[0] + (b.col[0]-a.col[0])*t),
				G: uint8(a.col[1] + (b.col[1]-a.col[1])*t),
				B: uint8(a.col[2] + (b.col[2]-a.col[2])*t),
				A: 255,
			}
		}
	}
	last := stops[len(stops)-1].col
	return color.NRGBA{R: uint8(last[0]), G: uint8(last[1]), B: uint8(last[2]), A: 255}
}
