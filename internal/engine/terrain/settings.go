// Package terrain holds the raymarched terrain parameters and a CPU preview
// of the heightfield they describe.
package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Octave limits for the fbm loop in the terrain shader.
const (
	MinOctaves = 1
	MaxOctaves = 8
)

// Settings are the lighting, terrain and cloud parameters fed to the
// raymarch shader each frame.
type Settings struct {
	LightDirection mgl32.Vec3
	LightColor     mgl32.Vec3
	Ambient        float32

	BaseFrequency float32
	BaseAmplitude float32
	Persistence   float32
	FlattenPower  float32
	FinalScale    float32
	Octaves       int32

	CloudBaseHeight float32
	CloudThickness  float32
	CloudNoiseScale float32
	CoverageMin     float32
	CoverageMax     float32
	CloudDensity    float32
}

// DefaultSettings returns the startup parameters.
func DefaultSettings() Settings {
	return Settings{
		LightDirection: mgl32.Vec3{0.8, 0.7, -0.5}.Normalize(),
		LightColor:     mgl32.Vec3{1.0, 0.95, 0.85},
		Ambient:        0.15,

		BaseFrequency: 0.2,
		BaseAmplitude: 1.5,
		Persistence:   0.45,
		FlattenPower:  1.8,
		FinalScale:    2.5,
		Octaves:       5,

		CloudBaseHeight: 10,
		CloudThickness:  12,
		CloudNoiseScale: 0.4,
		CoverageMin:     0.6,
		CoverageMax:     0.75,
		CloudDensity:    1.0,
	}
}

// Clamp keeps the settings inside the ranges the shader handles.
func (s *Settings) Clamp() {
	s.CoverageMax = max(s.CoverageMax, s.CoverageMin+0.01)
	s.Octaves = min(max(s.Octaves, MinOctaves), MaxOctaves)
	switch l := s.LightDirection.Len(); {
	case l == 0:
		s.LightDirection = mgl32.Vec3{0, 1, 0}
	case math.Abs(float64(l)-1) > 1e-5:
		// Unit vectors are left alone so repeated clamping is stable.
		s.LightDirection = s.LightDirection.Normalize()
	}
}

// Uniform names shared with shaders/terrain.frag.
const (
	UniformTime        = "u_time"
	UniformResolution  = "u_resolution"
	UniformCamPos      = "u_camPos"
	UniformInvView     = "u_invViewMatrix"
	UniformInvProj     = "u_invProjMatrix"
	UniformLightDir    = "u_lightDir"
	UniformLightColor  = "u_lightColor"
	UniformAmbient     = "u_ambientStrength"
	UniformBaseFreq    = "u_terrain_base_freq"
	UniformBaseAmp     = "u_terrain_base_amp"
	UniformPersistence = "u_terrain_persistence"
	UniformFlatten     = "u_terrain_flatten_power"
	UniformFinalScale  = "u_terrain_final_scale"
	UniformOctaves     = "u_terrain_octaves"
	UniformCloudBase   = "u_cloud_base_height"
	UniformCloudThick  = "u_cloud_thickness"
	UniformCloudNoise  = "u_cloud_noise_scale"
	UniformCoverageMin = "u_cloud_coverage_min"
	UniformCoverageMax = "u_cloud_coverage_max"
	UniformCloudDens   = "u_cloud_density_factor"
)
