// Package shaders provides the embedded GLSL sources.
package shaders

import _ "embed"

// TerrainVertexShader draws the full-screen quad for the raymarch pass.
//
//go:embed terrain.vert
var TerrainVertexShader string

// TerrainFragmentShader raymarches the terrain and clouds.
//
//go:embed terrain.frag
var TerrainFragmentShader string

// RasterVertexShader transforms physics bodies and imported assets.
//
//go:embed raster.vert
var RasterVertexShader string

// RasterFragmentShader shades rasterized geometry with an optional texture.
//
//go:embed raster.frag
var RasterFragmentShader string
