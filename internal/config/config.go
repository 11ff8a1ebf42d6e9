// Package config handles editor configuration loading and management.
package config

import (
	"github.com/Faultbox/terrastage/internal/engine/camera"
	"github.com/Faultbox/terrastage/internal/engine/renderer"
)

// Config holds all editor settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Editor   EditorConfig   `yaml:"editor"`
	Paths    PathsConfig    `yaml:"paths"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Import is a model to load at startup. Set by --import only.
	Import string `yaml:"-"`

	// path is the file the config was loaded from, if any.
	path string
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// EditorConfig holds editing and play mode behaviour.
type EditorConfig struct {
	LockMouseInPlay  bool    `yaml:"lock_mouse_in_play"`
	CheckerFallback  bool    `yaml:"checker_fallback"`
	WatchTextures    bool    `yaml:"watch_textures"`
	ScreenshotDir    string  `yaml:"screenshot_dir"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
	MoveSpeed        float32 `yaml:"move_speed"`
	OrbitSensitivity float32 `yaml:"orbit_sensitivity"`
}

// PathsConfig holds shader, texture and model locations.
type PathsConfig struct {
	TerrainVertex      string   `yaml:"terrain_vertex"`
	TerrainFragment    string   `yaml:"terrain_fragment"`
	RasterVertex       string   `yaml:"raster_vertex"`
	RasterFragment     string   `yaml:"raster_fragment"`
	UseEmbeddedShaders bool     `yaml:"use_embedded_shaders"`
	TextureDirs        []string `yaml:"texture_dirs"`
	TextureExts        []string `yaml:"texture_exts"`
	ModelExts          []string `yaml:"model_exts"`
}

// PhysicsConfig holds simulation stepping settings.
type PhysicsConfig struct {
	Gravity       float32 `yaml:"gravity"`
	MaxSubSteps   int     `yaml:"max_sub_steps"`
	FixedTimeStep float32 `yaml:"fixed_time_step"`
	MaxFrameTime  float32 `yaml:"max_frame_time"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Editor: EditorConfig{
			LockMouseInPlay:  true,
			CheckerFallback:  false,
			WatchTextures:    false,
			ScreenshotDir:    "screenshots",
			MouseSensitivity: camera.DefaultSensitivity,
			MoveSpeed:        camera.DefaultSpeed,
			OrbitSensitivity: camera.DefaultOrbitSensitivity,
		},
		Paths: PathsConfig{
			TerrainVertex:   "shaders/terrain.vert",
			TerrainFragment: "shaders/terrain.frag",
			RasterVertex:    "shaders/raster.vert",
			RasterFragment:  "shaders/raster.frag",
			TextureDirs:     []string{"textures/cube_textures", "textures", "textures/skybox"},
			TextureExts:     []string{".jpg", ".jpeg", ".png", ".bmp", ".tga"},
			ModelExts:       []string{"obj", "gltf", "glb"},
		},
		Physics: PhysicsConfig{
			Gravity:       -9.81,
			MaxSubSteps:   10,
			FixedTimeStep: 1.0 / 60.0,
			MaxFrameTime:  0.1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Renderer converts the settings the render coordinator reads.
func (c *Config) Renderer() renderer.Config {
	rc := renderer.DefaultConfig()
	rc.Width = int32(c.Graphics.Width)
	rc.Height = int32(c.Graphics.Height)

	rc.TerrainVertex = c.Paths.TerrainVertex
	rc.TerrainFragment = c.Paths.TerrainFragment
	rc.RasterVertex = c.Paths.RasterVertex
	rc.RasterFragment = c.Paths.RasterFragment
	rc.EmbeddedShaders = c.Paths.UseEmbeddedShaders
	rc.TextureDirs = c.Paths.TextureDirs
	rc.TextureExts = c.Paths.TextureExts

	rc.LockMouseInPlay = c.Editor.LockMouseInPlay
	rc.CheckerFallback = c.Editor.CheckerFallback
	rc.WatchTextures = c.Editor.WatchTextures
	rc.ScreenshotDir = c.Editor.ScreenshotDir
	rc.MouseSensitivity = c.Editor.MouseSensitivity
	rc.MoveSpeed = c.Editor.MoveSpeed
	rc.OrbitSensitivity = c.Editor.OrbitSensitivity
	return rc
}
