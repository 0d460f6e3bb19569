// Package config provides centralized configuration for StoryWing.
// All default values are defined here and registered with Viper.
package config

import (
	"github.com/spf13/viper"

	"github.com/josephgoksu/StoryWing/internal/story"
)

const (
	// ConfigName is the config file name without extension (.storywing.yaml).
	ConfigName = ".storywing"

	// DefaultPort is the HTTP port for `storywing serve`.
	DefaultPort = 7420

	// DefaultMinConfidence is the memory confidence floor for prompts.
	DefaultMinConfidence = story.DefaultMemoryConfidence
)

// DefaultOrigins are the browser origins allowed by the CORS middleware.
var DefaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:3000",
}

// SetDefaults registers default values with Viper. Call once at startup.
func SetDefaults() {
	viper.SetDefault("server.port", DefaultPort)
	viper.SetDefault("server.origins", DefaultOrigins)
	viper.SetDefault("memory.minConfidence", DefaultMinConfidence)
	viper.SetDefault("telemetry.apiKey", "")
	viper.SetDefault("telemetry.endpoint", "")
}

// MinConfidence returns the configured memory confidence floor.
func MinConfidence() float64 {
	if !viper.IsSet("memory.minConfidence") {
		return DefaultMinConfidence
	}
	v := viper.GetFloat64("memory.minConfidence")
	if v < 0 || v > 1 {
		return DefaultMinConfidence
	}
	return v
}
