package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port    int
	Origins []string
}

// LoadServerConfig reads server.port and server.origins.
func LoadServerConfig() (ServerConfig, error) {
	port := viper.GetInt("server.port")
	if port == 0 {
		port = DefaultPort
	}
	if port < 1 || port > 65535 {
		return ServerConfig{}, fmt.Errorf("invalid server.port %d", port)
	}
	origins := viper.GetStringSlice("server.origins")
	if !viper.IsSet("server.origins") {
		origins = DefaultOrigins
	}
	return ServerConfig{Port: port, Origins: origins}, nil
}
