package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/josephgoksu/StoryWing/internal/config"
)

const envPrefix = "STORYWING"

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	config.SetDefaults()
	viper.SetEnvPrefix(envPrefix) // e.g., STORYWING_SERVER_PORT
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if flag := viper.GetString("config"); flag != "" {
		viper.SetConfigFile(flag)
	} else {
		viper.SetConfigName(config.ConfigName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if dir, err := config.GetGlobalConfigDir(); err == nil {
			viper.AddConfigPath(dir)
		}
	}

	setupLogging(viper.GetBool("verbose"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("could not read config file", "error", err)
		}
		return
	}
	slog.Debug("using config file", "path", viper.ConfigFileUsed())
}

// setupLogging installs a text handler on stderr; verbose enables debug.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
