// Package config loads settings from an optional YAML file and FETCH_VIDEO_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	WebDriverPort     int           `yaml:"webdriver_port" env:"FETCH_VIDEO_WEBDRIVER"`
	InvidiousInstance string        `yaml:"invidious_instance" env:"FETCH_VIDEO_INVIDIOUS_INSTANCE" env-default:"https://invidious.privacyredirect.com"`
	PreferInvidious   bool          `yaml:"prefer_invidious" env:"FETCH_VIDEO_PREFER_INVIDIOUS"`
	AudioFormat       string        `yaml:"audio_format" env:"FETCH_VIDEO_AUDIO_FORMAT" env-default:"mp3"`
	TargetDir         string        `yaml:"target_dir" env:"FETCH_VIDEO_TARGET_DIR" env-default:"."`
	TargetFile        string        `yaml:"target_file" env:"FETCH_VIDEO_TARGET_FILE" env-default:"{{.Title}}.{{.Ext}}"`
	HistoryPath       string        `yaml:"history_path" env:"FETCH_VIDEO_HISTORY"`
	SegmentRate       int           `yaml:"segment_rate" env:"FETCH_VIDEO_SEGMENT_RATE"`
	UserAgent         string        `yaml:"user_agent" env:"FETCH_VIDEO_USER_AGENT"`
	HTTPTimeout       time.Duration `yaml:"http_timeout" env:"FETCH_VIDEO_HTTP_TIMEOUT"`
	Ffmpeg            FfmpegConfig  `yaml:"ffmpeg"`
}

type FfmpegConfig struct {
	FfmpegBinPath  string `yaml:"ffmpeg_path" env:"FETCH_VIDEO_FFMPEG" env-default:"ffmpeg"`
	FfprobeBinPath string `yaml:"ffprobe_path" env:"FETCH_VIDEO_FFPROBE" env-default:"ffprobe"`
}

// Load reads the YAML file at path if it isn't empty, then applies the environment and defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Usage describes the environment variables that Load understands.
func Usage() string {
	var cfg Config
	usage, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return usage
}
