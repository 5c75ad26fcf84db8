package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert := assert_.New(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(0, cfg.WebDriverPort)
	assert.Equal("https://invidious.privacyredirect.com", cfg.InvidiousInstance)
	assert.Equal("mp3", cfg.AudioFormat)
	assert.Equal(".", cfg.TargetDir)
	assert.Equal("{{.Title}}.{{.Ext}}", cfg.TargetFile)
	assert.Equal("ffmpeg", cfg.Ffmpeg.FfmpegBinPath)
	assert.Equal(time.Duration(0), cfg.HTTPTimeout)
}

func TestEnvironment(t *testing.T) {
	assert := assert_.New(t)
	t.Setenv("FETCH_VIDEO_WEBDRIVER", "4444")
	t.Setenv("FETCH_VIDEO_INVIDIOUS_INSTANCE", "https://yt.example.org")
	t.Setenv("FETCH_VIDEO_HTTP_TIMEOUT", "30s")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(4444, cfg.WebDriverPort)
	assert.Equal("https://yt.example.org", cfg.InvidiousInstance)
	assert.Equal(30*time.Second, cfg.HTTPTimeout)
}

func TestFileWithEnvironmentOverride(t *testing.T) {
	assert := assert_.New(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
webdriver_port: 9515
audio_format: ogg
segment_rate: 5
ffmpeg:
  ffmpeg_path: /usr/local/bin/ffmpeg
`), 0644))
	t.Setenv("FETCH_VIDEO_AUDIO_FORMAT", "flac")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(9515, cfg.WebDriverPort)
	assert.Equal("flac", cfg.AudioFormat)
	assert.Equal(5, cfg.SegmentRate)
	assert.Equal("/usr/local/bin/ffmpeg", cfg.Ffmpeg.FfmpegBinPath)
	assert.Equal("ffprobe", cfg.Ffmpeg.FfprobeBinPath)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert_.Error(t, err)
}
