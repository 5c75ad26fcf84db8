// Package ffmpeg converts finished downloads: extracting audio, or remuxing concatenated HLS segments into mp4.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-fetcher"
)

var (
	ErrNoOutput = errors.New("ffmpeg produced no output")
)

type Config struct {
	FfmpegBinPath  string
	FfprobeBinPath string
	// KeepSource keeps the downloaded file after a successful conversion.
	KeepSource bool
}

type ProgressCallback func(transcoder.Progress)

type Converter struct {
	config   Config
	progress ProgressCallback
}

func New(config Config, progress ProgressCallback) *Converter {
	return &Converter{config: config, progress: progress}
}

// Options builds the ffmpeg options for h: drop the video for audio-only, otherwise copy the streams as they are.
func Options(h video_fetcher.Handoff) *ffmpeg.Options {
	yes := true
	opts := &ffmpeg.Options{Overwrite: &yes}
	if h.AudioOnly {
		opts.SkipVideo = &yes
	} else {
		codec := "copy"
		opts.VideoCodec = &codec
		opts.AudioCodec = &codec
	}
	return opts
}

func (c *Converter) Convert(ctx context.Context, h video_fetcher.Handoff) (string, error) {
	logger := video_fetcher.Logger(ctx).Sugar().Named("ffmpeg")
	output := h.TargetPath()
	logger.Infof("converting %v to %v", h.SourcePath, output)

	ffmpegCfg := &ffmpeg.Config{
		ProgressEnabled: true,
		FfmpegBinPath:   c.config.FfmpegBinPath,
		FfprobeBinPath:  c.config.FfprobeBinPath,
	}
	progressChannel, err := ffmpeg.
		New(ffmpegCfg).
		Input(h.SourcePath).
		Output(output).
		Start(Options(h))
	if err != nil {
		return "", fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	// The channel is closed when ffmpeg exits
	for prog := range progressChannel {
		if c.progress != nil {
			c.progress(prog)
		}
		logger.Debugw("progress", "percent", prog.GetProgress(), "time", prog.GetCurrentTime())
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// ffmpeg's exit status isn't reported when progress is enabled, so check the result instead
	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: %v", ErrNoOutput, output)
	}
	if !c.config.KeepSource {
		if err := os.Remove(h.SourcePath); err != nil {
			logger.Warnf("failed to remove %v: %v", h.SourcePath, err)
		}
	}
	return output, nil
}

var _ video_fetcher.PostProcessor = (*Converter)(nil)

// Nop returns a zap-logging PostProcessor that leaves files untouched, for when ffmpeg is unavailable.
func Nop(logger *zap.Logger) video_fetcher.PostProcessor {
	return nopConverter{logger: logger.Sugar()}
}

type nopConverter struct {
	logger *zap.SugaredLogger
}

func (n nopConverter) Convert(_ context.Context, h video_fetcher.Handoff) (string, error) {
	n.logger.Warnf("not converting %v, ffmpeg is not available", h.SourcePath)
	return h.SourcePath, nil
}
