package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"text/tabwriter"

	"github.com/floostack/transcoder"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/video-fetcher"
	"github.com/alanbriolat/video-fetcher/fetch"
	"github.com/alanbriolat/video-fetcher/internal/config"
	"github.com/alanbriolat/video-fetcher/internal/ffmpeg"
	"github.com/alanbriolat/video-fetcher/internal/history"
	"github.com/alanbriolat/video-fetcher/providers"
)

func main() {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = level
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = video_fetcher.WithLogger(ctx, logger)

	app := &cli.App{
		Name:      "fetch-video",
		Usage:     "download a video from a web page",
		ArgsUsage: "URL...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "only-audio",
				Aliases: []string{"x"},
				Usage:   "only keep the audio stream",
			},
			&cli.BoolFlag{
				Name:    "keep-temp-file",
				Aliases: []string{"k"},
				Usage:   "keep the downloaded file after converting it",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debugging information",
			},
			&cli.StringFlag{
				Name:    "audio-format",
				Aliases: []string{"f"},
				Usage:   "convert audio to `FORMAT` (default from config, mp3)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "save the video as `FILE`",
			},
			&cli.IntFlag{
				Name:    "webdriver",
				Usage:   "use the WebDriver listening on `PORT` for sites that need a browser",
				EnvVars: []string{"FETCH_VIDEO_WEBDRIVER"},
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "save downloaded video to `DIR` (default from config, .)",
			},
			&cli.StringFlag{
				Name:  "rule",
				Usage: "skip matching and use the rule called `NAME`",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read settings from YAML `FILE`",
				EnvVars: []string{"FETCH_VIDEO_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				level.SetLevel(zap.DebugLevel)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.ShowAppHelp(c)
			}
			if err := checkOutput(c.String("output"), c.Args().Slice()); err != nil {
				return err
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			fetcher, err := newApplication(ctx, c, cfg)
			if err != nil {
				return err
			}
			defer fetcher.Close()
			for _, pageURL := range c.Args().Slice() {
				if err := fetcher.fetch(ctx, pageURL); err != nil {
					return err
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "rules",
				Usage: "list rules in the order they are tried",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					registry := providers.New(providers.Options{
						InvidiousInstance: cfg.InvidiousInstance,
						PreferInvidious:   cfg.PreferInvidious,
					})
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					for _, p := range registry.Providers() {
						webdriver := ""
						if p.Rule.RequiresWebDriver() {
							webdriver = "(requires --webdriver)"
						}
						fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Rule.Name(), webdriver)
					}
					return w.Flush()
				},
			},
			{
				Name:  "history",
				Usage: "list previous downloads",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if cfg.HistoryPath == "" {
						return errors.New("history is disabled, set history_path or FETCH_VIDEO_HISTORY")
					}
					store, err := history.New(cfg.HistoryPath, logger)
					if err != nil {
						return err
					}
					defer store.Close()
					records, err := store.List()
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					for _, r := range records {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.UpdatedAt.Format("2006-01-02 15:04"), r.Status, r.Provider, r.PageURL, r.OutputPath)
					}
					return w.Flush()
				},
			},
			{
				Name:  "env",
				Usage: "describe the environment variables that configure fetch-video",
				Action: func(c *cli.Context) error {
					fmt.Println(config.Usage())
					return nil
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatal(err.Error())
	}
}

// checkOutput refuses a single output file for several URLs, which would otherwise treat every URL after the first as
// a resume of the first one's file.
func checkOutput(output string, urls []string) error {
	if output != "" && len(urls) > 1 {
		return fmt.Errorf("--output names a single file but %d URLs were given", len(urls))
	}
	return nil
}

// loadConfig reads the config file and environment, then applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("webdriver") {
		cfg.WebDriverPort = c.Int("webdriver")
	}
	if c.IsSet("audio-format") {
		cfg.AudioFormat = c.String("audio-format")
	}
	if c.IsSet("target") {
		cfg.TargetDir = c.String("target")
	}
	return cfg, nil
}

type application struct {
	dispatcher *video_fetcher.Dispatcher
	history    history.Store
	request    video_fetcher.Request
	bars       *progressBars
}

func newApplication(ctx context.Context, c *cli.Context, cfg *config.Config) (*application, error) {
	logger := video_fetcher.Logger(ctx)

	target := video_fetcher.NewTargetConfig()
	target.TargetDir = cfg.TargetDir
	target.OutputFile = c.String("output")
	if err := target.ParseTargetFileTemplate(cfg.TargetFile); err != nil {
		return nil, fmt.Errorf("invalid target_file template: %w", err)
	}

	client := fetch.New(fetch.WithTimeout(cfg.HTTPTimeout), fetch.WithUserAgent(cfg.UserAgent))
	bars := &progressBars{}
	a := &application{
		dispatcher: &video_fetcher.Dispatcher{
			Registry: providers.New(providers.Options{
				InvidiousInstance: cfg.InvidiousInstance,
				PreferInvidious:   cfg.PreferInvidious,
			}),
			Client:        client,
			Target:        target,
			PostProcessor: newPostProcessor(logger, cfg, c.Bool("keep-temp-file"), bars),
			Downloads:     newProgressDownloads(cfg.SegmentRate, bars),
		},
		request: video_fetcher.Request{
			AudioOnly:     c.Bool("only-audio"),
			AudioFormat:   cfg.AudioFormat,
			WebDriverPort: cfg.WebDriverPort,
			Rule:          c.String("rule"),
		},
		bars: bars,
	}
	if cfg.HistoryPath != "" {
		store, err := history.New(cfg.HistoryPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.history = store
	}
	return a, nil
}

func (a *application) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

func (a *application) fetch(ctx context.Context, pageURL string) error {
	logger := video_fetcher.Logger(ctx).Sugar()
	req := a.request
	req.URL = pageURL
	a.bars.reset()
	a.record(ctx, pageURL, func(r *history.Record) {
		r.Status = history.StatusStarted
		r.Attempts++
	})

	result, err := a.dispatcher.Resolve(ctx, req)
	a.record(ctx, pageURL, func(r *history.Record) {
		r.Provider = result.Provider
		r.Title = result.Title
		r.DirectURL = result.Media.DirectURL
		r.Segmented = result.Media.Segmented
		r.Path = result.Path
		r.OutputPath = result.OutputPath
		r.Error = ""
		switch result.Outcome {
		case video_fetcher.OutcomeNoMatch:
			r.Status = history.StatusNoMatch
		case video_fetcher.OutcomeNotFound:
			r.Status = history.StatusNotFound
		case video_fetcher.OutcomeDownloaded:
			r.Status = history.StatusDownloaded
		default:
			r.Status = history.StatusFailed
		}
		if err != nil {
			r.Status = history.StatusFailed
			r.Error = err.Error()
		}
	})
	if err != nil {
		if result.Path != "" {
			logger.Infof("partial download kept at %v, run again to resume", result.Path)
		}
		return err
	}

	switch result.Outcome {
	case video_fetcher.OutcomeNoMatch:
		logger.Warnf("no rule can handle %v", pageURL)
	case video_fetcher.OutcomeNotFound:
		logger.Warnf("the video at %v does not exist", pageURL)
	case video_fetcher.OutcomeDownloaded:
		logger.Infof("saved %v", result.OutputPath)
	}
	return nil
}

// record updates the history entry for pageURL, if history is enabled. Failures are logged, not returned.
func (a *application) record(ctx context.Context, pageURL string, update func(r *history.Record)) {
	if a.history == nil {
		return
	}
	logger := video_fetcher.Logger(ctx).Sugar()
	r, err := a.history.Get(pageURL)
	if errors.Is(err, history.ErrNotFound) {
		r = &history.Record{PageURL: pageURL}
	} else if err != nil {
		logger.Errorf("failed to read history: %v", err)
		return
	}
	update(r)
	if err := a.history.Put(r); err != nil {
		logger.Errorf("failed to write history: %v", err)
	}
}

func newPostProcessor(logger *zap.Logger, cfg *config.Config, keepSource bool, bars *progressBars) video_fetcher.PostProcessor {
	if _, err := exec.LookPath(cfg.Ffmpeg.FfmpegBinPath); err != nil {
		logger.Sugar().Warnf("%v not found, downloads will not be converted", cfg.Ffmpeg.FfmpegBinPath)
		return ffmpeg.Nop(logger)
	}
	return ffmpeg.New(ffmpeg.Config{
		FfmpegBinPath:  cfg.Ffmpeg.FfmpegBinPath,
		FfprobeBinPath: cfg.Ffmpeg.FfprobeBinPath,
		KeepSource:     keepSource,
	}, bars.onConvert)
}

// newProgressDownloads reports download progress through bars.
func newProgressDownloads(segmentRate int, bars *progressBars) video_fetcher.DownloadBuilder {
	return video_fetcher.NewDownloadBuilder().
		WithSegmentRate(segmentRate).
		WithProgressCallback(bars.onBytes).
		WithSegmentCallback(bars.onSegments)
}

// progressBars holds the progress bars of the current URL. Playlists show segments instead of bytes. Bars are
// created on first use.
type progressBars struct {
	bytes    *progressbar.ProgressBar
	segments *progressbar.ProgressBar
	convert  *progressbar.ProgressBar
}

func (p *progressBars) reset() {
	for _, bar := range []*progressbar.ProgressBar{p.bytes, p.segments, p.convert} {
		if bar != nil {
			_ = bar.Finish()
		}
	}
	*p = progressBars{}
}

func (p *progressBars) onBytes(downloaded int64, expected int64) {
	// Playlists report segments instead
	if p.segments != nil {
		return
	}
	if p.bytes == nil {
		p.bytes = progressbar.DefaultBytes(-1, "downloading")
	}
	if expected > 0 && p.bytes.GetMax64() != expected {
		p.bytes.ChangeMax64(expected)
	}
	_ = p.bytes.Set64(downloaded)
}

func (p *progressBars) onSegments(done int, total int) {
	if p.segments == nil {
		p.segments = progressbar.Default(int64(total), "segments")
	}
	_ = p.segments.Set(done)
}

func (p *progressBars) onConvert(progress transcoder.Progress) {
	if p.convert == nil {
		p.convert = progressbar.Default(100, "converting")
	}
	_ = p.convert.Set(int(progress.GetProgress()))
}
