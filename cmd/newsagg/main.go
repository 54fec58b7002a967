package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsagg/pkg/config"
	"github.com/umputun/newsagg/pkg/content"
	"github.com/umputun/newsagg/pkg/enrich"
	"github.com/umputun/newsagg/pkg/headlines"
	"github.com/umputun/newsagg/pkg/ingest"
	"github.com/umputun/newsagg/pkg/nlp"
	"github.com/umputun/newsagg/pkg/scheduler"
	"github.com/umputun/newsagg/pkg/store"
	"github.com/umputun/newsagg/pkg/store/elastic"
	"github.com/umputun/newsagg/pkg/store/sqlite"
	"github.com/umputun/newsagg/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"config file (yaml), defaults are used if not set"`

	Collect struct{} `command:"collect" description:"fetch top headlines and store new articles"`
	Enrich  struct {
		Batches int `long:"batches" default:"1" description:"max batches to process while backlog is full"`
	} `command:"enrich" description:"summarize and categorize stored articles"`
	Server struct {
		Listen   string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
		Schedule bool   `long:"schedule" env:"SCHEDULE" description:"run collect and enrich periodically in the server process"`
	} `command:"server" description:"run query API and RSS server"`
	Check struct{} `command:"check" description:"verify configuration and store connection"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

const defaultScheduleInterval = 30 * time.Minute

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	color.NoColor = color.NoColor || opts.NoColor
	setupLog(opts.Debug)
	lgr.Printf("[DEBUG] starting newsagg %s, version %s", parser.Active.Name, revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Printf("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts, parser.Active.Name)
	cancel()
	if err != nil {
		lgr.Printf("[ERROR] %s failed: %v", parser.Active.Name, err)
		os.Exit(1)
	}
}

// run loads configuration and executes the command
func run(ctx context.Context, opts Opts, command string) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLog(opts.Debug, cfg.Secrets()...)

	if opts.Server.Listen != "" {
		cfg.Server.Listen = opts.Server.Listen
	}

	if err := cfg.RequireStoreCredentials(); err != nil {
		return err
	}
	if command == "collect" || (command == "server" && scheduleEnabled(opts, cfg)) {
		if err := cfg.RequireHeadlinesKey(); err != nil {
			return err
		}
	}

	st, err := makeStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			lgr.Printf("[WARN] failed to close store: %v", err)
		}
	}()

	switch command {
	case "check":
		return runCheck(ctx, cfg, st)
	case "collect":
		stats, err := makeConnector(cfg, st).Run(ctx)
		if err != nil {
			return fmt.Errorf("collect: %w", err)
		}
		lgr.Printf("[INFO] collected %d of %d fetched articles", stats.Accepted, stats.Fetched)
		return nil
	case "enrich":
		return runEnrich(ctx, makePipeline(cfg, st), opts.Enrich.Batches, cfg.Enrichment.BatchSize)
	case "server":
		return runServer(ctx, opts, cfg, st)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// runEnrich processes up to batches enrichment batches, store failures are returned
func runEnrich(ctx context.Context, enricher scheduler.Enricher, batches, batchSize int) error {
	sched := scheduler.NewScheduler(scheduler.Params{
		Enricher:         enricher,
		MaxEnrichBatches: batches,
		BatchSize:        batchSize,
	})
	if err := sched.RunOnce(ctx); err != nil {
		return err
	}
	lgr.Printf("[INFO] enriched articles, %s", sched.Status().Enrich)
	return ctx.Err()
}

// runServer starts http server and optional scheduler, both stop on context cancellation
func runServer(ctx context.Context, opts Opts, cfg *config.Config, st store.Store) error {
	var sched *scheduler.Scheduler
	var status server.StatusProvider
	if scheduleEnabled(opts, cfg) {
		interval := cfg.Schedule.Interval
		if interval <= 0 {
			interval = defaultScheduleInterval
		}
		sched = scheduler.NewScheduler(scheduler.Params{
			Ingester:         makeConnector(cfg, st),
			Enricher:         makePipeline(cfg, st),
			Interval:         interval,
			MaxEnrichBatches: 10,
			BatchSize:        cfg.Enrichment.BatchSize,
		})
		status = sched
	}

	srv := server.New(cfg, st, status, revision, opts.Debug)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if sched != nil {
		g.Go(func() error {
			sched.Start(gctx)
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	lgr.Printf("[INFO] shutdown complete")
	return nil
}

// runCheck reports store state and configured providers
func runCheck(ctx context.Context, cfg *config.Config, st store.Store) error {
	count, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("count articles: %w", err)
	}
	opts, err := st.FilterOptions(ctx)
	if err != nil {
		return fmt.Errorf("filter options: %w", err)
	}
	lgr.Printf("[INFO] store %s/%s is reachable, %d articles, %d sources, %d categories",
		cfg.Store.Backend, cfg.Store.Index, count, len(opts.Sources), len(opts.Categories))

	if err := cfg.RequireHeadlinesKey(); err != nil {
		lgr.Printf("[WARN] collect will fail: %v", err)
	}
	summarizer, classifier := makeModels(cfg)
	if summarizer == nil || classifier == nil {
		lgr.Printf("[WARN] no model provider configured, enrichment uses fallbacks only")
	}
	return nil
}

func scheduleEnabled(opts Opts, cfg *config.Config) bool {
	return opts.Server.Schedule || cfg.Schedule.Interval > 0
}

func makeStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return store.New(ctx, store.Config{
		Backend: cfg.Store.Backend,
		Index:   cfg.Store.Index,
		Elastic: elastic.Config{
			Addresses:  cfg.Store.Elastic.Addresses,
			CloudID:    cfg.Store.Elastic.CloudID,
			Username:   cfg.Store.Elastic.Username,
			Password:   cfg.Store.Elastic.Password,
			Timeout:    cfg.Store.Elastic.Timeout,
			MaxRetries: cfg.Store.Elastic.MaxRetries,
		},
		SQLite: sqlite.Config{DSN: cfg.Store.SQLite.DSN, MaxOpenConns: cfg.Store.SQLite.MaxOpenConns},
	})
}

func makeConnector(cfg *config.Config, st store.Store) *ingest.Connector {
	var extractor ingest.Extractor
	if cfg.Extraction.Enabled {
		extractor = content.NewExtractor(cfg.Extraction.Timeout, cfg.Extraction.UserAgent)
	}
	return ingest.New(st, makeFeed(cfg), extractor, ingest.Params{
		Categories: cfg.Headlines.Categories,
		DedupByURL: cfg.Headlines.DedupByURL,
	})
}

func makeFeed(cfg *config.Config) ingest.Feed {
	if cfg.Headlines.Source == "rss" {
		return headlines.NewRSS(headlines.RSSParams{
			Feeds:     cfg.Headlines.Feeds,
			PageSize:  cfg.Headlines.PageSize,
			Timeout:   cfg.Headlines.Timeout,
			UserAgent: cfg.Extraction.UserAgent,
		})
	}
	return headlines.NewNewsAPI(headlines.NewsAPIParams{
		Endpoint: cfg.Headlines.Endpoint,
		APIKey:   cfg.Headlines.APIKey,
		Language: cfg.Headlines.Language,
		Country:  cfg.Headlines.Country,
		PageSize: cfg.Headlines.PageSize,
		Timeout:  cfg.Headlines.Timeout,
	})
}

func makePipeline(cfg *config.Config, st store.Store) *enrich.Pipeline {
	summarizer, classifier := makeModels(cfg)
	return enrich.New(st, summarizer, classifier, enrich.Params{
		BatchSize:          cfg.Enrichment.BatchSize,
		HypothesisTemplate: cfg.Enrichment.HypothesisTemplate,
	})
}

// makeModels returns model clients for configured provider, both nil for provider none
func makeModels(cfg *config.Config) (enrich.Summarizer, enrich.Classifier) {
	switch cfg.Enrichment.Provider {
	case "huggingface":
		hf := nlp.NewHFClient(nlp.HFParams{
			Endpoint:        cfg.Enrichment.HuggingFace.Endpoint,
			Token:           cfg.Enrichment.HuggingFace.Token,
			SummaryModel:    cfg.Enrichment.HuggingFace.SummaryModel,
			ClassifierModel: cfg.Enrichment.HuggingFace.ClassifierModel,
			Timeout:         cfg.Enrichment.HuggingFace.Timeout,
		})
		return hf, hf
	case "openai":
		llm := nlp.NewLLMClient(nlp.LLMParams{
			Endpoint: cfg.Enrichment.LLM.Endpoint,
			APIKey:   cfg.Enrichment.LLM.APIKey,
			Model:    cfg.Enrichment.LLM.Model,
			Timeout:  cfg.Enrichment.LLM.Timeout,
		})
		return llm, llm
	default:
		return nil, nil
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
