package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin"

	"github.com/macrat/gistcache/lib-gistcache"
	"github.com/macrat/gistcache/lib-gistcache/logger"
)

var (
	configPath       = kingpin.Flag("config", "Path to configuration file.").Short('c').PlaceHolder("PATH").Envar("GIST_SERVER_CONFIG").ExistingFile()
	listen           = kingpin.Flag("listen", "Address for API and metrics.").Short('l').Default(":8080").Envar("GIST_SERVER_LISTEN").TCP()
	githubToken      = kingpin.Flag("github-token", "Token for requests to the GitHub API.").PlaceHolder("TOKEN").Envar("GIST_SERVER_GITHUB_TOKEN").String()
	metricsNamespace = kingpin.Flag("metrics-namespace", "Namespace of prometheus metrics.").Default("gistcache").Envar("GIST_SERVER_METRICS_NAMESPACE").String()
	logLevel         = kingpin.Flag("log-level", "Logging level.").Default("warn").Envar("GIST_SERVER_LOG_LEVEL").Enum("debug", "info", "warn", "error", "fatal")
)

func loadConfig(path string) (gistcache.Config, error) {
	if path == "" {
		return gistcache.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return gistcache.Config{}, err
	}

	return gistcache.NewConfig(data)
}

func main() {
	kingpin.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal("failed to parse log level", logger.Fields{"level": *logLevel, "reason": err.Error()})
	}
	logger.SetLogger(logger.New(os.Stderr, level))

	config, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", logger.Fields{"path": *configPath, "reason": err.Error()})
	}

	token := *githubToken
	if token == "" {
		token = config.GitHub.Token
	}

	metrics := gistcache.NewMetrics(*metricsNamespace)

	fetcher, err := gistcache.NewGitHubFetcher(config.GitHub.BaseURL, token, config.GitHub.Timeout(), metrics)
	if err != nil {
		logger.Fatal("failed to make GitHub fetcher", logger.Fields{"reason": err.Error()})
	}

	cache, err := gistcache.NewCache[[]gistcache.Gist](config.Cache.TTL(), *config.Cache.MaxSize, config.Cache.CleanupInterval(), metrics)
	if err != nil {
		logger.Fatal("failed to make cache", logger.Fields{"reason": err.Error()})
	}

	server := gistcache.Server{
		Metrics:        metrics,
		Fetcher:        gistcache.NewCachedFetcher(fetcher, cache, metrics),
		Health:         fetcher,
		Cache:          cache,
		DefaultPerPage: config.API.PerPage(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", logger.Fields{"address": (*listen).String()})

	if err := server.ListenAndServe(ctx, *listen); err != nil {
		logger.Fatal("failed to start server", logger.Fields{"reason": err.Error()})
	}
}
