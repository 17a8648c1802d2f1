package main

import (
	"context"
	"expvar"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sentryrelay/internal"
	"sentryrelay/webhook"
)

func main() {
	logger := internal.NewLogger("server")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	var reporter internal.Reporter = internal.NopReporter{}
	if config.Relay.SentryDSN != "" {
		reporter, err = internal.NewSentryReporter(config.Relay.SentryDSN, os.Getenv("ENV"))
		if err != nil {
			logger.Fatalf("sentry init: %v", err)
		}
	} else {
		logger.Printf("SENTRY_DSN not set, fault reporting disabled")
	}
	defer reporter.Flush(2 * time.Second)

	environments := internal.NewEnvironmentSet(config.Relay.AllowedEnvironmentList())
	if len(environments.Names()) == 0 {
		logger.Printf("no allowed environments configured, every alert will be skipped")
	}

	ruleEngine, err := internal.NewRuleEngine(internal.RulesConfig{
		Rules:  config.Rules,
		Strict: config.RulesStrict,
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("compile rules: %v", err)
	}

	notifier, err := internal.NewGoogleChatNotifier(
		config.Relay.GoogleChatWebhookURL,
		time.Duration(config.Relay.NotifyTimeoutMS)*time.Millisecond,
		logger,
	)
	if err != nil {
		logger.Fatalf("notifier: %v", err)
	}
	defer notifier.Close()

	mux := http.NewServeMux()

	sentryHandler := webhook.NewSentryHandler(
		environments,
		ruleEngine,
		notifier,
		reporter,
		logger,
		config.Server.MaxBodyBytes,
	)
	mux.Handle(config.Relay.WebhookPath, sentryHandler)
	logger.Printf("sentry webhook enabled on %s", config.Relay.WebhookPath)

	mux.Handle(config.Relay.HealthPath, webhook.HealthHandler{})

	if config.Server.MetricsEnabled {
		mux.Handle(config.Server.MetricsPath, expvar.Handler())
		logger.Printf("metrics enabled on %s", config.Server.MetricsPath)
	}

	handler := internal.NewRateLimitHandler(
		mux,
		config.Server.RateLimitRPS,
		config.Server.RateLimitBurst,
		time.Minute,
	)

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(config.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(config.Server.IdleTimeoutMS) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
