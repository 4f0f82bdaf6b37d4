package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/muwajjih-ai/muwajjih/internal/audit"
	"github.com/muwajjih-ai/muwajjih/internal/config"
	"github.com/muwajjih-ai/muwajjih/internal/engine"
	"github.com/muwajjih-ai/muwajjih/internal/intake"
	"github.com/muwajjih-ai/muwajjih/internal/server"
	"github.com/muwajjih-ai/muwajjih/internal/store"
	"github.com/muwajjih-ai/muwajjih/internal/telemetry"
)

const version = "0.3.0"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "muwajjih.yaml", "Path to Muwajjih config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := buildKV(cfg)
	if err != nil {
		log.Fatalf("failed to open config store: %v", err)
	}
	defer closeKV()

	eng := engine.New(store.NewSource(kv))

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "muwajjih",
		Version:  version,
	})
	if err != nil {
		log.Fatalf("failed to init telemetry: %v", err)
	}
	defer tel.Shutdown(context.Background())

	emitter := buildEmitter(cfg)
	if emitter != nil {
		defer emitter.Close(context.Background())
	}

	var history *intake.History
	if cfg.Intake.Enabled {
		history = intake.NewHistory(cfg.Intake.HistorySize)
		consumer := intake.NewConsumer(cfg.Intake.Brokers, cfg.Intake.Topic, cfg.Intake.GroupID, history)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Printf("intake consumer stopped: %v", err)
			}
		}()
	}

	srv := server.New(cfg, eng, history, emitter, tel)

	log.Printf("Starting Muwajjih %s on %s...", version, addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	case <-ctx.Done():
		log.Printf("shutting down...")
	}
}

func buildKV(cfg *config.Config) (store.KV, func(), error) {
	switch cfg.Store.Backend {
	case "mysql":
		dsn := cfg.Store.DSN
		if env := strings.TrimSpace(cfg.Store.DSNEnv); env != "" {
			if v := os.Getenv(env); v != "" {
				dsn = v
			}
		}
		kv, err := store.NewMySQLKV(dsn)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	default:
		return store.NewFileKV(cfg.Store.Path), func() {}, nil
	}
}

func buildEmitter(cfg *config.Config) *audit.Emitter {
	var sinks []audit.Sink
	for _, sc := range cfg.Audit.Sinks {
		switch strings.ToLower(strings.TrimSpace(sc.Type)) {
		case "file_jsonl":
			s, err := audit.NewFileSink(sc.Path)
			if err != nil {
				log.Printf("audit: skipping file sink: %v", err)
				continue
			}
			sinks = append(sinks, s)
		case "webhook":
			s, err := audit.NewWebhookSink(sc.URL, 2*time.Second)
			if err != nil {
				log.Printf("audit: skipping webhook sink: %v", err)
				continue
			}
			sinks = append(sinks, s)
		}
	}
	if len(sinks) == 0 {
		return nil
	}
	return audit.NewEmitter(audit.EmitterConfig{}, sinks)
}
