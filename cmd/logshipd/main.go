// Command logshipd is a reference host for the log shipping engine: it
// reads NDJSON log records from stdin, feeds them to the engine, restarts
// the engine when the config file changes, and serves Prometheus metrics.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logactivity "github.com/LaxarJS/laxar-log-activity"
	logAdapter "github.com/LaxarJS/laxar-log-activity/internal/adapters/log"
	"github.com/LaxarJS/laxar-log-activity/internal/config"
	"github.com/LaxarJS/laxar-log-activity/internal/domain"
	"github.com/LaxarJS/laxar-log-activity/internal/metrics"
	"github.com/LaxarJS/laxar-log-activity/internal/ports"
)

const longHelp = `Ship structured log records from stdin to a remote collector.

Records arrive as one JSON object per line:

  {"id":1,"time":"2024-01-02T03:04:05Z","level":"ERROR","file":"app.go",
   "line":42,"text":"login failed for [0:anonymize]","values":["jane"]}

The engine merges near-duplicates, batches on count and time thresholds,
and retries failed deliveries on a bounded budget. Configuration comes from
a TOML file, LOGSHIP_* environment variables, and flags (in ascending
precedence).`

const exampleUsage = `  logshipd --resource-url https://collector.example.com/logs
  tail -F app.ndjson | logshipd --config /etc/logship/config.toml`

// inputRecord is the NDJSON shape accepted on stdin.
type inputRecord struct {
	ID     int64             `json:"id"`
	Time   time.Time         `json:"time"`
	Level  string            `json:"level"`
	File   string            `json:"file"`
	Line   int               `json:"line"`
	Tags   map[string]string `json:"tags"`
	Text   string            `json:"text"`
	Values []any             `json:"values"`
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.DefaultConfig()
	var (
		cfgPath     string
		metricsAddr string
		watch       bool
	)

	logger := logAdapter.NewZerologAdapter()

	root := &cobra.Command{
		Use:     "logshipd",
		Short:   "Ship structured log records from stdin to a remote collector",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load .env for local development, then resolve
			// file < env < flag precedence.
			_ = godotenv.Load()

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = config.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			loadConfig := func() (config.Config, error) {
				resolved := cfg
				if cfgFile != "" && config.FileExists(cfgFile) {
					fc, err := config.LoadFileConfig(cfgFile)
					if err != nil {
						return resolved, fmt.Errorf("load config: %w", err)
					}
					if err := config.ApplyFileConfig(&resolved, fc, changed); err != nil {
						return resolved, err
					}
				}
				if err := config.ApplyEnvConfig(&resolved, changed); err != nil {
					return resolved, err
				}
				return resolved, nil
			}

			resolved, err := loadConfig()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				go func() {
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						logger.Error("metrics server failed", ports.Err(err))
					}
				}()
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ship := &shipper{logger: logger, m: m}
			if err := ship.start(ctx, resolved); err != nil {
				return err
			}

			if watch && cfgFile != "" {
				watcher := config.NewWatcher(cfgFile, func() {
					reloaded, err := loadConfig()
					if err != nil {
						logger.Error("config reload failed, keeping current engine", ports.Err(err))
						return
					}
					if err := ship.restart(ctx, reloaded); err != nil {
						logger.Error("engine restart failed", ports.Err(err))
						return
					}
					logger.Info("engine restarted on config change")
				}, logger)
				go watcher.Run(ctx)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			doneCh := make(chan struct{})
			go func() {
				defer close(doneCh)
				ship.pump(os.Stdin)
			}()

			select {
			case <-sigCh:
				logger.Info("received signal, stopping...")
			case <-doneCh:
				logger.Info("input closed, stopping...")
			}

			cancel()
			return ship.stop()
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.logship/config.toml)")
	root.Flags().StringVar(&cfg.ResourceURL, "resource-url", cfg.ResourceURL, "collector endpoint (required)")
	root.Flags().StringVar(&cfg.Source, "source", cfg.Source, "payload source identifier (defaults to hostname)")
	root.Flags().StringVar(&cfg.InstanceID, "instance-id", cfg.InstanceID, "instance identifier for the INST tag (defaults to a UUID)")
	root.Flags().StringVar((*string)(&cfg.RequestPolicy), "request-policy", string(cfg.RequestPolicy), "BATCH or PER_MESSAGE")
	root.Flags().IntVar(&cfg.Threshold.Messages, "threshold-messages", cfg.Threshold.Messages, "buffered record count that forces a flush")
	root.Flags().DurationVar(&cfg.Threshold.Interval, "threshold-interval", cfg.Threshold.Interval, "maximum buffering latency before a flush")
	root.Flags().BoolVar(&cfg.Retry.Enabled, "retry", cfg.Retry.Enabled, "retry failed deliveries")
	root.Flags().DurationVar(&cfg.Retry.Interval, "retry-interval", cfg.Retry.Interval, "flat interval between retry passes")
	root.Flags().IntVar(&cfg.Retry.Retries, "retry-budget", cfg.Retry.Retries, "delivery budget per failed payload")
	root.Flags().StringVar(&cfg.HeaderName, "header-name", cfg.HeaderName, "optional correlation header name")
	root.Flags().StringVar(&cfg.HeaderValue, "header-value", cfg.HeaderValue, "optional correlation header value")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout per delivery")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	root.Flags().BoolVar(&watch, "watch", true, "restart the engine when the config file changes")

	if err := root.Execute(); err != nil {
		logger.Error("logshipd", ports.Err(err))
		os.Exit(1)
	}
}

// shipper owns the current engine instance and swaps it on config reload.
type shipper struct {
	logger ports.Logger
	m      *metrics.Metrics

	mu     sync.RWMutex
	engine *logactivity.Engine
	nextID int64
}

func (s *shipper) start(ctx context.Context, cfg config.Config) error {
	engine, err := logactivity.New(cfg,
		logactivity.WithLogger(s.logger),
		logactivity.WithMetrics(s.m),
	)
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	return nil
}

func (s *shipper) restart(ctx context.Context, cfg config.Config) error {
	s.mu.RLock()
	old := s.engine
	s.mu.RUnlock()

	if old != nil {
		if err := old.Stop(); err != nil {
			s.logger.Warn("stopping previous engine", ports.Err(err))
		}
	}
	return s.start(ctx, cfg)
}

func (s *shipper) stop() error {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()
	if engine == nil {
		return nil
	}
	return engine.Stop()
}

// pump reads NDJSON records from r until EOF and feeds them to the engine.
// Malformed lines are skipped; they must not stall the stream.
func (s *shipper) pump(r *os.File) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var in inputRecord
		if err := json.Unmarshal(line, &in); err != nil {
			s.logger.Warn("skipping malformed record", ports.Err(err))
			continue
		}

		s.mu.Lock()
		if in.ID == 0 {
			s.nextID++
			in.ID = s.nextID
		} else if in.ID > s.nextID {
			s.nextID = in.ID
		}
		engine := s.engine
		s.mu.Unlock()

		if in.Time.IsZero() {
			in.Time = time.Now()
		}
		if in.Level == "" {
			in.Level = "INFO"
		}

		err := engine.Ingest(domain.Record{
			ID:     in.ID,
			Time:   in.Time,
			Level:  in.Level,
			File:   in.File,
			Line:   in.Line,
			Tags:   in.Tags,
			Text:   in.Text,
			Values: in.Values,
		})
		if err != nil {
			s.logger.Warn("record not accepted", ports.Err(err), ports.Int64("id", in.ID))
		}
	}

	if err := scanner.Err(); err != nil {
		s.logger.Error("stdin read failed", ports.Err(err))
	}
}
