// Command baliusd wires together the runtime facade, its capability
// backends and a small cobra CLI around them, matching
// cmd/synnergy/main.go's root-command-plus-subcommands shape and
// cmd/explorer/main.go's .env-then-viper bootstrap.
//
// A real chain-sync driver and request transport (JSON-RPC server,
// gRPC gateway) are out of scope for this module (spec.md §1): this
// binary registers the configured workers and either idles (run) or
// issues a single request/registration and exits, the same
// single-shot-mock style cmd/synnergy/main.go uses for its own
// testnet/tokens subcommands.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/txpipe/balius/capability/httpcap"
	"github.com/txpipe/balius/capability/kv"
	"github.com/txpipe/balius/capability/ledger"
	"github.com/txpipe/balius/capability/logger"
	"github.com/txpipe/balius/capability/signer"
	"github.com/txpipe/balius/capability/submit"
	"github.com/txpipe/balius/config"
	"github.com/txpipe/balius/metrics"
	"github.com/txpipe/balius/objectstore"
	"github.com/txpipe/balius/runtime"
	"github.com/txpipe/balius/sandboxhost"
	"github.com/txpipe/balius/store"
)

func main() {
	var configPath string

	root := &cobra.Command{Use: "baliusd"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to baliusd.yaml")

	root.AddCommand(runCmd(&configPath))
	root.AddCommand(workerCmd(&configPath))
	root.AddCommand(requestCmd(&configPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "load configured workers and serve metrics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, rt, m, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := registerConfigured(rt, cfg); err != nil {
				return err
			}

			var metricsSrv *http.Server
			if cfg.Metrics.Enabled {
				var errc <-chan error
				metricsSrv, errc = m.StartServer(cfg.Metrics.ListenAddr)
				log.Infof("metrics listening on %s", cfg.Metrics.ListenAddr)
				go func() {
					if err := <-errc; err != nil {
						log.Errorf("metrics server: %v", err)
					}
				}()
			}

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
			<-sigc

			if metricsSrv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				metrics.ShutdownServer(ctx, metricsSrv)
			}
			return nil
		},
	}
}

func workerCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{Use: "worker"}

	var id, url, workerConfig string
	register := &cobra.Command{
		Use:   "register",
		Short: "register a worker module by id and object-store URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, rt, _, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if id == "" {
				id = uuid.NewString()
			}
			if err := rt.RegisterWorkerFromURL(context.Background(), id, url, []byte(workerConfig)); err != nil {
				return err
			}
			fmt.Printf("registered %s from %s\n", id, url)
			return nil
		},
	}
	register.Flags().StringVar(&id, "id", "", "worker id (generated when omitted)")
	register.Flags().StringVar(&url, "url", "", "object-store URL for the compiled module")
	register.Flags().StringVar(&workerConfig, "config", "{}", "JSON config passed to init")
	cmd.AddCommand(register)

	var removeID string
	remove := &cobra.Command{
		Use:   "remove",
		Short: "remove a loaded worker, preserving its cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, rt, _, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := registerConfigured(rt, cfg); err != nil {
				return err
			}
			rt.RemoveWorker(removeID)
			fmt.Printf("removed %s\n", removeID)
			return nil
		},
	}
	remove.Flags().StringVar(&removeID, "id", "", "worker id")
	cmd.AddCommand(remove)

	list := &cobra.Command{
		Use:   "list",
		Short: "list workers named in the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			for _, w := range cfg.Workers {
				fmt.Printf("%s\t%s\n", w.ID, w.URL)
			}
			return nil
		},
	}
	cmd.AddCommand(list)

	return cmd
}

func requestCmd(configPath *string) *cobra.Command {
	var workerID, method, params string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "issue a single request against a loaded worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, rt, _, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := registerConfigured(rt, cfg); err != nil {
				return err
			}

			resp, err := rt.HandleRequest(workerID, method, []byte(params))
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", resp.Kind, resp.Data)
			return nil
		},
	}
	cmd.Flags().StringVar(&workerID, "worker", "", "worker id")
	cmd.Flags().StringVar(&method, "method", "", "request method")
	cmd.Flags().StringVar(&params, "params", "{}", "JSON request params")
	return cmd
}

// bootstrap loads configuration and assembles a Runtime with whichever
// capability backends the configuration names, defaulting every unset
// slot the way runtime.Builder itself does (spec.md §4.F), except KV: an
// unset kv backend gets the in-memory provider.
func bootstrap(configPath string) (*config.Config, *logrus.Logger, *runtime.Runtime, *metrics.Metrics, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	log := logrus.New()
	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}

	s, err := store.Open(cfg.Store.Path, store.OpaqueCodec{})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	m := metrics.New()
	engine := sandboxhost.NewWasmerEngine()

	builder := runtime.NewBuilder(s, engine, m, log).
		WithObjectStore("file", objectstore.FileBackend{}).
		WithObjectStore("http", objectstore.NewHTTPBackend(30*time.Second)).
		WithObjectStore("https", objectstore.NewHTTPBackend(30*time.Second))

	if kvProvider, err := buildKV(cfg); err != nil {
		return nil, nil, nil, nil, err
	} else if kvProvider != nil {
		builder.WithKV(kvProvider)
	}

	if loggerProvider, err := buildLogger(cfg, log); err != nil {
		return nil, nil, nil, nil, err
	} else if loggerProvider != nil {
		builder.WithLogger(loggerProvider)
	}

	if signerProvider, err := buildSigner(cfg); err != nil {
		return nil, nil, nil, nil, err
	} else if signerProvider != nil {
		builder.WithSigner(signerProvider)
	}

	if ledgerProvider, err := buildLedger(cfg); err != nil {
		return nil, nil, nil, nil, err
	} else if ledgerProvider != nil {
		builder.WithLedger(ledgerProvider)
	}

	if submitProvider := buildSubmit(cfg); submitProvider != nil {
		builder.WithSubmit(submitProvider)
	}

	if cfg.Capabilities.HTTP.Enabled {
		timeout := time.Duration(cfg.Capabilities.HTTP.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		builder.WithHTTP(httpcap.NewHost(&http.Client{Timeout: timeout}))
	}

	return cfg, log, builder.Build(), m, nil
}

func buildKV(cfg *config.Config) (kv.Provider, error) {
	switch cfg.Capabilities.KV.Backend {
	case "", "memory":
		return kv.NewMemory(), nil
	case "pogreb":
		return kv.OpenPogreb(cfg.Capabilities.KV.Path)
	case "sql":
		return kv.OpenSQL(cfg.Capabilities.KV.DSN)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Capabilities.KV.Backend)
	}
}

func buildLogger(cfg *config.Config, log *logrus.Logger) (logger.Provider, error) {
	switch cfg.Capabilities.Logger.Backend {
	case "", "silent":
		return nil, nil
	case "tracing":
		return logger.NewTracing(log), nil
	case "file":
		return logger.OpenFile(cfg.Capabilities.Logger.Path)
	case "sql":
		return logger.OpenSQL(cfg.Capabilities.Logger.DSN)
	default:
		return nil, fmt.Errorf("unknown logger backend %q", cfg.Capabilities.Logger.Backend)
	}
}

// buildSigner loads in_memory key material from "workerID/keyName=hex"
// entries, matching original_source/.../sign/in_memory.rs's hex-decoded
// build-time key config (SPEC_FULL.md §12).
func buildSigner(cfg *config.Config) (signer.Provider, error) {
	if cfg.Capabilities.Signer.Backend == "" {
		return nil, nil
	}
	if cfg.Capabilities.Signer.Backend != "in_memory" {
		return nil, fmt.Errorf("unknown signer backend %q", cfg.Capabilities.Signer.Backend)
	}
	s := signer.NewInMemory()
	for ref, hexKey := range cfg.Capabilities.Signer.Keys {
		workerID, keyName, ok := strings.Cut(ref, "/")
		if !ok {
			return nil, fmt.Errorf("signer key %q must be \"workerID/keyName\"", ref)
		}
		if err := s.LoadHexKey(workerID, keyName, hexKey); err != nil {
			return nil, fmt.Errorf("load signer key %q: %w", ref, err)
		}
	}
	return s, nil
}

func buildLedger(cfg *config.Config) (ledger.Provider, error) {
	switch cfg.Capabilities.Ledger.Backend {
	case "":
		return nil, nil
	case "mock":
		return ledger.NewMock(), nil
	case "grpc":
		return ledger.DialGRPC(cfg.Capabilities.Ledger.Target, cfg.Capabilities.Ledger.Service)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Capabilities.Ledger.Backend)
	}
}

func buildSubmit(cfg *config.Config) submit.Provider {
	switch cfg.Capabilities.Submit.Backend {
	case "mock":
		return submit.NewMock()
	case "http":
		return submit.NewHTTP(&http.Client{Timeout: 30 * time.Second}, cfg.Capabilities.Submit.Endpoint)
	default:
		return nil
	}
}

func registerConfigured(rt *runtime.Runtime, cfg *config.Config) error {
	for _, w := range cfg.Workers {
		if err := rt.RegisterWorkerFromURL(context.Background(), w.ID, w.URL, []byte(w.Config)); err != nil {
			return fmt.Errorf("register worker %q: %w", w.ID, err)
		}
	}
	return nil
}
