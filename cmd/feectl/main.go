// ====================================
// File: cmd/feectl/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-paymaster/internal/blockchain/solbc"
	solbcrpc "github.com/rovshanmuradov/solana-paymaster/internal/blockchain/solbc/rpc"
	"github.com/rovshanmuradov/solana-paymaster/internal/config"
	"github.com/rovshanmuradov/solana-paymaster/internal/oracle"
	"github.com/rovshanmuradov/solana-paymaster/internal/utils/logger"
	"github.com/rovshanmuradov/solana-paymaster/internal/utils/metrics"
)

const usage = `Usage: feectl <command> [flags]

Commands:
  estimate  --tx <base64|base58>       estimate the lamport cost of a transaction
  convert   --amount N --mint ADDRESS  convert a token amount to lamports
`

// app - зависимости, общие для всех команд
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *solbc.Client
	metrics *metrics.Collector
	reg     *prometheus.Registry
	prices  oracle.Factory
}

// metricsJob - имя задачи в Pushgateway
const metricsJob = "feectl"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command, args := os.Args[1], os.Args[2:]; command {
	case "estimate":
		err = runEstimate(ctx, args)
	case "convert":
		err = runConvert(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// commonFlags - флаги, которые читаются в конфигурацию
func commonFlags(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to JSON config file")
	fs.StringSlice("rpc-list", nil, "comma separated RPC endpoints")
	fs.String("commitment", config.DefaultCommitment, "commitment level: processed, confirmed, finalized")
	fs.String("oracle-url", config.DefaultOracleURL, "price oracle base URL")
	fs.String("oracle-api-key", "", "price oracle API key")
	fs.Bool("debug-logging", false, "enable debug logging")
	fs.String("log-file", config.DefaultLogFile, "log file path, empty to disable")
	fs.String("metrics-push-url", "", "push prometheus metrics to this Pushgateway when the command exits")
	return fs, configPath
}

func newApp(configPath string, flags *pflag.FlagSet) (*app, error) {
	cfg, err := config.LoadConfig(configPath, flags)
	if err != nil {
		return nil, err
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	// stdout занят результатом команды
	logCfg.Console = os.Stderr
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var (
		collector *metrics.Collector
		reg       *prometheus.Registry
	)
	if cfg.MetricsPushURL != "" {
		reg = prometheus.NewRegistry()
		if collector, err = metrics.NewCollector(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	client, err := solbc.NewClient(cfg.RPCList, log.Logger,
		solbcrpc.WithCommitment(cfg.CommitmentType()),
		solbcrpc.WithMetrics(collector),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}

	prices := oracle.NewFactory(
		oracle.WithBaseURL(cfg.OracleURL),
		oracle.WithAPIKey(cfg.OracleAPIKey),
		oracle.WithHTTPClient(&http.Client{Timeout: cfg.OracleTimeout()}),
		oracle.WithLogger(log.Logger),
		oracle.WithMetrics(collector),
	)

	return &app{
		cfg:     cfg,
		log:     log,
		client:  client,
		metrics: collector,
		reg:     reg,
		prices:  prices,
	}, nil
}

// close отправляет накопленные метрики и сбрасывает логи
func (a *app) close() {
	if a.reg != nil {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := pushMetrics(ctx, a.cfg.MetricsPushURL, a.reg); err != nil {
			a.log.WithComponent("metrics").Warn("Failed to push metrics", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

const pushTimeout = 5 * time.Second

// pushMetrics отправляет метрики одного запуска в Pushgateway
func pushMetrics(ctx context.Context, url string, gatherer prometheus.Gatherer) error {
	return push.New(url, metricsJob).
		Gatherer(gatherer).
		Client(&http.Client{Timeout: pushTimeout}).
		PushContext(ctx)
}
