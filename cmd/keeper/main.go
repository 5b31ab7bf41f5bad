package main

import (
	"context"
	"flag"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/takepile/pilekeeper/config"
	"github.com/takepile/pilekeeper/internal/adapters/chain"
	"github.com/takepile/pilekeeper/internal/adapters/notify"
	"github.com/takepile/pilekeeper/internal/adapters/storage"
	"github.com/takepile/pilekeeper/internal/application/engine"
	"github.com/takepile/pilekeeper/internal/application/liquidation"
	"github.com/takepile/pilekeeper/internal/application/trigger"
	"github.com/takepile/pilekeeper/internal/domain"
	"github.com/takepile/pilekeeper/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one pass per pipeline and exit")
	bot := flag.String("bot", "both", "which pipeline to run: both|liquidation|limit")
	table := flag.Bool("table", false, "print full position/order tables (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("pilekeeper starting",
		"config", *configPath,
		"bot", *bot,
		"liquidation_interval", cfg.LiquidationInterval(),
		"trigger_interval", cfg.TriggerInterval(),
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		slog.Error("failed to connect to RPC", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	signers, err := chain.ParseSigners(os.Getenv("PRIVATE_KEYS"), client.ChainID())
	if err != nil {
		slog.Error("failed to parse PRIVATE_KEYS", "err", err)
		os.Exit(1)
	}

	submitter, err := chain.NewSubmitter(client, signers, chain.SubmitterConfig{
		GasPrice:       big.NewInt(cfg.Chain.GasPriceWei),
		GasLimit:       cfg.Chain.GasLimit,
		ConfirmTimeout: cfg.ConfirmTimeout(),
	})
	if err != nil {
		slog.Error("failed to build submitter", "err", err)
		os.Exit(1)
	}

	driver := common.HexToAddress(cfg.Chain.DriverAddress)
	piles := pileSource(cfg, client, driver)
	balances := chain.NewPassReader(client, driver)

	store, err := storage.NewStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table)

	liqEngine := liquidation.New(
		liquidation.Config{
			FromBlock: cfg.Chain.FromBlock,
			Workers:   cfg.Keeper.HealthWorkers,
		},
		client, piles, client, submitter, balances, store, notifier,
	)
	trigEngine := trigger.New(
		trigger.Config{
			FromBlock:     cfg.Chain.FromBlock,
			MaxAttempts:   cfg.Keeper.MaxTriggerAttempts,
			AlwaysTrigger: cfg.Keeper.AlwaysTrigger,
		},
		client, piles, client, submitter, store, balances, store, notifier, submitter,
	)

	var runners []*engine.Runner
	if *bot == "both" || *bot == "liquidation" {
		runners = append(runners,
			engine.NewRunner("liquidation", cfg.LiquidationInterval(), liqEngine.RunPass))
	}
	if *bot == "both" || *bot == "limit" {
		runners = append(runners,
			engine.NewRunner("limit", cfg.TriggerInterval(), trigEngine.RunPass))
	}
	if len(runners) == 0 {
		slog.Error("unknown -bot value", "bot", *bot)
		os.Exit(1)
	}

	if *once {
		for _, r := range runners {
			if err := r.RunOnce(ctx); err != nil {
				slog.Error("pass failed", "err", err)
				os.Exit(1)
			}
		}
		slog.Info("pilekeeper done")
		return
	}

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func(r *engine.Runner) {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				slog.Error("runner exited with error", "err", err)
				cancel()
			}
		}(r)
	}
	wg.Wait()

	slog.Info("pilekeeper stopped cleanly")
}

// pileSource picks between the statically configured pile list and on-chain
// enumeration from the driver's TakepileCreated events.
func pileSource(cfg *config.Config, client *chain.Client, driver common.Address) ports.PileSource {
	if len(cfg.Keeper.Piles) > 0 {
		piles := make([]domain.Pile, len(cfg.Keeper.Piles))
		for i, p := range cfg.Keeper.Piles {
			piles[i] = domain.Pile{
				Address: common.HexToAddress(p.Address),
				Name:    p.Name,
				Symbol:  p.Symbol,
			}
		}
		return chain.NewStaticRegistry(piles)
	}
	return chain.NewDriverRegistry(client, driver, cfg.Chain.FromBlock)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
