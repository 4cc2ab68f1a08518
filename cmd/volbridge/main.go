package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fxvolbridge/internal/config"
	"fxvolbridge/internal/coordinator"
	"fxvolbridge/internal/export"
	"fxvolbridge/internal/gateway"
	"fxvolbridge/internal/model"
	"fxvolbridge/internal/registry"
	"fxvolbridge/internal/settings"
	"fxvolbridge/internal/settings/postgres"
	"fxvolbridge/internal/surface"
	"fxvolbridge/internal/ticker"
	"fxvolbridge/internal/watch"
)

func main() {
	root := &cobra.Command{
		Use:          "volbridge",
		Short:        "FX volatility bridge to the MX3 file-drop",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge daemon",
		RunE:  runDaemon,
	}
	addCommonFlags(runCmd)
	runCmd.Flags().Int("schedule-minute", 15, "minute of the hour for the scheduled export")
	runCmd.Flags().Int("schedule-from-hour", 8, "first hour (inclusive) of the schedule window")
	runCmd.Flags().Int("schedule-to-hour", 16, "last hour (inclusive) of the schedule window")
	runCmd.Flags().Bool("auto-export", true, "enable the scheduled export")
	root.AddCommand(runCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch the surface once and write both export files",
		RunE:  runExport,
	}
	addCommonFlags(exportCmd)
	root.AddCommand(exportCmd)

	pairsCmd := &cobra.Command{
		Use:   "pairs",
		Short: "Print the live pair universe",
		RunE:  runPairs,
	}
	addCommonFlags(pairsCmd)
	root.AddCommand(pairsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("gateway-host", "localhost", "market data gateway host")
	cmd.Flags().Int("gateway-port", 8194, "market data gateway port")
	cmd.Flags().String("output-dir", "./data/marketdata", "shared export directory")
	cmd.Flags().String("positions-file", "./data/fxd_live_opt.csv", "upstream positions file")
	cmd.Flags().String("settings-file", "./data/settings.json", "persisted pair settings path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for shared pair settings (optional)")
	cmd.Flags().StringSlice("pair", nil, "override the live pair universe (comma-separated)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// components wires the dependency graph shared by all subcommands.
type components struct {
	cfg      config.Config
	logger   *zap.Logger
	mapper   *ticker.Mapper
	store    settings.Store
	registry *registry.Registry
	client   *gateway.Client
	builder  *surface.Builder
	exporter *export.Exporter
	closers  []func()
}

func buildComponents(cmd *cobra.Command) (*components, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	c := &components{cfg: cfg, logger: logger}
	c.mapper = ticker.NewMapper(nil)

	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(cmd.Context(), cfg.PgDSN)
		if err != nil {
			return nil, fmt.Errorf("connect settings store: %w", err)
		}
		c.store = store
		c.closers = append(c.closers, store.Close)
	} else {
		c.store = settings.NewFileStore(cfg.SettingsFile)
	}

	c.registry = registry.New(cfg.PositionsFile, c.mapper, c.store, logger)
	c.client = gateway.NewClient(cfg.GatewayHost, cfg.GatewayPort, logger)
	c.builder = surface.NewBuilder(c.client, c.mapper, logger)
	c.exporter = export.NewExporter(cfg.OutputDir, c.mapper, nil, logger)
	return c, nil
}

func (c *components) close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
	c.logger.Sync()
}

// loadPairs fills the registry from the override flag or the positions feed.
func (c *components) loadPairs() {
	if len(c.cfg.PairOverride) > 0 {
		pairs := make([]model.Pair, 0, len(c.cfg.PairOverride))
		for _, symbol := range c.cfg.PairOverride {
			pairs = append(pairs, model.NewPair(symbol))
		}
		c.registry.SetPairs(pairs)
		return
	}
	c.registry.Load()
	c.registry.Refresh()
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	c, err := buildComponents(cmd)
	if err != nil {
		return err
	}
	defer c.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := watch.NewObserver(c.cfg.OutputDir, c.cfg.PositionsFile, c.logger)

	coord := coordinator.New(
		coordinator.Config{
			ScheduleMinute: c.cfg.ScheduleMinute,
			FromHour:       c.cfg.ScheduleFromHour,
			ToHour:         c.cfg.ScheduleToHour,
			AutoExport:     c.cfg.AutoExport,
		},
		c.client, c.builder, c.exporter, c.registry, observer, c.logger, nil,
	)

	c.logger.Info("volbridge start",
		zap.String("gateway", fmt.Sprintf("%s:%d", c.cfg.GatewayHost, c.cfg.GatewayPort)),
		zap.String("output_dir", c.cfg.OutputDir),
		zap.String("positions_file", c.cfg.PositionsFile),
		zap.Bool("auto_export", c.cfg.AutoExport),
	)

	if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	c, err := buildComponents(cmd)
	if err != nil {
		return err
	}
	defer c.close()
	defer c.client.Close()

	c.loadPairs()
	if len(c.registry.Pairs()) == 0 {
		return fmt.Errorf("no live pairs configured")
	}

	if !c.client.Connect() {
		return fmt.Errorf("cannot connect to market data gateway at %s:%d", c.cfg.GatewayHost, c.cfg.GatewayPort)
	}

	points, err := c.builder.Build(c.registry.Pairs())
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("fetch produced no points, export skipped")
	}

	for _, kind := range model.ExportKinds {
		if err := c.exporter.Write(kind, points); err != nil {
			return err
		}
	}
	c.registry.Save()
	return nil
}

func runPairs(cmd *cobra.Command, _ []string) error {
	c, err := buildComponents(cmd)
	if err != nil {
		return err
	}
	defer c.close()

	c.loadPairs()
	for _, pair := range c.registry.Pairs() {
		live := "live"
		if !pair.Live {
			live = "off"
		}
		fmt.Printf("%s\tatm=%s\tsmile=%s\t%s\n", pair.Symbol, pair.AtmSource, pair.SmileSource, live)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
