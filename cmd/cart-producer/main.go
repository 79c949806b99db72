package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/YaganovValera/cart-abandonment-producer/internal/app"
	"github.com/YaganovValera/cart-abandonment-producer/internal/config"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/configloader"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options — флаги командной строки.
type options struct {
	configPath  string
	driver      string
	noAgg       bool
	printConfig bool
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "path to YAML config file")
	fs.StringVar(&o.driver, "driver", config.DriverSarama, "kafka client: sarama | kafkago")
	fs.BoolVar(&o.noAgg, "no-agg", false, "disable client-side batching (one record per request)")
	fs.BoolVar(&o.printConfig, "print-config", false, "print the effective configuration on start")
}

// overrides переводит аргументы и явно заданные флаги в ключи конфига.
func (o *options) overrides(fs *pflag.FlagSet, args []string) map[string]interface{} {
	out := map[string]interface{}{
		"stream.destination": args[0],
		"stream.region":      args[1],
	}
	if o.noAgg {
		out["stream.aggregation"] = false
	}
	if fs.Changed("driver") {
		out["stream.driver"] = o.driver
	}
	return out
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "cart-producer <destination> <region>",
		Short: "Synthetic cart abandonment event producer",
		Long: "Generates random cart abandonment events and publishes them\n" +
			"to the <destination> topic on the broker set named <region>.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 1. Конфиг
			cfg, err := config.Load(opts.configPath, opts.overrides(cmd.Flags(), args))
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if opts.printConfig {
				configloader.PrintConfig(cmd.OutOrStdout(), cfg)
			}

			// 2. Логгер
			log, err := logger.New(logger.Config{
				Level:   cfg.Logging.Level,
				DevMode: cfg.Logging.DevMode,
				Service: cfg.ServiceName,
				Version: cfg.ServiceVersion,
			})
			if err != nil {
				return fmt.Errorf("logger init error: %w", err)
			}
			defer log.Sync()

			// 3. Контекст с отменой по сигналам
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.Info("starting service",
				zap.String("service.name", cfg.ServiceName),
				zap.String("service.version", cfg.ServiceVersion),
			)

			// 4. Основное приложение
			if err := app.Run(ctx, cfg, log); err != nil {
				log.Error("application exited with error", zap.Error(err))
				return err
			}
			log.Info("shutdown complete")
			return nil
		},
	}

	opts.register(root.Flags())

	root.SetContext(context.Background())
	return root
}
