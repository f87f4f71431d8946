package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/gthalib/tulip/internal/bot"
	"github.com/gthalib/tulip/internal/profile"
	"github.com/gthalib/tulip/plugin/ai/classifier"
	"github.com/gthalib/tulip/plugin/ai/dispatch"
	"github.com/gthalib/tulip/plugin/ai/provider"
	"github.com/gthalib/tulip/plugin/ai/registry"
	"github.com/gthalib/tulip/server"
	"github.com/gthalib/tulip/store"
	"github.com/gthalib/tulip/store/db"
)

const greetingBanner = `
Version %s has been started on port %d
---
See more in https://github.com/gthalib/tulip
`

var (
	version = "0.1.0"

	rootCmd = &cobra.Command{
		Use:   "tulip",
		Short: "A whitelist-gated WhatsApp assistant with AI model failover",
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile := &profile.Profile{
				Mode:    viper.GetString("mode"),
				Addr:    viper.GetString("addr"),
				Port:    viper.GetInt("port"),
				Data:    viper.GetString("data"),
				Driver:  viper.GetString("driver"),
				DSN:     viper.GetString("dsn"),
				Version: version,
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				return fmt.Errorf("failed to validate profile: %w", err)
			}

			if instanceProfile.IsDev() {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				return fmt.Errorf("failed to create db driver: %w", err)
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			defer storeInstance.Close()

			if err := storeInstance.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate store: %w", err)
			}
			if err := storeInstance.Seed(ctx); err != nil {
				return fmt.Errorf("failed to seed store: %w", err)
			}

			tree := dispatch.Default()
			modelRegistry := registry.New(storeInstance, instanceProfile.SuspendDuration)
			providers := provider.NewFactory(instanceProfile)
			intentClassifier := classifier.New(modelRegistry, providers, tree)

			sessions := bot.NewSessions(storeInstance, tree, instanceProfile.HistoryCapacity)
			executor := bot.NewExecutor(storeInstance)
			router := bot.NewRouter(sessions, intentClassifier, executor, tree, storeInstance)

			s := server.NewServer(instanceProfile, storeInstance, router)

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			group, groupCtx := errgroup.WithContext(sigCtx)
			group.Go(func() error {
				return s.Start(ctx)
			})
			group.Go(func() error {
				<-groupCtx.Done()
				s.Shutdown(ctx)
				return nil
			})

			fmt.Printf(greetingBanner, instanceProfile.Version, instanceProfile.Port)
			return group.Wait()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 5001)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 5001, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("tulip")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to start tulip", "error", err)
		os.Exit(1)
	}
}
