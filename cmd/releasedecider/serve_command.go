package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipstream/releasedecider/internal/api"
	"github.com/slipstream/releasedecider/internal/config"
	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/library/store"
	"github.com/slipstream/releasedecider/internal/pending"
	"github.com/slipstream/releasedecider/internal/scheduler"
	"github.com/slipstream/releasedecider/internal/scheduler/tasks"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the pending re-evaluation scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.newLogger(cfg)
			defer log.Close()

			log.Info().Str("version", config.VersionString()).Str("database", cfg.Database.Path).Msg("Starting release decider")

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := ctx.openDatabase(runCtx, cfg, log, true)
			if err != nil {
				return err
			}
			defer db.Close()

			opts, err := cfg.Engine.Options()
			if err != nil {
				return err
			}
			engine := decisioning.NewEngine(opts, log.Logger)
			library := store.New(db.Conn(), log.Logger)
			pendingService := pending.NewService(pending.NewSQLStore(db.Conn()), engine, library.LoadSnapshot, log.Logger)

			sched, err := scheduler.New(log.Logger)
			if err != nil {
				return fmt.Errorf("failed to create scheduler: %w", err)
			}
			if err := tasks.RegisterPendingReevaluationTask(sched, pendingService, &cfg.Pending); err != nil {
				return fmt.Errorf("failed to register pending task: %w", err)
			}
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer func() {
				if err := sched.Stop(); err != nil {
					log.Error().Err(err).Msg("Scheduler shutdown error")
				}
			}()

			server := api.NewServer(api.Deps{
				Decider:   engine,
				Snapshots: library,
				Pending:   pendingService,
				Wanted:    library,
				Scheduler: sched,
				Logs:      log,
			}, cfg, log.Logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(cfg.Server.Address())
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-runCtx.Done():
				log.Info().Msg("Received shutdown signal")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Server shutdown error")
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}
}
