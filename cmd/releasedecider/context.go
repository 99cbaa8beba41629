package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/slipstream/releasedecider/internal/config"
	"github.com/slipstream/releasedecider/internal/database"
	"github.com/slipstream/releasedecider/internal/logger"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(cfg.Logging.Logger())
}

// openDatabase opens the configured database, applying pending migrations
// when migrate is set.
func (c *commandContext) openDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger, migrate bool) (*database.DB, error) {
	db, err := database.New(cfg.Database.Path, log.Logger)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// withDatabase runs fn against the configured database and closes it after.
func (c *commandContext) withDatabase(cmd *cobra.Command, migrate bool, fn func(db *database.DB, log *logger.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	log := c.newLogger(cfg)
	defer log.Close()

	db, err := c.openDatabase(cmd.Context(), cfg, log, migrate)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, log)
}
