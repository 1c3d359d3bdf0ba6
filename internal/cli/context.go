package cli

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tarkdev/tarkcore/internal/config"
	"github.com/tarkdev/tarkcore/internal/policy"
	"github.com/tarkdev/tarkcore/internal/policystore"
)

// CLIContext carries the resources every subcommand's RunE needs: the
// loaded configuration, a logger, and a lazily-opened handle to the policy
// store and engine.
type CLIContext struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zerolog.Logger
	Verbose    bool
	Quiet      bool

	policyPath string
	policyOnce sync.Once
	policyErr  error
	store      *policystore.Store
	engine     *policy.Engine
}

// NewCLIContext creates a CLI context. policyPath is the policy database
// file; it's opened lazily on first use by GetPolicy.
func NewCLIContext(cfg *config.Config, configPath string, log *zerolog.Logger, policyPath string, verbose, quiet bool) *CLIContext {
	return &CLIContext{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     log,
		policyPath: policyPath,
		Verbose:    verbose,
		Quiet:      quiet,
	}
}

// GetPolicy returns the policy store and engine, opening and seeding the
// database on first call.
func (c *CLIContext) GetPolicy() (*policystore.Store, *policy.Engine, error) {
	c.policyOnce.Do(func() {
		store, err := policystore.Open(c.policyPath)
		if err != nil {
			c.policyErr = err
			return
		}
		engine, err := policy.New(store)
		if err != nil {
			store.Close()
			c.policyErr = err
			return
		}
		c.store = store
		c.engine = engine
	})
	return c.store, c.engine, c.policyErr
}

// Close releases any resources the context opened.
func (c *CLIContext) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// Log returns the context's logger.
func (c *CLIContext) Log() *zerolog.Logger {
	return c.Logger
}
