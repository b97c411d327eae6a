package fac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gaincalc/internal/logging"
	"gaincalc/internal/services"
)

// StructureScript is the file name of the sfac script written next to the
// structure tables it produces.
const StructureScript = "structure.sf"

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithStructureTimeout bounds every sfac run. Zero disables the limit.
func WithStructureTimeout(d time.Duration) Option {
	return func(c *Client) { c.structureTimeout = d }
}

// WithPopulationTimeout bounds every scrm run. Zero disables the limit.
func WithPopulationTimeout(d time.Duration) Option {
	return func(c *Client) { c.populationTimeout = d }
}

// WithLogger routes solver output lines to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "fac")
	}
}

// Client runs solver sessions as isolated child processes.
type Client struct {
	sfac              string
	scrm              string
	structureTimeout  time.Duration
	populationTimeout time.Duration
	exec              Executor
	logger            *slog.Logger
}

// New constructs a solver client.
func New(sfac, scrm string, opts ...Option) (*Client, error) {
	sfac = strings.TrimSpace(sfac)
	scrm = strings.TrimSpace(scrm)
	if sfac == "" || scrm == "" {
		return nil, services.Wrap(services.ErrConfiguration, "fac", "new client", "sfac and scrm binaries required", nil)
	}
	client := &Client{
		sfac:   sfac,
		scrm:   scrm,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// RunStructure writes session to dir/structure.sf and runs sfac in dir.
func (c *Client) RunStructure(ctx context.Context, session *Session, dir string) error {
	if session == nil || session.Kind() != Structure {
		return services.Wrap(services.ErrValidation, "fac", "run structure", "structure session required", nil)
	}
	return c.run(ctx, c.sfac, c.structureTimeout, session, dir, StructureScript)
}

// RunCRM writes session to dir/<name>.sf and runs scrm in dir.
func (c *Client) RunCRM(ctx context.Context, session *Session, dir, name string) error {
	if session == nil || session.Kind() != CRM {
		return services.Wrap(services.ErrValidation, "fac", "run crm", "crm session required", nil)
	}
	if strings.TrimSpace(name) == "" {
		return services.Wrap(services.ErrValidation, "fac", "run crm", "script name required", nil)
	}
	return c.run(ctx, c.scrm, c.populationTimeout, session, dir, name+".sf")
}

func (c *Client) run(ctx context.Context, binary string, timeout time.Duration, session *Session, dir, script string) error {
	operation := filepath.Base(binary)
	scriptPath := filepath.Join(dir, script)
	if err := os.WriteFile(scriptPath, []byte(session.Script()), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "fac", operation, "write script", err)
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	command := Command{Binary: binary, Args: []string{script}, Dir: dir}
	logger.Debug("solver started", logging.String("command", command.String()), logging.String("dir", dir))

	err := c.exec.Run(runCtx, command, func(line string) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			logger.Debug(trimmed, logging.String("source", operation))
		}
	})
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, "fac", operation, fmt.Sprintf("exceeded %s", timeout), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return services.Wrap(services.ErrTransient, "fac", operation, "cancelled", ctxErr)
		}
		return services.Wrap(services.ErrExternalTool, "fac", operation, fmt.Sprintf("script %s", scriptPath), err)
	}
	logger.Debug("solver finished", logging.Duration("elapsed", time.Since(started)))
	return nil
}
