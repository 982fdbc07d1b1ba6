package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/alanyang/prodline/internal/config"
	"github.com/alanyang/prodline/internal/wire"
)

type commandContext struct {
	configFlag string
	jsonFlag   bool

	coreOnce sync.Once
	core     *wire.Core
	coreErr  error
	cfg      *config.Config
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	setupLogging(os.Stderr, cfg.SlogLevel())
	return cfg, nil
}

// ensureCore wires the service graph once per process.
func (c *commandContext) ensureCore(ctx context.Context) (*wire.Core, error) {
	c.coreOnce.Do(func() {
		if c.core != nil {
			return
		}
		cfg, err := c.ensureConfig()
		if err != nil {
			c.coreErr = err
			return
		}
		c.core, c.coreErr = wire.NewCore(ctx, cfg)
	})
	return c.core, c.coreErr
}

func (c *commandContext) withCore(cmd *cobra.Command, fn func(ctx context.Context, core *wire.Core) error) error {
	core, err := c.ensureCore(cmd.Context())
	if err != nil {
		return err
	}
	return fn(cmd.Context(), core)
}

func (c *commandContext) close() {
	if c.core != nil {
		c.core.Close()
	}
}

// setupLogging writes human-readable logs to a terminal and JSON otherwise.
func setupLogging(w io.Writer, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if isTerminal(w) {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func parseUUIDArg(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
