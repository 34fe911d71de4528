package wrangle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/apparentlymart/x86-meta/grammar"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Config describes several grammar documents generated in one run.
type Config struct {
	Targets []*Target `toml:"target"`
}

// Target is one grammar document and the definition files it is built
// from. Relative paths are relative to the configuration file.
type Target struct {
	Name             string          `toml:"name"`
	Mode             grammar.Mode    `toml:"mode"`
	Bitness          grammar.Bitness `toml:"bitness"`
	Inputs           []string        `toml:"inputs"`
	Output           string          `toml:"output"`
	Filter           string          `toml:"filter"`
	KeepOperandOrder bool            `toml:"keep_operand_order"`
}

// LoadConfig reads and validates a TOML configuration file.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(filename, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("failed to load config: unknown keys %s", strings.Join(keys, ", "))
	}

	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("failed to load config: no targets")
	}

	dir := filepath.Dir(filename)
	names := make(map[string]bool)
	for i, t := range cfg.Targets {
		if t.Name == "" {
			return nil, fmt.Errorf("target %d: missing name", i+1)
		}
		if names[t.Name] {
			return nil, fmt.Errorf("target %s: name used more than once", t.Name)
		}
		names[t.Name] = true

		if t.Bitness != 32 && t.Bitness != 64 {
			return nil, fmt.Errorf("target %s: bitness must be 32 or 64", t.Name)
		}
		if len(t.Inputs) == 0 {
			return nil, fmt.Errorf("target %s: no inputs", t.Name)
		}
		if t.Output == "" {
			return nil, fmt.Errorf("target %s: missing output", t.Name)
		}

		for j, in := range t.Inputs {
			t.Inputs[j] = resolvePath(dir, in)
		}
		t.Output = resolvePath(dir, t.Output)
	}

	return &cfg, nil
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Options returns the generation options for the target.
func (t *Target) Options(logger logrus.FieldLogger) Options {
	if logger == nil {
		logger = Options{}.logger()
	}
	return Options{
		Mode:            t.Mode,
		Bitness:         t.Bitness,
		ReverseOperands: !t.KeepOperandOrder,
		Filter:          t.Filter,
		Logger:          logger.WithField("target", t.Name),
	}
}

// Generate builds every target concurrently. Each target's output file is
// only written if that target succeeds; the first error is returned.
func (c *Config) Generate(ctx context.Context, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = Options{}.logger()
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range c.Targets {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := GenerateTo(&buf, t.Options(logger), t.Inputs...); err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			if err := os.WriteFile(t.Output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}

			logger.WithFields(logrus.Fields{
				"target": t.Name,
				"output": t.Output,
				"bytes":  buf.Len(),
			}).Info("wrote grammar")
			return nil
		})
	}
	return g.Wait()
}
