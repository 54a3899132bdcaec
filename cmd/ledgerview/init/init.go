// Package initcmder provides the init command for initializing a local
// .ledgerview directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/config"
)

const (
	dirName    = ".ledgerview"
	configFile = "config.toml"

	fetchTimeout = 10 * time.Second
)

const initLongDesc string = `Initialize a new .ledgerview/ directory in the current working directory.

Creates a local .ledgerview/ directory that takes precedence over the
default ~/.ledgerview/ directory for configuration, focus state and serve
logs, and writes a config.toml with default values unless one exists.

--preset writes a config.toml for a ledger family ("product" or "finance"),
or fetches one from an http(s) URL, replacing any existing config.

Examples:
  ledgerview init
  ledgerview init --preset finance
  ledgerview init --preset https://example.com/ledgerview/config.toml`

const initShortDesc string = "Initialize a local .ledgerview/ directory"

type initCommander struct {
	preset    string
	configDir string
	out       io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Preset name (product, finance) or URL of a config.toml")

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	dir, err := c.targetDir()
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	exists := err == nil && info.IsDir()
	if !exists {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .ledgerview directory: %w", err)
		}
	}

	cfg, err := c.presetConfig(ctx)
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, configFile)
	if cfg == nil {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking config: %w", err)
		}
		cfg = config.NewDefaultConfig()
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	if exists {
		fmt.Fprintf(c.out, "Wrote %s\n", configPath)
	} else {
		fmt.Fprintf(c.out, "Initialized .ledgerview directory: %s\n", dir)
	}
	return nil
}

func (c *initCommander) targetDir() (string, error) {
	if c.configDir != "" {
		return filepath.Abs(c.configDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return filepath.Join(cwd, dirName), nil
}

// presetConfig returns nil when no preset was requested.
func (c *initCommander) presetConfig(ctx context.Context) (*config.Config, error) {
	switch {
	case c.preset == "":
		return nil, nil
	case strings.HasPrefix(c.preset, "http://"), strings.HasPrefix(c.preset, "https://"):
		var cfg *config.Config
		err := cliui.Step(c.out, "Fetching "+c.preset, func() error {
			var err error
			cfg, err = fetchConfig(ctx, c.preset)
			return err
		})
		return cfg, err
	default:
		return config.PresetConfig(c.preset)
	}
}

func fetchConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
