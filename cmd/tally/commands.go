package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tally/internal/config"
	"github.com/verte-zerg/tally/internal/store"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tally configuration
# Uncomment a value to enable it. CLI flags override config values.

[parser]
# progress-every = %d     # Print progress every N elements (0 disables)

[cache]
# dir = "/path/to/data"   # Cache directory (default: data/ next to the executable)

[log]
# file = %q
# level = %q            # debug, info, warn, error

[report]
# table = false           # Print an aligned table instead of the plain summary
`,
		defaultProgressEvery,
		config.DefaultLogPath(),
		defaultLogLevel,
	)
}

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or remove the cached result for an input file",
	}
	cacheCmd.PersistentFlags().StringVar(&reportCacheDir, "cache-dir", "", "cache directory (default: data/ next to the executable)")

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "path <file>",
		Short: "Print the cache location and what it holds",
		Args:  cobra.ExactArgs(1),
		RunE:  runCachePathCmd,
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear <file>",
		Short: "Remove the cache for an input file",
		Args:  cobra.ExactArgs(1),
		RunE:  runCacheClearCmd,
	})
	return cacheCmd
}

func resolveCachePath(cmd *cobra.Command, input string) (string, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "cache-dir", &reportCacheDir, fileCfg.Cache.Dir)
	if reportCacheDir == "" {
		reportCacheDir = config.DefaultCacheDir()
	}
	return store.PathFor(reportCacheDir, input), nil
}

func runCachePathCmd(cmd *cobra.Command, args []string) error {
	path, err := resolveCachePath(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "  not written yet")
			return nil
		}
		return fmt.Errorf("failed to stat cache: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close cache: %v\n", cerr)
		}
	}()
	meta, err := st.Meta(cmd.Context())
	if errors.Is(err, store.ErrNoCache) {
		fmt.Fprintf(out, "  %s, empty\n", humanize.Bytes(uint64(info.Size())))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	fmt.Fprintf(out, "  %s, %s entries from %s, written %s (%s)\n",
		humanize.Bytes(uint64(info.Size())),
		humanize.Comma(int64(meta.Entries)),
		meta.Source,
		humanize.Time(meta.WrittenAt),
		meta.WrittenAt.Format(time.DateTime),
	)
	return nil
}

func runCacheClearCmd(cmd *cobra.Command, args []string) error {
	path, err := resolveCachePath(cmd, args[0])
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "no cache at %s\n", path)
			return nil
		}
		return fmt.Errorf("failed to remove cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
	return nil
}
