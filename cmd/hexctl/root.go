package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/hexview/source"
	"github.com/joshuapare/hexkit/internal/config"
	"github.com/joshuapare/hexkit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	serverURL  string
	storageDir string

	// settings is loaded once per invocation by the root pre-run hook.
	settings *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hexctl",
	Short: "Inspect, search and patch raw file bytes",
	Long: `hexctl views the raw bytes of files of any size without loading them
whole. It dumps rows, searches for byte patterns, writes patched copies
and can serve files to remote viewers over HTTP.

Files are read locally by default. With --server they are read from a
hexctl serve instance instead.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default $HEXKIT_CONFIG or ~/.hexkit/config.yaml)")
	rootCmd.PersistentFlags().
		StringVar(&serverURL, "server", "", "Read files from a hexctl serve instance at this URL")
	rootCmd.PersistentFlags().
		StringVar(&storageDir, "root", "", "Resolve file arguments inside this directory")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and routes library logging to stderr in
// verbose mode.
func setup() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings = cfg

	if _, err := logger.Init(logger.Options{
		Enabled: verbose && !quiet,
		Writer:  os.Stderr,
		Level:   slog.LevelDebug,
	}); err != nil {
		return err
	}
	return nil
}

// currentSettings returns the loaded config, or defaults when a command runs
// without the root pre-run hook.
func currentSettings() *config.Config {
	if settings == nil {
		return config.Default()
	}
	return settings
}

// openSource picks the byte source for file arguments. The returned close
// func is always non-nil.
func openSource() (source.Source, func() error) {
	url := serverURL
	if url == "" {
		url = currentSettings().Server.URL
	}
	if url != "" {
		remote := source.NewHTTP(url)
		printVerbose("Reading from server: %s\n", remote.Endpoint())
		return remote, func() error { return nil }
	}
	files := source.NewFile(storageDir)
	return files, files.Close
}

// newController opens ref and returns a ready controller.
func newController(ctx context.Context, src source.Source, ref string) (*hexview.Controller, error) {
	cfg := currentSettings().HexView()
	cfg.Logger = logger.L
	ctl, err := hexview.New(src, cfg)
	if err != nil {
		return nil, err
	}
	printVerbose("Opening: %s\n", ref)
	if err := ctl.Open(ctx, source.Ref(ref)); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ref, err)
	}
	return ctl, nil
}

// parseAddress accepts decimal, 0x-prefixed hex and 0o/0b forms.
func parseAddress(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return n, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
