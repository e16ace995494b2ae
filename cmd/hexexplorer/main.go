package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/hexview/materialize"
	"github.com/joshuapare/hexkit/hexview/source"
	"github.com/joshuapare/hexkit/internal/config"
	"github.com/joshuapare/hexkit/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	debug   bool
	server  string
	root    string
	out     string
	config  string
	file    string
	help    bool
	version bool
}

func parseArgs(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := pflag.NewFlagSet("hexexplorer", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show help")
	fs.BoolVarP(&opts.version, "version", "v", false, "Show version")
	fs.StringVar(&opts.server, "server", "", "Range server URL")
	fs.StringVar(&opts.root, "root", "", "Storage root directory")
	fs.StringVarP(&opts.out, "out", "o", "", "Directory for saved copies")
	fs.StringVar(&opts.config, "config", "", "Config file")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		opts.file = rest[0]
	default:
		return opts, fmt.Errorf("unexpected argument: %s", rest[1])
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}
	if opts.help {
		printHelp()
		os.Exit(0)
	}
	if opts.version {
		fmt.Printf("hexexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}
	if opts.file == "" {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(opts.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger (must be before any logging calls)
	closeLog, err := logger.Init(logger.Options{
		Enabled: opts.debug || cfg.Log.Debug,
		App:     "hexexplorer",
		Dir:     cfg.Log.Dir,
		Level:   slog.LevelDebug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}
	defer func() {
		if closeLog != nil {
			_ = closeLog()
		}
	}()

	src, closeSrc := openSource(opts, cfg)
	defer func() {
		if err := closeSrc(); err != nil {
			logger.Warn("error closing source", "error", err)
		}
	}()

	viewCfg := cfg.HexView()
	viewCfg.Logger = logger.L
	ctl, err := hexview.New(src, viewCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outDir := opts.out
	if outDir == "" {
		outDir = cfg.Export.Dir
	}
	ref := source.Ref(opts.file)
	logger.Info("starting hexexplorer", "ref", ref, "session", ctl.ID(), "debug", opts.debug)

	m := NewModel(context.Background(), ctl, ref, Options{
		Charset: cfg.Charset(),
		Sink:    materialize.DirSink{Dir: outDir},
	})
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
	logger.Info("hexexplorer exited normally")
}

// openSource reads through a range server when one is configured, else
// from local files. The returned close func is always non-nil.
func openSource(opts cliOptions, cfg *config.Config) (source.Source, func() error) {
	url := opts.server
	if url == "" {
		url = cfg.Server.URL
	}
	if url != "" {
		remote := source.NewHTTP(url)
		logger.Info("reading from range server", "endpoint", remote.Endpoint())
		return remote, func() error { return nil }
	}
	files := source.NewFile(storageRoot(opts, cfg))
	return files, files.Close
}

// storageRoot picks the directory local refs resolve in. --root always
// wins; the configured root only applies to /storage/ refs so plain paths
// keep working.
func storageRoot(opts cliOptions, cfg *config.Config) string {
	if opts.root != "" {
		return opts.root
	}
	if strings.HasPrefix(opts.file, source.StoragePrefix+"/") {
		return cfg.Storage.Root
	}
	return ""
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: hexexplorer [options] <file>\n")
	fmt.Fprintf(os.Stderr, "Try 'hexexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("hexexplorer - Interactive TUI hex viewer and byte editor")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  hexexplorer [options] <file>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Pages through a file of any size, edits single bytes in memory,")
	fmt.Println("  searches loaded bytes for hex patterns and saves a modified copy.")
	fmt.Println("  The original file is never written.")
	fmt.Println()
	fmt.Println("  Navigation:")
	fmt.Println("    ↑/k, ↓/j    Previous/next row")
	fmt.Println("    ←/h, →/l    Previous/next byte")
	fmt.Println("    e, Enter    Edit byte (two hex digits)")
	fmt.Println("    /           Search hex pattern, n/N to cycle matches")
	fmt.Println("    Ctrl+G      Go to hex address")
	fmt.Println("    Ctrl+S      Save modified copy")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug         Enable debug logging to ~/.hexkit/logs/")
	fmt.Println("      --server URL    Read through a hexctl range server")
	fmt.Println("      --root DIR      Resolve file references inside DIR")
	fmt.Println("                      (default storage.root, for /storage/ refs only)")
	fmt.Println("  -o, --out DIR       Directory for saved copies")
	fmt.Println("      --config PATH   Config file (default ~/.hexkit/config.yaml)")
	fmt.Println("  -h, --help          Show this help message")
	fmt.Println("  -v, --version       Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  hexexplorer disk.img")
	fmt.Println("  hexexplorer --server http://127.0.0.1:8765 /storage/disk.img")
	fmt.Println()
	fmt.Println("For non-interactive operations, use the 'hexctl' command instead.")
}
