package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jtallard/dockside/internal/app"
	"github.com/jtallard/dockside/internal/store"
	"github.com/jtallard/dockside/internal/watch"
)

// Version is set at build time via ldflags
var Version = ""

var (
	rootDir      = flag.String("root", ".", "directory to browse")
	statePath    = flag.String("state", "", "layout state database (default ~/.local/state/dockside/state.db, empty string with -no-state for in-memory)")
	noState      = flag.Bool("no-state", false, "keep layout state in memory only")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("dockside version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "dockside needs an interactive terminal")
		os.Exit(1)
	}

	root, err := filepath.Abs(*rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve root: %v\n", err)
		os.Exit(1)
	}

	st, err := openStore(logger)
	if err != nil {
		logger.Warn("layout state unavailable, using memory", "err", err)
		st = store.NewMemory()
	}
	saver := store.NewDebounced(st, store.DefaultSaveDelay)
	defer saver.Close()

	watcher, err := watch.New(root, watch.Options{})
	if err != nil {
		logger.Warn("file watching disabled", "err", err)
		watcher = nil
	}

	model := app.New(root, saver, watcher, logger)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

func openStore(logger *slog.Logger) (store.KV, error) {
	if *noState {
		return store.NewMemory(), nil
	}
	path := *statePath
	if path == "" {
		base, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(base, ".local", "state", "dockside", "state.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	logger.Debug("opening layout state", "path", path)
	return store.OpenSQLite(path)
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision != "" {
		ver := "devel+" + revision
		if len(ver) > 20 {
			ver = ver[:20]
		}
		if dirty {
			ver += "+dirty"
		}
		return ver
	}
	return "devel"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dockside [options]\n\n")
		fmt.Fprintf(os.Stderr, "A dual-pane terminal file browser with drag and drop.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
