// Command gitws clones, browses and forks repositories into a workspace laid
// out by their identity.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NicabarNimble/go-gitws/internal/app"
	"github.com/NicabarNimble/go-gitws/internal/config"
	"github.com/NicabarNimble/go-gitws/internal/workspace"
)

const envPrefix = "GITWS"

var (
	nameStyle    = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	osExit = os.Exit // For testing purposes

	// newApp builds the application for a command. Tests replace it.
	newApp = func(opts app.Options) (*app.App, error) { return app.New(opts) }
)

// globals are the settings shared by every command.
type globals struct {
	v    *viper.Viper
	logs *logSink
}

// logSink is the logger's destination. While a progress board is attached,
// records go through the board so they print above its rows.
type logSink struct {
	mu    sync.Mutex
	w     io.Writer
	board io.Writer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board != nil {
		return s.board.Write(p)
	}
	return s.w.Write(p)
}

// attach sends records to board, or back to the plain writer when nil.
func (s *logSink) attach(board io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board
}

func (g *globals) root() string     { return g.v.GetString("root") }
func (g *globals) verbose() bool    { return g.v.GetBool("verbose") }
func (g *globals) noProgress() bool { return g.v.GetBool("no-progress") }

func newRootCmd() *cobra.Command {
	g := &globals{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "gitws",
		Short: "Repository workspace manager",
		Long: `gitws turns repository references such as owner/repo, full URLs or
configured shorthands into clones at predictable paths under a workspace root.
Matching rules apply git configuration profiles to each clone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("root", "", "Workspace root (default: nearest directory with gitws.yaml, else ~/.gitws)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.Bool("no-progress", false, "Disable progress output")

	g.v.SetEnvPrefix(envPrefix)
	g.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	g.v.AutomaticEnv()
	for _, name := range []string{"root", "verbose", "no-progress"} {
		_ = g.v.BindPFlag(name, flags.Lookup(name))
	}

	cmd.AddCommand(
		newCloneCmd(g),
		newBrowseCmd(g),
		newForkCmd(g),
		newPathCmd(g),
		newOpenCmd(g),
		newResolveCmd(g),
		newAuthCmd(g),
	)
	return cmd
}

// newLogger writes text records to w at Info, or Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// load discovers the workspace root, reads its configuration and builds the
// application.
func (g *globals) load(cmd *cobra.Command) (*app.App, error) {
	g.logs = &logSink{w: cmd.ErrOrStderr()}
	logger := newLogger(g.logs, g.verbose())

	root, err := workspace.Find(workspace.FindOptions{Override: g.root()})
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	logger.Debug("workspace", slog.String("root", root), slog.String("config", config.Path(root)))

	return newApp(app.Options{
		Config: cfg,
		Root:   root,
		Logger: logger,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		osExit(1)
	}
}
