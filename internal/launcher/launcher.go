// Package launcher opens repositories in applications and URLs in the
// browser.
package launcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/google/shlex"
)

// PathPlaceholder in an argument is replaced by the repository path.
const PathPlaceholder = "%p"

// App is a configured application. Cmd may carry leading arguments, split
// with shell quoting rules.
type App struct {
	Cmd  string   `yaml:"cmd"`
	Args []string `yaml:"args,omitempty"`
}

// Command builds the argv that opens path with the app. Without a
// placeholder in Args the path is appended.
func (a App) Command(path string) ([]string, error) {
	argv, err := shlex.Split(a.Cmd)
	if err != nil {
		return nil, fmt.Errorf("invalid cmd %q: %w", a.Cmd, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("application has no cmd")
	}

	substituted := false
	for _, arg := range a.Args {
		if strings.Contains(arg, PathPlaceholder) {
			substituted = true
			arg = strings.ReplaceAll(arg, PathPlaceholder, path)
		}
		argv = append(argv, arg)
	}
	if !substituted {
		argv = append(argv, path)
	}
	return argv, nil
}

// For testing purposes
var (
	goos         = runtime.GOOS
	runCommand   = func(cmd *exec.Cmd) error { return cmd.Run() }
	startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// systemOpener returns the command that hands a path or URL to the desktop.
func systemOpener() (name string, args []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "explorer", nil
	default:
		return "xdg-open", nil
	}
}

// Apps opens repositories with configured applications.
type Apps struct {
	apps map[string]App
}

// NewApps indexes the configured applications by name.
func NewApps(apps map[string]App) *Apps {
	if apps == nil {
		apps = map[string]App{}
	}
	return &Apps{apps: apps}
}

// startDetached starts cmd without waiting for it and reaps it in the
// background. The process outlives any context of the caller.
func startDetached(cmd *exec.Cmd) error {
	if err := startCommand(cmd); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Open opens path with the application called name and returns the name of
// what was run. An empty or unknown name falls back to the system opener,
// which is started detached. Configured applications run in the foreground
// with the terminal attached.
func (a *Apps) Open(ctx context.Context, name, path string) (string, error) {
	app, ok := a.apps[name]
	if !ok {
		opener, args := systemOpener()
		cmd := exec.Command(opener, append(args, path)...)
		if err := startDetached(cmd); err != nil {
			return opener, fmt.Errorf("failed to start %s: %w", opener, err)
		}
		return opener, nil
	}

	argv, err := app.Command(path)
	if err != nil {
		return name, fmt.Errorf("application %s: %w", name, err)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := runCommand(cmd); err != nil {
		return name, fmt.Errorf("application %s: %w", name, err)
	}
	return name, nil
}

// Browser opens URLs with the system opener.
type Browser struct{}

// OpenURL starts the system opener for u without waiting for it.
func (Browser) OpenURL(u *url.URL) error {
	opener, args := systemOpener()
	if goos == "windows" {
		opener, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	}
	cmd := exec.Command(opener, append(args, u.String())...)
	if err := startDetached(cmd); err != nil {
		return fmt.Errorf("failed to open %s: %w", u, err)
	}
	return nil
}
