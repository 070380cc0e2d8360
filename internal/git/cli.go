package git

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NicabarNimble/go-gitws/internal/errors"
	"github.com/NicabarNimble/go-gitws/internal/profile"
)

const maxRetries = 3

// CLIStrategy clones with the git executable found on PATH.
type CLIStrategy struct{}

// Clone implements Strategy. Authentication is left to git's own credential
// helpers, so opts.Auth is not used.
func (s *CLIStrategy) Clone(ctx context.Context, remote, path string, opts CloneOptions) (*Repository, error) {
	t, err := prepareTarget(path)
	if err != nil {
		return nil, cloneError(remote, err)
	}

	args := []string{"clone", "--progress"}
	if opts.Recursive {
		args = append(args, "--recursive")
	}
	args = append(args, "--", remote, path)

	pw := newProgressWriter(opts.Progress)
	if err := runWithRetry(ctx, pw, args...); err != nil {
		if cerr := t.cleanup(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove partial clone: %w", cerr))
		}
		return nil, cloneError(remote, err)
	}

	return NewRepository(path, &cliConfig{dir: path}), nil
}

// commandError carries the diagnostic output of a failed git command.
type commandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *commandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("git %s: %v: %s", e.Args[0], e.Err, e.Output)
	}
	return fmt.Sprintf("git %s: %v", e.Args[0], e.Err)
}

// Unwrap exposes the exit error and, when git reported an HTTP status, the
// remote's failure as an *errors.APIError.
func (e *commandError) Unwrap() []error {
	if status := remoteStatus(e.Output); status != 0 {
		return []error{e.Err, errors.NewAPIHTTPError("git "+e.Args[0], status, http.StatusText(status))}
	}
	return []error{e.Err}
}

// statusPattern matches how git's HTTP transport reports a failed request:
// "The requested URL returned error: 429" or "RPC failed; HTTP 503".
var statusPattern = regexp.MustCompile(`(?:returned error:|HTTP) (\d{3})\b`)

func remoteStatus(output string) int {
	m := statusPattern.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	status, _ := strconv.Atoi(m[1])
	return status
}

// runGitCommand is a variable so it can be mocked in tests
var runGitCommand = func(ctx context.Context, dir string, stderr io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = io.Discard

	pw, ok := stderr.(*progressWriter)
	if !ok {
		pw = newProgressWriter(nil)
	}
	cmd.Stderr = pw

	// Prompts would block concurrent clones
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	err := cmd.Run()
	pw.Flush()
	if err != nil {
		return &commandError{Args: args, Output: pw.Tail(), Err: err}
	}
	return nil
}

// retryDelay is the wait before retry attempt n (1-based).
var retryDelay = func(attempt int) time.Duration {
	return time.Duration(attempt) * 5 * time.Second
}

// runWithRetry runs git, retrying when the remote rate limits us or fails
// with a transient server error.
func runWithRetry(ctx context.Context, stderr io.Writer, args ...string) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := runGitCommand(ctx, "", stderr, args...)
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.IsRetryable(err) && !isRateLimited(err) {
			return err
		}
		if attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		case <-time.After(retryDelay(attempt)):
		}
	}
	return fmt.Errorf("exceeded retry attempts: %w", lastErr)
}

// isRateLimited catches remotes that announce throttling without a status.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// cliConfig writes repository-local settings with git config.
type cliConfig struct {
	dir string
}

// Set implements profile.ConfigStore.
func (c *cliConfig) Set(key, value string) error {
	if err := profile.ValidateKey(key); err != nil {
		return err
	}
	return runGitCommand(context.Background(), c.dir, nil, "config", "--local", key, value)
}
