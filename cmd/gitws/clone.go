package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/go-gitws/internal/app"
	"github.com/NicabarNimble/go-gitws/internal/progress"
)

type cloneOptions struct {
	recursive bool
	open      string
}

// addOpenFlag registers --open. A bare --open selects the default
// application from gitws.yaml.
func addOpenFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "open", "", "Open each clone with this application (bare --open uses defaults.open)")
	cmd.Flags().Lookup("open").NoOptDefVal = defaultAppSentinel
}

// defaultAppSentinel marks --open given without a value.
const defaultAppSentinel = "\x00default"

func (o *cloneOptions) appOptions(cmd *cobra.Command) app.CloneOptions {
	opts := app.CloneOptions{Recursive: o.recursive}
	if cmd.Flags().Changed("open") {
		opts.Open = true
		if o.open != defaultAppSentinel {
			opts.App = o.open
		}
	}
	return opts
}

func newCloneCmd(g *globals) *cobra.Command {
	opts := &cloneOptions{}

	cmd := &cobra.Command{
		Use:   "clone <reference>...",
		Short: "Clone repositories into the workspace",
		Long: `Clone one or more repositories concurrently. Each reference is resolved to
host/owner/repo, cloned to its workspace path and configured with the profile
its rules select. Every clone is reported; the command fails if any failed.`,
		Example: `  gitws clone owner/repo
  gitws clone tools https://gitlab.com/group/project --recursive
  gitws clone work:api --open`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runClone(cmd, g, a, args, opts.appOptions(cmd))
		},
	}

	cmd.Flags().BoolVar(&opts.recursive, "recursive", false, "Also clone submodules")
	addOpenFlag(cmd, &opts.open)
	return cmd
}

func runClone(cmd *cobra.Command, g *globals, a *app.App, refs []string, opts app.CloneOptions) error {
	var board *progress.Board
	if !g.noProgress() {
		board = progress.NewBoard(cmd.ErrOrStderr())
		if g.logs != nil {
			g.logs.attach(board)
		}
		board.Animate()
	}

	outcomes, err := a.CloneAll(cmd.Context(), refs, opts, board)
	if board != nil {
		board.Stop()
		if g.logs != nil {
			g.logs.attach(nil)
		}
	}
	printOutcomes(cmd.OutOrStdout(), outcomes)
	return err
}

func printOutcomes(w io.Writer, outcomes []app.Outcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", failureStyle.Render("✗"), nameStyle.Render(o.Raw), o.Err)
			continue
		}
		line := fmt.Sprintf("%s %s → %s", successStyle.Render("✓"), nameStyle.Render(o.Raw), o.Path)
		if o.Profile != "" {
			line += fmt.Sprintf(" (profile %s)", o.Profile)
		}
		if o.Opened != "" {
			line += fmt.Sprintf(" opened with %s", o.Opened)
		}
		fmt.Fprintln(w, line)
	}
}
