package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/NicabarNimble/go-gitws/internal/app"
)

func newPathCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "path <reference>",
		Short:   "Print the workspace path of a repository",
		Example: `  cd "$(gitws path owner/repo)"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			path, err := a.Path(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newOpenCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "open <reference> [app]",
		Short: "Open a cloned repository with an application",
		Long: `Open an existing clone with a configured application. Without an app the
defaults.open application is used, and without that the system opener.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			opened, err := a.Open(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s with %s\n", nameStyle.Render(args[0]), opened)
			return nil
		},
	}
}

func newResolveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <reference>...",
		Short: "Show how references resolve",
		Long: `Show the identity, workspace path, profile and platform each reference
resolves to, without touching the network.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			results := a.Resolve(args)
			renderResolutions(cmd.OutOrStdout(), results)
			for _, r := range results {
				if r.Err != nil {
					return fmt.Errorf("%s: %w", r.Raw, r.Err)
				}
			}
			return nil
		},
	}
}

func renderResolutions(w io.Writer, results []app.Resolution) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Reference", "Identity", "Protocol", "Path", "Profile", "Platform"})
	for _, r := range results {
		if r.Err != nil {
			t.AppendRow(table.Row{r.Raw, "error: " + r.Err.Error(), "", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{
			r.Raw,
			r.Reference.Identity.String(),
			r.Reference.Protocol,
			r.Path,
			orDash(r.Profile),
			orDash(r.Platform),
		})
	}
	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
