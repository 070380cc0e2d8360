package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBrowseCmd(g *globals) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "browse <reference>",
		Short: "Open the repository page in a browser",
		Long: `Open the web page of a repository. Hosts without a configured platform
get the conventional https://host/owner/repo address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			if printOnly {
				u, err := a.BrowseURL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			}
			u, err := a.Browse(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", u)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print the URL instead of opening it")
	return cmd
}

type forkOptions struct {
	owner string
	cloneOptions
	clone bool
}

func newForkCmd(g *globals) *cobra.Command {
	opts := &forkOptions{}

	cmd := &cobra.Command{
		Use:   "fork <reference>",
		Short: "Fork a repository on its platform",
		Long: `Fork a repository into your account, or into --owner. The host must have a
configured platform that supports forking. With --clone the fork is cloned
into the workspace afterwards.`,
		Example: `  gitws fork upstream/project
  gitws fork upstream/project --owner my-org --clone`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			forked, err := a.Fork(cmd.Context(), args[0], opts.owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forked %s → %s\n", nameStyle.Render(args[0]), forked)

			if !opts.clone {
				return nil
			}
			return runClone(cmd, g, a, []string{forked}, opts.appOptions(cmd))
		},
	}

	cmd.Flags().StringVar(&opts.owner, "owner", "", "Organization or group to fork into")
	cmd.Flags().BoolVar(&opts.clone, "clone", false, "Clone the fork after creating it")
	cmd.Flags().BoolVar(&opts.recursive, "recursive", false, "Also clone submodules (with --clone)")
	addOpenFlag(cmd, &opts.open)
	return cmd
}

func newAuthCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect platform credentials",
	}

	check := &cobra.Command{
		Use:   "check [host]",
		Short: "Validate the token used for a host",
		Long: `Look up the token gitws would use for a host (default: defaults.host) and
validate it against the platform API. Tokens are read from the platform's
token_env variable, GH_TOKEN/GITHUB_TOKEN or GITLAB_TOKEN, GIT_TOKEN_<TYPE>,
and the gh CLI hosts file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			host := ""
			if len(args) == 1 {
				host = args[0]
			}

			status, err := a.CheckAuth(cmd.Context(), host)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s (%s): token from %s is valid\n",
				successStyle.Render("✓"), nameStyle.Render(status.Platform), status.Host, status.Source)
			if status.Scope != "" {
				fmt.Fprintf(w, "  scopes: %s\n", status.Scope)
			}
			if !status.ExpiresAt.IsZero() {
				fmt.Fprintf(w, "  expires: %s\n", status.ExpiresAt.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.AddCommand(check)
	return cmd
}
