package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"trackerscope/internal/dnsclient"
)

func eventsCmd(root *rootOptions) *cobra.Command {
	var opts eventsOptions

	c := &cobra.Command{
		Use:   "events",
		Short: "Label OpenWPM script events with tracker metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if err := runEvents(cmd.Context(), cfg, opts, cmd.OutOrStdout()); err != nil {
				slog.Error("Event classification failed", "error", err)
				return err
			}
			return nil
		},
	}

	c.Flags().BoolVar(&opts.uncloak, "uncloak", false, "follow CNAME chains of unmatched script hosts")
	c.Flags().IntVar(&opts.workers, "workers", 0, "parallel classification workers (default TRACKERSCOPE_WORKERS or 1)")
	return c
}

func cookiesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cookies",
		Short: "Score cookies against EasyPrivacy and known name patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if _, err := runCookies(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
				slog.Error("Cookie classification failed", "error", err)
				return err
			}
			return nil
		},
	}
}

func registrableCmd() *cobra.Command {
	var heuristic bool

	c := &cobra.Command{
		Use:   "registrable <host>...",
		Short: "Print the registrable domain of each host",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := dnsclient.NewRegistrable(!heuristic)
			out := cmd.OutOrStdout()
			for _, host := range args {
				ascii, err := dnsclient.DomainToASCII(host)
				if err != nil {
					slog.Warn("IDNA conversion failed, using input as-is", "host", host, "error", err)
					ascii = host
				}
				if _, err := fmt.Fprintf(out, "%s\t%s\n", host, resolver.Domain(ascii)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	c.Flags().BoolVar(&heuristic, "heuristic", false, "use the last-two-labels rule instead of the public suffix list")
	return c
}
