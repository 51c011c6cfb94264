package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tubestats/tubestats/internal/api"
	"github.com/tubestats/tubestats/internal/errors"
	"github.com/tubestats/tubestats/internal/service"
)

func newResolveCmd(build factory) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [INPUT]",
		Short: "Resolve a channel ID, video ID, handle or URL to a channel ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, build, func(ctx context.Context, rt *runtime) error {
				channelID, err := rt.svc.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), channelID)
				return nil
			})
		},
	}
}

func newChannelCmd(build factory) *cobra.Command {
	return &cobra.Command{
		Use:   "channel [INPUT]",
		Short: "Show channel information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, build, func(ctx context.Context, rt *runtime) error {
				channelID, err := rt.svc.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				channel, err := rt.svc.GetChannel(ctx, channelID)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"channel":   channel,
					"startDate": channel.StartDate(),
				})
			})
		},
	}
}

func newReportCmd(build factory) *cobra.Command {
	defaults := service.DefaultReportOptions()

	cmd := &cobra.Command{
		Use:   "report [INPUT]",
		Short: "Build the statistics report for a channel",
		Long: `Fetch every upload of the channel and print the report as JSON.
--start and --end accept YYYY-MM-DD or RFC 3339 and bound the ranked window; totals always
cover the whole channel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := reportOptions(cmd)
			if err != nil {
				return err
			}
			return withRuntime(cmd, build, func(ctx context.Context, rt *runtime) error {
				channelID, err := rt.svc.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				report, err := rt.svc.BuildReport(ctx, channelID, opts)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}

	cmd.Flags().String("start", "", "Window start (inclusive)")
	cmd.Flags().String("end", "", "Window end (exclusive)")
	cmd.Flags().Int("top", defaults.TopViewed, "Number of most viewed videos")
	cmd.Flags().Int("disliked", defaults.TopDisliked, "Number of most disliked videos")
	cmd.Flags().Int("gaps", defaults.TopGaps, "Number of longest upload gaps")
	cmd.Flags().Bool("include-undefined", false, "Rank videos without likes or dislikes as most disliked")
	return cmd
}

func newServeCmd(build factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP report API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, build, func(ctx context.Context, rt *runtime) error {
				port, _ := cmd.Flags().GetString("port")
				if port == "" {
					port = rt.cfg.Port
				}
				server := api.NewServer(rt.svc, api.Options{
					CORSOrigins: rt.cfg.CORSOrigins,
					Logger:      rt.log,
				})
				return server.Start(ctx, ":"+port)
			})
		},
	}
	cmd.Flags().String("port", "", "Listen port (defaults to PORT)")
	return cmd
}

func reportOptions(cmd *cobra.Command) (service.ReportOptions, error) {
	opts := service.DefaultReportOptions()
	flags := cmd.Flags()

	var err error
	for name, dst := range map[string]*time.Time{"start": &opts.Start, "end": &opts.End} {
		v, _ := flags.GetString(name)
		if *dst, err = parseDate(v); err != nil {
			return opts, fmt.Errorf("--%s: %w", name, err)
		}
	}
	if !opts.Start.IsZero() && !opts.End.IsZero() && !opts.Start.Before(opts.End) {
		return opts, fmt.Errorf("--start must be before --end")
	}

	for name, dst := range map[string]*int{"top": &opts.TopViewed, "disliked": &opts.TopDisliked, "gaps": &opts.TopGaps} {
		n, _ := flags.GetInt(name)
		if n < 0 {
			return opts, fmt.Errorf("--%s must not be negative", name)
		}
		*dst = n
	}
	opts.IncludeUndefined, _ = flags.GetBool("include-undefined")
	return opts, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", v)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format as JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// userMessage renders err for the terminal. Every analysis failure gets the same generic
// line; anything else is a usage or configuration problem and is shown as is.
func userMessage(err error) string {
	if errors.KindOf(err) != "" {
		return "failed to analyze channel"
	}
	return err.Error()
}
