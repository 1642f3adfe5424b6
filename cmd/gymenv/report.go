package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/config"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/episodedb"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/report"
)

type reportOptions struct {
	dbPath string
	out    string
	specID string
	limit  int
	window int
	title  string
}

func newReportCmd() *cobra.Command {
	opts := reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Chart episode returns from the episode index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(ctxOrBackground(cmd.Context()), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.dbPath, "db", "", "Episode index path (empty to use config default)")
	f.StringVarP(&opts.out, "out", "o", "returns.html", "Output HTML file")
	f.StringVar(&opts.specID, "spec", "", "Only chart this environment id")
	f.IntVar(&opts.limit, "limit", 1000, "Chart at most this many recent episodes (0 for all)")
	f.IntVar(&opts.window, "window", report.DefaultWindow, "Moving average window (0 to disable)")
	f.StringVar(&opts.title, "title", "Episode returns", "Chart title")
	return cmd
}

func runReport(ctx context.Context, opts reportOptions) error {
	path := opts.dbPath
	if path == "" {
		path = config.Get().EpisodeDB.Path
	}

	idx, err := episodedb.Open(path, log.Logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	summaries, err := idx.Recent(ctx, opts.specID, opts.limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		return fmt.Errorf("%s: %w", path, report.ErrNoEpisodes)
	}

	series := report.FromSummaries(summaries, opts.window)
	if err := report.WriteReturnsFile(opts.out, opts.title, series); err != nil {
		return err
	}
	log.Info().
		Int("episodes", len(summaries)).
		Int("series", len(series)).
		Str("out", opts.out).
		Msg("Wrote returns report")
	return nil
}
