// cmd/tools/crewmatch/rank.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	httpclient "crew-match-workers/internal/common/http"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/matching"
	ranklegs "crew-match-workers/internal/workers/matching/rank-legs"
)

func newRankCmd() *cobra.Command {
	var (
		fixturePath string
		serverURL   string
		maxResults  int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the legs of a fixture for its profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			if maxResults > 0 {
				fx.MaxResults = maxResults
			}

			input := &ranklegs.Input{
				Profile:    &fx.Profile,
				Legs:       fx.Legs,
				MaxResults: fx.MaxResults,
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var out *ranklegs.Output
			if serverURL != "" {
				out, err = rankRemote(ctx, serverURL, timeout, input)
			} else {
				out, err = rankLocal(ctx, fx, input)
			}
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), outputFmt, out)
		},
	}

	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "TOML fixture with a profile and legs")
	cmd.Flags().StringVar(&serverURL, "server", "", "rank through a running worker manager instead of locally")
	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "override the fixture's max_results")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("fixture")

	return cmd
}

func rankLocal(ctx context.Context, fx *Fixture, input *ranklegs.Input) (*ranklegs.Output, error) {
	matcher, err := matching.NewMatcher(fx.Policy.resolve())
	if err != nil {
		return nil, fmt.Errorf("fixture policy: %w", err)
	}

	cfg := ranklegs.LoadConfig()
	cfg.MaxCandidates = len(input.Legs)

	h := ranklegs.NewHandler(cfg, ranklegs.Dependencies{}, matcher, nil, nil, logger.NewNoOpLogger())
	return h.Execute(ctx, input)
}

func rankRemote(ctx context.Context, serverURL string, timeout time.Duration, input *ranklegs.Input) (*ranklegs.Output, error) {
	var out ranklegs.Output
	client := httpclient.NewClient(serverURL, timeout)
	if err := client.PostJSON(ctx, "/api/v1/match/rank", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
