package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-centrality-service/pkg/centrality"
	"github.com/gilchrisn/graph-centrality-service/pkg/parser"
	"github.com/gilchrisn/graph-centrality-service/pkg/ranking"
)

func newComputeCmd(a *app) *cobra.Command {
	var jsonPath string

	cmd := &cobra.Command{
		Use:   "compute <file>",
		Short: "Rank the nodes of an edge list by closeness and betweenness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compute(cmd, args[0], jsonPath)
		},
	}

	flags := cmd.Flags()
	flags.String("format", "", "input format (reddit-tsv, edgelist)")
	flags.String("mode", "", "shortest-path mode (unit, weighted)")
	flags.Int("top", 0, "number of nodes listed per measure")
	flags.Int("workers", 0, "number of worker goroutines")
	flags.StringVar(&jsonPath, "json", "", "also write every score to this JSON file")

	v := a.config.Viper()
	_ = v.BindPFlag("input.format", flags.Lookup("format"))
	_ = v.BindPFlag("algorithm.mode", flags.Lookup("mode"))
	_ = v.BindPFlag("output.top_n", flags.Lookup("top"))
	_ = v.BindPFlag("performance.num_workers", flags.Lookup("workers"))

	return cmd
}

func (a *app) compute(cmd *cobra.Command, path, jsonPath string) error {
	format, err := parser.ParseFormat(a.config.InputFormat())
	if err != nil {
		return err
	}

	loadStart := time.Now()
	g, err := parser.LoadFile(path, format)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Info().
		Str("file", path).
		Int("nodes", g.NumNodes()).
		Int("edges", g.NumEdges()).
		Dur("elapsed", time.Since(loadStart)).
		Msg("Graph loaded")

	result, err := centrality.Run(cmd.Context(), g, a.config)
	if err != nil {
		return err
	}

	stats := result.Statistics
	log.Info().Int64("ms", stats.ClosenessMS).Msg("Closeness centrality computed")
	log.Info().Int64("ms", stats.BetweennessMS).Msg("Betweenness centrality computed")
	log.Info().Dur("total", time.Since(loadStart)).Msg("Done")

	report := ranking.NewReport(result, a.config.TopN())
	if err := ranking.RenderReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if jsonPath != "" {
		if err := ranking.WriteJSON(ranking.NewReport(result, 0), jsonPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", jsonPath, err)
		}
		log.Info().Str("path", jsonPath).Msg("Scores written")
	}
	return nil
}
