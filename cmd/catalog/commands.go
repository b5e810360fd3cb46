package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/catalog"
	"github.com/nao1215/catalog/dictionary"
)

func newInferCmd(a *app) *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "infer PATH...",
		Short: "Infer the column types of files and directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ingestor, err := a.cfg.Ingestor(a.logger)
			if err != nil {
				return err
			}
			results, err := ingestor.IngestFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			if exportPath != "" {
				if err := catalog.SaveDictionary(exportPath, catalog.ProposeEntries(results...)); err != nil {
					return err
				}
			}
			return a.render(inferView(results))
		},
	}
	cmd.Flags().StringVar(&exportPath, "export-dictionary", "",
		"Write the inferred columns as a draft dictionary (.csv, .tsv or .ltsv, optionally .gz/.xz/.zst)")
	return cmd
}

func newMatchCmd(a *app) *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "match PATH --table NAME",
		Short: "Match the columns of a file to one dictionary table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ingestor, err := a.cfg.Ingestor(a.logger)
			if err != nil {
				return err
			}
			matcher, err := a.cfg.Matcher(a.logger)
			if err != nil {
				return err
			}
			result, err := ingestor.IngestFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries, err := a.loadDictionary(cmd.Context(), ingestor)
			if err != nil {
				return err
			}

			tableEntries := dictionary.ForTable(entries, table)
			if len(tableEntries) == 0 {
				return fmt.Errorf("table %q not found in dictionary", table)
			}
			candidates, err := matcher.MatchColumnsToTable(result.Schema.Names(), tableEntries)
			if err != nil {
				return err
			}
			stats, err := matcher.ScoreTable(result.Schema.Names(), tableEntries)
			if err != nil {
				return err
			}
			return a.render(matchView{Source: result.Path, Statistics: stats, Candidates: candidates})
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Dictionary table to match against")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newRankCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "rank PATH",
		Short: "Rank dictionary tables by how well they match the columns of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return errors.New("--top cannot be negative")
			}
			ingestor, err := a.cfg.Ingestor(a.logger)
			if err != nil {
				return err
			}
			matcher, err := a.cfg.Matcher(a.logger)
			if err != nil {
				return err
			}
			result, err := ingestor.IngestFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries, err := a.loadDictionary(cmd.Context(), ingestor)
			if err != nil {
				return err
			}

			ranking, err := matcher.RankCandidateTables(result.Schema.Names(), entries)
			if err != nil {
				return err
			}
			if top > 0 && len(ranking) > top {
				ranking = ranking[:top]
			}
			return a.render(rankView{Source: result.Path, Tables: ranking})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "Show only the best N tables (0 shows all)")
	return cmd
}
