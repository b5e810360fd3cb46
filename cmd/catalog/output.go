package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/catalog"
	"github.com/nao1215/catalog/domain/model"
)

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// maxSampleWidth truncates sample values in text output
const maxSampleWidth = 40

func validateOutput(output string) error {
	switch output {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", output)
	}
}

// textRenderer is implemented by views that have a human-readable form.
type textRenderer interface {
	renderText(w io.Writer) error
}

func (a *app) render(view textRenderer) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case outputYAML:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	default:
		return view.renderText(a.out)
	}
}

type inferView []*catalog.IngestionResult

func (v inferView) renderText(w io.Writer) error {
	for i, result := range v {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s, %d rows sampled)\n", result.TableName, result.Path, result.RowsSampled)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tTYPE\tSAMPLE")
		for _, column := range result.Schema {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", column.Name, column.Type, truncate(strings.Join(column.Sample, ", ")))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

type matchView struct {
	Source     string                     `json:"source" yaml:"source"`
	Statistics model.TableMatchStatistics `json:"statistics" yaml:"statistics"`
	Candidates []model.MatchCandidate     `json:"candidates" yaml:"candidates"`
}

func (v matchView) renderText(w io.Writer) error {
	s := v.Statistics
	fmt.Fprintf(w, "%s -> %s: %d matched, %d unmatched, confidence %.1f%%, average %.3f\n",
		v.Source, s.TableName, s.MatchedColumns, s.UnmatchedColumns, s.ConfidenceScore, s.AverageColumnScore)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE COLUMN\tSTATUS\tSCORE\tDICTIONARY COLUMN")
	for _, c := range v.Candidates {
		target := "-"
		switch {
		case c.DictionaryEntry != nil:
			target = c.DictionaryEntry.ColumnName
		case len(c.CandidateMatches) > 0:
			names := make([]string, len(c.CandidateMatches))
			for i, entry := range c.CandidateMatches {
				names[i] = entry.ColumnName
			}
			target = strings.Join(names, " | ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n", c.SourceColumnName, c.MappingStatus, c.SimilarityScore, target)
	}
	return tw.Flush()
}

type rankView struct {
	Source string                       `json:"source" yaml:"source"`
	Tables []model.TableMatchStatistics `json:"tables" yaml:"tables"`
}

func (v rankView) renderText(w io.Writer) error {
	fmt.Fprintf(w, "%s\n", v.Source)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTABLE\tCONFIDENCE\tAVERAGE\tMATCHED\tUNMATCHED")
	for i, s := range v.Tables {
		fmt.Fprintf(tw, "%d\t%s\t%.1f%%\t%.3f\t%d\t%d\n",
			i+1, s.TableName, s.ConfidenceScore, s.AverageColumnScore, s.MatchedColumns, s.UnmatchedColumns)
	}
	return tw.Flush()
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSampleWidth {
		return s
	}
	return string(runes[:maxSampleWidth-3]) + "..."
}
