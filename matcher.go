package catalog

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nao1215/catalog/domain/model"
)

// Matching thresholds
const (
	// DefaultSuggestThreshold is the minimum score for a match to be offered as a suggestion
	DefaultSuggestThreshold = 0.3
	// DefaultConfidentThreshold is the score a best match must exceed to count as confidently matched
	DefaultConfidentThreshold = 0.6
)

// Matcher matches source columns to data dictionary columns.
// A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	suggestThreshold   float64
	confidentThreshold float64
	scorer             Scorer
	logicalNames       bool
	normalizer         nameNormalizer
	logger             *zap.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithSuggestThreshold sets the score below which a match is reported as unmapped.
func WithSuggestThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.suggestThreshold = threshold
	}
}

// WithConfidentThreshold sets the score a best match must exceed to be counted by ScoreTable.
func WithConfidentThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.confidentThreshold = threshold
	}
}

// WithScorer replaces the default Dice scorer.
func WithScorer(scorer Scorer) MatcherOption {
	return func(m *Matcher) {
		m.scorer = scorer
	}
}

// WithLogicalNames controls whether logical column names are scored as well.
// When enabled, an entry scores the better of its physical and logical column name.
func WithLogicalNames(enabled bool) MatcherOption {
	return func(m *Matcher) {
		m.logicalNames = enabled
	}
}

// WithSingularize singularizes every word of both names before scoring ("orders_ids" ~ "order_id").
func WithSingularize(enabled bool) MatcherOption {
	return func(m *Matcher) {
		m.normalizer.singularize = enabled
	}
}

// WithMatcherLogger sets the logger used for debug output while ranking.
func WithMatcherLogger(logger *zap.Logger) MatcherOption {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMatcher creates a Matcher. Thresholds must lie in [0,1] and the suggest
// threshold may not exceed the confident threshold.
func NewMatcher(opts ...MatcherOption) (*Matcher, error) {
	m := &Matcher{
		suggestThreshold:   DefaultSuggestThreshold,
		confidentThreshold: DefaultConfidentThreshold,
		scorer:             DiceScorer{},
		logicalNames:       true,
		logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.scorer == nil {
		return nil, fmt.Errorf("%w: scorer cannot be nil", ErrInvalidConfig)
	}
	if !inUnitInterval(m.suggestThreshold) {
		return nil, fmt.Errorf("%w: suggest threshold %v is outside [0,1]", ErrInvalidConfig, m.suggestThreshold)
	}
	if !inUnitInterval(m.confidentThreshold) {
		return nil, fmt.Errorf("%w: confident threshold %v is outside [0,1]", ErrInvalidConfig, m.confidentThreshold)
	}
	if m.suggestThreshold > m.confidentThreshold {
		return nil, fmt.Errorf("%w: suggest threshold %v exceeds confident threshold %v",
			ErrInvalidConfig, m.suggestThreshold, m.confidentThreshold)
	}
	m.logger = m.logger.Named("matcher")
	return m, nil
}

// inUnitInterval reports whether t lies in [0,1]. NaN does not.
func inUnitInterval(t float64) bool {
	return t >= 0 && t <= 1
}

// defaultMatcher backs the package-level functions.
var defaultMatcher = func() *Matcher {
	m, err := NewMatcher()
	if err != nil {
		panic(err)
	}
	return m
}()

// MatchColumnsToTable matches every source column against the entries of one dictionary table
// using the default Matcher.
func MatchColumnsToTable(sourceColumns []string, entries []model.DictionaryEntry) ([]model.MatchCandidate, error) {
	return defaultMatcher.MatchColumnsToTable(sourceColumns, entries)
}

// ScoreTable computes match statistics of one dictionary table using the default Matcher.
func ScoreTable(sourceColumns []string, entries []model.DictionaryEntry) (model.TableMatchStatistics, error) {
	return defaultMatcher.ScoreTable(sourceColumns, entries)
}

// RankCandidateTables scores every table of a dictionary using the default Matcher.
func RankCandidateTables(sourceColumns []string, entries []model.DictionaryEntry) ([]model.TableMatchStatistics, error) {
	return defaultMatcher.RankCandidateTables(sourceColumns, entries)
}

// Score returns the similarity of two column names under this matcher's normalization and scorer.
func (m *Matcher) Score(sourceColumnName, dictionaryColumnName string) float64 {
	return m.scorer.Score(m.normalizer.normalize(sourceColumnName), m.normalizer.normalize(dictionaryColumnName))
}

// MatchColumnsToTable returns one MatchCandidate per source column, in source order.
//
// Every entry must belong to the same table. The highest-scoring entry is the best
// match; when several entries share the highest score they are all kept in
// CandidateMatches and the match is left unresolved (ambiguous) for the caller.
// Matches below the suggest threshold are kept but flagged unmapped.
func (m *Matcher) MatchColumnsToTable(sourceColumns []string, entries []model.DictionaryEntry) ([]model.MatchCandidate, error) {
	if _, err := tableOf(entries); err != nil {
		return nil, err
	}
	return m.matchColumns(sourceColumns, m.prepareEntries(entries)), nil
}

// ScoreTable matches the source columns against one table and aggregates the result.
//
// MatchedColumns counts best scores strictly above the confident threshold.
// ConfidenceScore is MatchedColumns as a percentage of the source columns and is 0
// when there are no source columns. AverageColumnScore is the mean best score, where
// a column without any candidate contributes 0.
func (m *Matcher) ScoreTable(sourceColumns []string, entries []model.DictionaryEntry) (model.TableMatchStatistics, error) {
	tableName, err := tableOf(entries)
	if err != nil {
		return model.TableMatchStatistics{}, err
	}
	return m.scoreTable(tableName, sourceColumns, m.prepareEntries(entries)), nil
}

// RankCandidateTables groups entries by table, scores each table and returns the
// statistics ordered by confidence (desc), average score (desc), then table name (asc).
// An empty dictionary yields an empty ranking.
func (m *Matcher) RankCandidateTables(sourceColumns []string, entries []model.DictionaryEntry) ([]model.TableMatchStatistics, error) {
	ranking := make([]model.TableMatchStatistics, 0)
	if len(entries) == 0 {
		return ranking, nil
	}
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	var tableNames []string
	groups := make(map[string][]preparedEntry)
	for _, entry := range m.prepareEntries(entries) {
		name := entry.TableName
		if _, ok := groups[name]; !ok {
			tableNames = append(tableNames, name)
		}
		groups[name] = append(groups[name], entry)
	}

	for _, name := range tableNames {
		ranking = append(ranking, m.scoreTable(name, sourceColumns, groups[name]))
	}

	sort.Slice(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		if a.AverageColumnScore != b.AverageColumnScore {
			return a.AverageColumnScore > b.AverageColumnScore
		}
		return a.TableName < b.TableName
	})

	if ce := m.logger.Check(zap.DebugLevel, "Ranked candidate tables"); ce != nil {
		best := ranking[0]
		ce.Write(
			zap.Int("source_columns", len(sourceColumns)),
			zap.Int("tables", len(ranking)),
			zap.String("best_table", best.TableName),
			zap.Float64("best_confidence", best.ConfidenceScore))
	}
	return ranking, nil
}

// preparedEntry is a dictionary entry with its names normalized once.
type preparedEntry struct {
	model.DictionaryEntry
	physical string
	logical  string
}

func (m *Matcher) prepareEntries(entries []model.DictionaryEntry) []preparedEntry {
	prepared := make([]preparedEntry, len(entries))
	for i, entry := range entries {
		prepared[i] = preparedEntry{
			DictionaryEntry: entry,
			physical:        m.normalizer.normalize(entry.ColumnName),
		}
		if m.logicalNames && strings.TrimSpace(entry.LogicalColumnName) != "" {
			prepared[i].logical = m.normalizer.normalize(entry.LogicalColumnName)
		}
	}
	return prepared
}

func (m *Matcher) scoreEntry(source string, entry preparedEntry) float64 {
	score := m.scorer.Score(source, entry.physical)
	if entry.logical != "" {
		score = max(score, m.scorer.Score(source, entry.logical))
	}
	return score
}

func (m *Matcher) matchColumns(sourceColumns []string, entries []preparedEntry) []model.MatchCandidate {
	candidates := make([]model.MatchCandidate, 0, len(sourceColumns))
	for _, column := range sourceColumns {
		candidates = append(candidates, m.matchColumn(column, entries))
	}
	return candidates
}

func (m *Matcher) matchColumn(sourceColumn string, entries []preparedEntry) model.MatchCandidate {
	candidate := model.MatchCandidate{
		SourceColumnName: sourceColumn,
		CandidateMatches: []model.DictionaryEntry{},
		MappingStatus:    model.MappingStatusUnmapped,
	}
	if len(entries) == 0 {
		return candidate
	}

	source := m.normalizer.normalize(sourceColumn)
	best := -1.0
	var tied []model.DictionaryEntry
	for _, entry := range entries {
		score := m.scoreEntry(source, entry)
		switch {
		case score > best:
			best = score
			tied = []model.DictionaryEntry{entry.DictionaryEntry}
		case score == best:
			tied = append(tied, entry.DictionaryEntry)
		}
	}

	candidate.SimilarityScore = best
	candidate.CandidateMatches = tied
	if len(tied) == 1 {
		chosen := tied[0]
		candidate.DictionaryEntry = &chosen
	}

	if best >= m.suggestThreshold {
		if len(tied) == 1 {
			candidate.MappingStatus = model.MappingStatusMapped
		} else {
			candidate.MappingStatus = model.MappingStatusAmbiguous
		}
	}
	return candidate
}

func (m *Matcher) scoreTable(tableName string, sourceColumns []string, entries []preparedEntry) model.TableMatchStatistics {
	stats := model.TableMatchStatistics{TableName: tableName}
	total := len(sourceColumns)
	if total == 0 {
		return stats
	}

	sum := 0.0
	for _, candidate := range m.matchColumns(sourceColumns, entries) {
		sum += candidate.SimilarityScore
		if candidate.SimilarityScore > m.confidentThreshold {
			stats.MatchedColumns++
		}
	}
	stats.UnmatchedColumns = total - stats.MatchedColumns
	stats.AverageColumnScore = sum / float64(total)
	stats.ConfidenceScore = float64(stats.MatchedColumns) / float64(total) * 100
	return stats
}

// tableOf validates that all entries belong to one table and returns its name.
// An empty entry list belongs to no table and is not an error.
func tableOf(entries []model.DictionaryEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := validateEntries(entries); err != nil {
		return "", err
	}
	tableName := entries[0].TableName
	for _, entry := range entries[1:] {
		if entry.TableName != tableName {
			return "", fmt.Errorf("%w: entries span tables %q and %q", ErrInvalidShape, tableName, entry.TableName)
		}
	}
	return tableName, nil
}

// validateEntries rejects blank names and duplicate (table, column) keys.
func validateEntries(entries []model.DictionaryEntry) error {
	seen := make(map[model.EntryKey]bool, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.TableName) == "" || strings.TrimSpace(entry.ColumnName) == "" {
			return fmt.Errorf("%w: dictionary entry %d has an empty table or column name", ErrInvalidShape, i+1)
		}
		key := entry.Key()
		if seen[key] {
			return fmt.Errorf("%w: duplicate dictionary entry %s", ErrInvalidShape, key)
		}
		seen[key] = true
	}
	return nil
}
