package model

import "fmt"

// DictionaryEntry is one physical column of one physical table in a data dictionary.
// (TableName, ColumnName) identifies an entry.
type DictionaryEntry struct {
	TableName         string `json:"tableName" yaml:"table_name"`
	ColumnName        string `json:"columnName" yaml:"column_name"`
	LogicalTableName  string `json:"logicalTableName,omitempty" yaml:"logical_table_name,omitempty"`
	LogicalColumnName string `json:"logicalColumnName,omitempty" yaml:"logical_column_name,omitempty"`
	Description       string `json:"description,omitempty" yaml:"description,omitempty"`
	DataType          string `json:"dataType,omitempty" yaml:"data_type,omitempty"`
	IsPrimaryKey      bool   `json:"isPrimaryKey" yaml:"is_primary_key"`
	IsForeignKey      bool   `json:"isForeignKey" yaml:"is_foreign_key"`
	IsNullable        bool   `json:"isNullable" yaml:"is_nullable"`
}

// Key returns the identity of the entry.
func (e DictionaryEntry) Key() EntryKey {
	return EntryKey{TableName: e.TableName, ColumnName: e.ColumnName}
}

// EntryKey identifies a dictionary entry.
type EntryKey struct {
	TableName  string
	ColumnName string
}

// String returns "table.column".
func (k EntryKey) String() string {
	return k.TableName + "." + k.ColumnName
}

// MappingStatus tells the caller whether a match can be offered as a suggestion.
type MappingStatus string

const (
	// MappingStatusMapped means a single best entry scored at or above the suggest threshold
	MappingStatusMapped MappingStatus = "mapped"
	// MappingStatusAmbiguous means several entries tie at a best score at or above the suggest threshold
	MappingStatusAmbiguous MappingStatus = "ambiguous"
	// MappingStatusUnmapped means no entry reached the suggest threshold
	MappingStatusUnmapped MappingStatus = "unmapped"
)

// MatchCandidate is the scored best match of one source column against one dictionary table.
//
// DictionaryEntry is nil when there is no entry at all or when several entries tie
// at the best score; in the latter case every tied entry is listed in CandidateMatches
// and the caller decides with Resolve.
type MatchCandidate struct {
	SourceColumnName string            `json:"sourceColumnName" yaml:"source_column_name"`
	DictionaryEntry  *DictionaryEntry  `json:"dictionaryEntry" yaml:"dictionary_entry"`
	SimilarityScore  float64           `json:"similarityScore" yaml:"similarity_score"`
	CandidateMatches []DictionaryEntry `json:"candidateMatches" yaml:"candidate_matches"`
	MappingStatus    MappingStatus     `json:"mappingStatus" yaml:"mapping_status"`
}

// IsTie reports whether more than one entry shares the best score.
func (m MatchCandidate) IsTie() bool {
	return len(m.CandidateMatches) > 1
}

// Resolve picks one of the tied candidates by column name and returns the updated match.
// A match that was ambiguous becomes mapped.
func (m MatchCandidate) Resolve(columnName string) (MatchCandidate, error) {
	for _, entry := range m.CandidateMatches {
		if entry.ColumnName != columnName {
			continue
		}
		chosen := entry
		resolved := m
		resolved.DictionaryEntry = &chosen
		resolved.CandidateMatches = []DictionaryEntry{chosen}
		if m.MappingStatus == MappingStatusAmbiguous {
			resolved.MappingStatus = MappingStatusMapped
		}
		return resolved, nil
	}
	return m, fmt.Errorf("%w: %s for source column %s", ErrNotCandidate, columnName, m.SourceColumnName)
}

// TableMatchStatistics is the aggregate match quality of a dictionary table against a source schema.
type TableMatchStatistics struct {
	TableName          string  `json:"tableName" yaml:"table_name"`
	MatchedColumns     int     `json:"matchedColumns" yaml:"matched_columns"`
	UnmatchedColumns   int     `json:"unmatchedColumns" yaml:"unmatched_columns"`
	AverageColumnScore float64 `json:"averageColumnScore" yaml:"average_column_score"`
	// ConfidenceScore is the percentage (0-100) of source columns confidently matched.
	ConfidenceScore    float64 `json:"confidenceScore" yaml:"confidence_score"`
}
