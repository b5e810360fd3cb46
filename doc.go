// Package catalog infers the schema of uploaded data files and matches their
// columns against a data dictionary.
//
// It has two engines and a parser layer that feeds them:
//
//   - The type inference engine looks at a handful of sample values per column
//     and assigns a semantic type tag: integer, number, boolean, date, array,
//     object, string, or mixed when the sample disagrees with itself.
//   - The column matcher scores column names against dictionary columns with a
//     bigram Dice coefficient, picks the best match per column, and ranks the
//     dictionary's tables by how many columns they confidently cover.
//   - The Ingestor reads CSV, TSV, LTSV, Parquet, Excel (XLSX), JSON/NDJSON and XML
//     files, optionally compressed with gzip, bzip2, xz or zstandard, and samples
//     their first rows.
//
// # Basic Usage
//
//	ingestor, err := catalog.NewIngestor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := ingestor.IngestFile(ctx, "customers.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, column := range result.Schema {
//	    fmt.Println(column.Name, column.Type)
//	}
//
//	ranking, err := catalog.RankCandidateTables(result.Schema.Names(), entries)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("best table:", ranking[0].TableName)
//
// # Type Inference
//
// InferType ignores nil and blank values; an all-blank sample is a string column.
// Text is classified by pattern, so "007" is an integer and "3.0" is a number.
// Values that already carry a Go type (from Parquet or JSON) are classified by
// that type. The first rule that matches a value wins:
//
//	integer  ^-?\d+$
//	number   ^-?\d+\.\d+$
//	boolean  true / false (any case)
//	date     ISO-8601 timestamps and common date layouts
//	array    JSON arrays, repeated XML elements
//	object   JSON objects, nested XML elements
//	string   anything else
//
// A user can override an inferred type with Schema.Reclassify.
//
// # Column Matching
//
// ScoreColumnPair lower-cases both names, folds accents and drops whitespace
// before comparing character bigrams. Identical names score 1; names shorter than
// two characters score 0 against anything else.
//
// MatchColumnsToTable keeps every entry tied at the best score. A tied match is
// "ambiguous" and has no DictionaryEntry until the caller picks one with
// MatchCandidate.Resolve. Matches below the suggest threshold (0.3) are "unmapped".
// ScoreTable counts a column as matched when its best score is above 0.6.
//
// Use NewMatcher to change thresholds, switch to the Levenshtein scorer, cache
// pair scores, or singularize words before comparing.
//
// # Table Naming
//
// Table names are derived from file paths:
//   - "users.csv" becomes table "users"
//   - "data.tsv.gz" becomes table "data"
//   - "/path/to/logs.ltsv" becomes table "logs"
//   - "sales.xlsx" with a configured sheet "Q1" becomes table "sales_Q1"
//
// # Configuration
//
// LoadConfig reads a YAML file with environment overrides (CATALOG_*); Config
// builds a Matcher, an Ingestor and a zap logger.
package catalog
