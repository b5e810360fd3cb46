package catalog_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nao1215/catalog"
	"github.com/nao1215/catalog/domain/model"
)

func ExampleInferType() {
	fmt.Println(catalog.InferType([]any{"007", "42"}))
	fmt.Println(catalog.InferType([]any{"3.0", "1.25"}))
	fmt.Println(catalog.InferType([]any{"1", "2.5"}))
	fmt.Println(catalog.InferType([]any{"2024-01-15", "", nil}))
	fmt.Println(catalog.InferType(nil))
	// Output:
	// integer
	// number
	// mixed
	// date
	// string
}

func ExampleScoreColumnPair() {
	fmt.Printf("%.2f\n", catalog.ScoreColumnPair("email", "Email"))
	fmt.Printf("%.2f\n", catalog.ScoreColumnPair("email", "email_address"))
	fmt.Printf("%.2f\n", catalog.ScoreColumnPair("id", "zip"))
	// Output:
	// 1.00
	// 0.50
	// 0.00
}

func ExampleMatchColumnsToTable() {
	entries := []model.DictionaryEntry{
		{TableName: "customers", ColumnName: "cust_id"},
		{TableName: "customers", ColumnName: "email_address"},
	}

	candidates, err := catalog.MatchColumnsToTable([]string{"cust_id", "email", "zip"}, entries)
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range candidates {
		fmt.Printf("%s -> %s (%.2f)\n", c.SourceColumnName, c.MappingStatus, c.SimilarityScore)
	}
	// Output:
	// cust_id -> mapped (1.00)
	// email -> mapped (0.50)
	// zip -> unmapped (0.00)
}

func ExampleRankCandidateTables() {
	entries := []model.DictionaryEntry{
		{TableName: "orders", ColumnName: "order_total"},
		{TableName: "orders", ColumnName: "placed_at"},
		{TableName: "customers", ColumnName: "cust_id"},
		{TableName: "customers", ColumnName: "email"},
	}

	ranking, err := catalog.RankCandidateTables([]string{"cust_id", "email"}, entries)
	if err != nil {
		log.Fatal(err)
	}
	for _, stats := range ranking {
		fmt.Printf("%s %.1f%% matched=%d\n", stats.TableName, stats.ConfidenceScore, stats.MatchedColumns)
	}
	// Output:
	// customers 100.0% matched=2
	// orders 0.0% matched=0
}

func ExampleIngestor_ParseReader() {
	ingestor, err := catalog.NewIngestor()
	if err != nil {
		log.Fatal(err)
	}

	data := "id,price,active\n1,9.99,true\n2,12.50,false\n"
	sample, err := ingestor.ParseReader(context.Background(), strings.NewReader(data), catalog.FileTypeCSV, "products")
	if err != nil {
		log.Fatal(err)
	}
	schema, err := catalog.InferSchema(sample)
	if err != nil {
		log.Fatal(err)
	}
	for _, column := range schema {
		fmt.Println(column.Name, column.Type)
	}
	// Output:
	// id integer
	// price number
	// active boolean
}
