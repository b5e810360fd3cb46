// Command catalog infers the schema of data files and matches their columns
// against a data dictionary.
//
//	catalog infer users.csv orders.json.gz
//	catalog rank users.csv --dictionary dictionary.xlsx
//	catalog match users.csv --dictionary dictionary.csv --table customers
//	catalog rank users.csv --driver pgx --dsn "postgres://localhost/meta"
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
