//go:build integration

package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nao1215/catalog/domain/model"
)

type dictionaryContainer struct {
	driver Driver
	dsn    string
}

func startContainer(t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start %s", req.Image)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	return container
}

func startPostgres(t *testing.T) dictionaryContainer {
	t.Helper()

	ctx := context.Background()
	container := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "catalog",
			"POSTGRES_USER":     "catalog",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return dictionaryContainer{
		driver: DriverPostgres,
		dsn:    fmt.Sprintf("postgres://catalog:test_password@%s:%s/catalog?sslmode=disable", host, port.Port()),
	}
}

func startSQLServer(t *testing.T) dictionaryContainer {
	t.Helper()

	ctx := context.Background()
	container := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mcr.microsoft.com/mssql/server:2022-latest",
		ExposedPorts: []string{"1433/tcp"},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": "Catalog_Test_Passw0rd",
		},
		WaitingFor: wait.ForLog("SQL Server is now ready for client connections").
			WithStartupTimeout(120 * time.Second),
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1433")
	require.NoError(t, err)
	return dictionaryContainer{
		driver: DriverSQLServer,
		dsn:    fmt.Sprintf("sqlserver://sa:Catalog_Test_Passw0rd@%s:%s?database=master", host, port.Port()),
	}
}

func seed(t *testing.T, c dictionaryContainer, statements ...string) {
	t.Helper()

	db, err := sql.Open(string(c.driver), c.dsn)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, statement := range statements {
		_, err := db.ExecContext(ctx, statement)
		require.NoError(t, err, statement)
	}
}

func TestSQLSource_Postgres(t *testing.T) {
	c := startPostgres(t)
	seed(t, c,
		`CREATE SCHEMA meta`,
		`CREATE TABLE meta.data_dictionary (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			logical_table_name TEXT,
			logical_column_name TEXT,
			description TEXT,
			data_type TEXT,
			is_primary_key BOOLEAN,
			is_foreign_key BOOLEAN,
			is_nullable BOOLEAN
		)`,
		`INSERT INTO meta.data_dictionary VALUES
			('customers', 'cust_id', 'Customer', 'Customer ID', NULL, 'integer', true, false, false),
			('customers', 'email', 'Customer', 'Email', 'contact', 'string', false, false, true)`,
	)

	mapping := DefaultMapping()
	mapping.Table = "meta.data_dictionary"
	src, err := Open(context.Background(), Config{Driver: "postgres", DSN: c.dsn, Mapping: mapping})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, src.Close())
	}()

	entries, err := src.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.DictionaryEntry{
		{
			TableName: "customers", ColumnName: "cust_id", LogicalTableName: "Customer", LogicalColumnName: "Customer ID",
			DataType: "integer", IsPrimaryKey: true,
		},
		{
			TableName: "customers", ColumnName: "email", LogicalTableName: "Customer", LogicalColumnName: "Email",
			Description: "contact", DataType: "string", IsNullable: true,
		},
	}, entries)
}

func TestSQLSource_SQLServer(t *testing.T) {
	c := startSQLServer(t)
	seed(t, c,
		`CREATE TABLE dbo.columns_catalog (tbl NVARCHAR(128) NOT NULL, col NVARCHAR(128) NOT NULL, pk BIT NULL)`,
		`INSERT INTO dbo.columns_catalog VALUES (N'orders', N'order_id', 1), (N'orders', N'total', NULL)`,
	)

	src, err := Open(context.Background(), Config{
		Driver:  "mssql",
		DSN:     c.dsn,
		Mapping: Mapping{Table: "dbo.columns_catalog", TableName: "tbl", ColumnName: "col", IsPrimaryKey: "pk"},
	})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, src.Close())
	}()

	entries, err := src.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.DictionaryEntry{
		{TableName: "orders", ColumnName: "order_id", IsPrimaryKey: true},
		{TableName: "orders", ColumnName: "total"},
	}, entries)
}
