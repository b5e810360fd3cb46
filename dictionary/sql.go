package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"  // PostgreSQL driver
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/catalog"
	"github.com/nao1215/catalog/domain/model"
)

// Driver is a database/sql driver name understood by Open.
type Driver string

const (
	// DriverSQLite is modernc.org/sqlite
	DriverSQLite Driver = "sqlite"
	// DriverPostgres is the pgx stdlib driver
	DriverPostgres Driver = "pgx"
	// DriverSQLServer is github.com/microsoft/go-mssqldb
	DriverSQLServer Driver = "sqlserver"
)

// ParseDriver converts a driver name, accepting common aliases.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlserver", "mssql":
		return DriverSQLServer, nil
	default:
		return "", fmt.Errorf("%w: unknown dictionary driver %q", catalog.ErrInvalidConfig, name)
	}
}

// quoteIdentifier quotes a possibly schema-qualified identifier for the driver's dialect.
func (d Driver) quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if d == DriverSQLServer {
			parts[i] = "[" + strings.ReplaceAll(part, "]", "]]") + "]"
		} else {
			parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
		}
	}
	return strings.Join(parts, ".")
}

// Mapping names the dictionary table and the columns holding each entry field.
// Optional columns may be left empty. The fields carry no env-default so that an
// empty YAML value stays empty; start from DefaultMapping before reading a config.
type Mapping struct {
	Table             string `yaml:"table" env:"CATALOG_DICTIONARY_TABLE"`
	TableName         string `yaml:"table_name"`
	ColumnName        string `yaml:"column_name"`
	LogicalTableName  string `yaml:"logical_table_name"`
	LogicalColumnName string `yaml:"logical_column_name"`
	Description       string `yaml:"description"`
	DataType          string `yaml:"data_type"`
	IsPrimaryKey      string `yaml:"is_primary_key"`
	IsForeignKey      string `yaml:"is_foreign_key"`
	IsNullable        string `yaml:"is_nullable"`
}

// DefaultMapping returns the mapping of a "data_dictionary" table with snake_case columns.
func DefaultMapping() Mapping {
	return Mapping{
		Table:             "data_dictionary",
		TableName:         "table_name",
		ColumnName:        "column_name",
		LogicalTableName:  "logical_table_name",
		LogicalColumnName: "logical_column_name",
		Description:       "description",
		DataType:          "data_type",
		IsPrimaryKey:      "is_primary_key",
		IsForeignKey:      "is_foreign_key",
		IsNullable:        "is_nullable",
	}
}

// Validate checks that the required names are present.
func (m Mapping) Validate() error {
	if strings.TrimSpace(m.Table) == "" {
		return fmt.Errorf("%w: dictionary table cannot be empty", catalog.ErrInvalidConfig)
	}
	if strings.TrimSpace(m.TableName) == "" || strings.TrimSpace(m.ColumnName) == "" {
		return fmt.Errorf("%w: table_name and column_name columns are required", catalog.ErrInvalidConfig)
	}
	return nil
}

// Config describes a database holding the dictionary.
type Config struct {
	Driver  Driver
	DSN     string
	Mapping Mapping
	// Timeout bounds the connection check in Open; zero means 10 seconds.
	Timeout time.Duration
	Logger  *zap.Logger
}

// SQLSource reads dictionary entries from a database table.
type SQLSource struct {
	db      *sql.DB
	driver  Driver
	mapping Mapping
	logger  *zap.Logger
	ownsDB  bool
}

// NewSQLSource creates a source over an existing connection. The caller keeps
// ownership of db; Close on the returned source does not close it.
func NewSQLSource(db *sql.DB, driver Driver, mapping Mapping, logger *zap.Logger) (*SQLSource, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if _, err := ParseDriver(string(driver)); err != nil {
		return nil, err
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLSource{
		db:      db,
		driver:  driver,
		mapping: mapping,
		logger:  logger.Named("dictionary"),
	}, nil
}

// Open connects to the database described by cfg and checks the connection.
// A zero Mapping means DefaultMapping.
func Open(ctx context.Context, cfg Config) (*SQLSource, error) {
	driver, err := ParseDriver(string(cfg.Driver))
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: dictionary DSN cannot be empty", catalog.ErrInvalidConfig)
	}
	mapping := cfg.Mapping
	if mapping == (Mapping{}) {
		mapping = DefaultMapping()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	db, err := sql.Open(string(driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	src, err := NewSQLSource(db, driver, mapping, cfg.Logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	src.ownsDB = true
	return src, nil
}

// Close closes the connection if Open created it.
func (s *SQLSource) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// selected returns the mapped column names in select order, skipping unmapped optional fields.
func (m Mapping) selected() []string {
	all := []string{
		m.TableName, m.ColumnName, m.LogicalTableName, m.LogicalColumnName,
		m.Description, m.DataType, m.IsPrimaryKey, m.IsForeignKey, m.IsNullable,
	}
	var columns []string
	for _, column := range all {
		if strings.TrimSpace(column) != "" {
			columns = append(columns, column)
		}
	}
	return columns
}

// query builds the SELECT statement for the mapping.
func (s *SQLSource) query() string {
	columns := s.mapping.selected()
	for i, column := range columns {
		columns[i] = s.driver.quoteIdentifier(column)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s, %s",
		strings.Join(columns, ", "),
		s.driver.quoteIdentifier(s.mapping.Table),
		s.driver.quoteIdentifier(s.mapping.TableName),
		s.driver.quoteIdentifier(s.mapping.ColumnName))
}

// Entries implements Source. Rows with a blank table or column name are skipped.
func (s *SQLSource) Entries(ctx context.Context) ([]model.DictionaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("query dictionary %s: %w", s.mapping.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read dictionary columns: %w", err)
	}

	var entries []model.DictionaryEntry
	rowNum := 0
	for rows.Next() {
		rowNum++
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan dictionary row %d: %w", rowNum, err)
		}

		entry, err := s.entryFromRow(values)
		if err != nil {
			return nil, fmt.Errorf("dictionary row %d: %w", rowNum, err)
		}
		if entry.TableName == "" || entry.ColumnName == "" {
			s.logger.Warn("Skipping dictionary row without table or column name", zap.Int("row", rowNum))
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dictionary rows: %w", err)
	}

	s.logger.Debug("Loaded dictionary",
		zap.String("driver", string(s.driver)),
		zap.String("table", s.mapping.Table),
		zap.Int("entries", len(entries)))
	return entries, nil
}

// entryFromRow maps scanned values, which follow the order built by query.
func (s *SQLSource) entryFromRow(values []any) (model.DictionaryEntry, error) {
	m := s.mapping
	var entry model.DictionaryEntry
	next := 0
	text := func(column string, target *string) {
		if strings.TrimSpace(column) == "" {
			return
		}
		*target = strings.TrimSpace(stringValue(values[next]))
		next++
	}
	flag := func(column string, target *bool) error {
		if strings.TrimSpace(column) == "" {
			return nil
		}
		v, err := catalog.ParseFlag(stringValue(values[next]))
		next++
		if err != nil {
			return fmt.Errorf("%s: %w", column, err)
		}
		*target = v
		return nil
	}

	text(m.TableName, &entry.TableName)
	text(m.ColumnName, &entry.ColumnName)
	text(m.LogicalTableName, &entry.LogicalTableName)
	text(m.LogicalColumnName, &entry.LogicalColumnName)
	text(m.Description, &entry.Description)
	text(m.DataType, &entry.DataType)
	if err := flag(m.IsPrimaryKey, &entry.IsPrimaryKey); err != nil {
		return model.DictionaryEntry{}, err
	}
	if err := flag(m.IsForeignKey, &entry.IsForeignKey); err != nil {
		return model.DictionaryEntry{}, err
	}
	if err := flag(m.IsNullable, &entry.IsNullable); err != nil {
		return model.DictionaryEntry{}, err
	}
	return entry, nil
}

// stringValue renders a scanned driver value.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
