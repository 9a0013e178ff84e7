// Package database provides connections to embedded database files for GoExtract.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "github.com/nakagami/firebirdsql" // Firebird driver
	_ "modernc.org/sqlite"              // SQLite driver

	"github.com/dbsmedya/goextract/internal/config"
	"github.com/dbsmedya/goextract/internal/types"
)

// ConnectionDescriptor is everything needed to open one database file.
type ConnectionDescriptor struct {
	Host             string
	Path             string
	User             string
	Password         string
	SuppressTriggers bool // ask the engine not to fire database-level triggers
}

// DSN returns the "<host>:<path>" form used to identify the database.
func (c ConnectionDescriptor) DSN() string {
	return c.Host + ":" + c.Path
}

// ResultSet holds every row returned by a query, in fetch order.
type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

// Client runs a single statement against a database and returns all rows.
type Client interface {
	Query(ctx context.Context, conn ConnectionDescriptor, query string) (*ResultSet, error)
}

// OpenFunc opens a *sql.DB; it matches sql.Open.
type OpenFunc func(driverName, dsn string) (*sql.DB, error)

// SQLClient implements Client over database/sql. Each Query opens its own
// connection and closes it before returning, even when the query fails.
type SQLClient struct {
	driver string
	open   OpenFunc
}

// NewSQLClient creates a client for one of the supported drivers.
func NewSQLClient(driver string) (*SQLClient, error) {
	if _, err := sqlDriverName(driver); err != nil {
		return nil, err
	}
	return &SQLClient{driver: driver, open: sql.Open}, nil
}

// WithOpener replaces the function used to open connections.
func (c *SQLClient) WithOpener(open OpenFunc) *SQLClient {
	c.open = open
	return c
}

// Driver returns the configured driver name.
func (c *SQLClient) Driver() string {
	return c.driver
}

// Query connects, executes query, fetches every row and disconnects.
func (c *SQLClient) Query(ctx context.Context, conn ConnectionDescriptor, query string) (result *ResultSet, err error) {
	driverName, err := sqlDriverName(c.driver)
	if err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(c.driver, conn)
	if err != nil {
		return nil, err
	}

	db, err := c.open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", conn.DSN(), err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", conn.DSN(), closeErr)
		}
	}()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", conn.DSN(), err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result = &ResultSet{Columns: columns, Rows: make([][]interface{}, 0)}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(result.Rows)+1, err)
		}
		result.Rows = append(result.Rows, types.NormalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// sqlDriverName maps a configured driver to its database/sql registration name.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverFirebird:
		return "firebirdsql", nil
	case config.DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// BuildDSN constructs a driver-specific DSN from a connection descriptor.
//
// Firebird: user:password@host//absolute/path.fdb?no_db_triggers=true
// SQLite:   file:/absolute/path.db?_pragma=query_only(1)
func BuildDSN(driver string, conn ConnectionDescriptor) (string, error) {
	switch driver {
	case config.DriverFirebird:
		return buildFirebirdDSN(conn), nil
	case config.DriverSQLite:
		return buildSQLiteDSN(conn), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func buildFirebirdDSN(conn ConnectionDescriptor) string {
	u := url.URL{
		User: url.UserPassword(conn.User, conn.Password),
		Host: conn.Host,
		Path: "/" + filepath.ToSlash(conn.Path),
	}
	if conn.SuppressTriggers {
		u.RawQuery = "no_db_triggers=true"
	}
	return strings.TrimPrefix(u.String(), "//")
}

func buildSQLiteDSN(conn ConnectionDescriptor) string {
	u := url.URL{Path: filepath.ToSlash(conn.Path)}
	dsn := "file:" + u.EscapedPath()
	if conn.SuppressTriggers {
		// SQLite triggers only fire on writes; a query-only session cannot fire them.
		dsn += "?_pragma=query_only(1)"
	}
	return dsn
}
