package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/sqlops/mssql-workbench/internal/models"
)

// Row is a single result row keyed by column name.
type Row map[string]interface{}

// ServerInfo identifies a connected instance.
type ServerInfo struct {
	Name    string // @@SERVERNAME
	Version string // SERVERPROPERTY('ProductVersion')
	Edition string
}

// Session is the narrow contract the workflow code needs from a SQL Server
// connection. The production implementation is Client; tests substitute fakes.
type Session interface {
	// QueryMaps runs a query and returns all rows keyed by column name.
	QueryMaps(ctx context.Context, query string, args ...interface{}) ([]Row, error)

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, stmt string, args ...interface{}) error

	// ScalarString runs a query expected to return a single string value.
	// Returns "" with no error when the query returns no rows.
	ScalarString(ctx context.Context, query string, args ...interface{}) (string, error)

	// Info returns the identity discovered at connect time.
	Info() ServerInfo
}

// Client is a live connection to one SQL Server instance.
type Client struct {
	db   *sql.DB
	info ServerInfo
}

const connectTimeout = 15 * time.Second

// Connect resolves an instance into a live connection, verifying reachability
// and credentials and discovering the server identity. Failures are classified
// as ErrUnreachable or ErrAuth and carry the target identifier.
func Connect(ctx context.Context, inst *models.Instance) (*Client, error) {
	db, err := sql.Open("sqlserver", inst.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", inst.Address(), ErrUnreachable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, classifyConnectError(inst.Address(), err)
	}

	c := &Client{db: db}
	if err := c.discoverIdentity(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: discovering identity: %w", inst.Address(), err)
	}
	return c, nil
}

// classifyConnectError maps a driver error onto the connection error taxonomy.
func classifyConnectError(target string, err error) error {
	var sqlErr mssqldb.Error
	if errors.As(err, &sqlErr) {
		// 18456: login failed; 18452: untrusted domain
		if sqlErr.Number == 18456 || sqlErr.Number == 18452 {
			return fmt.Errorf("%s: %w: %v", target, ErrAuth, err)
		}
	}
	return fmt.Errorf("%s: %w: %v", target, ErrUnreachable, err)
}

func (c *Client) discoverIdentity(ctx context.Context) error {
	row := c.db.QueryRowContext(ctx,
		`SELECT @@SERVERNAME,
		        CAST(SERVERPROPERTY('ProductVersion') AS nvarchar(128)),
		        CAST(SERVERPROPERTY('Edition') AS nvarchar(128))`)
	return row.Scan(&c.info.Name, &c.info.Version, &c.info.Edition)
}

// Info returns the identity discovered at connect time.
func (c *Client) Info() ServerInfo {
	return c.info
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// QueryMaps runs a query and returns all rows keyed by column name.
func (c *Client) QueryMaps(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, stmt string, args ...interface{}) error {
	if _, err := c.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// ScalarString runs a query expected to return a single string value.
func (c *Client) ScalarString(ctx context.Context, query string, args ...interface{}) (string, error) {
	var v sql.NullString
	err := c.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	return v.String, nil
}
