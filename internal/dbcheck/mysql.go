package dbcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// ErrAccessDenied is returned when the database rejects the credentials.
var ErrAccessDenied = errors.New("database access denied")

// MySQL server error numbers for rejected credentials.
const (
	erDBAccessDenied uint16 = 1044
	erAccessDenied   uint16 = 1045
)

// IsAccessDenied reports whether err means the credentials were rejected.
// No retry can fix that.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccessDenied) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == erAccessDenied || mysqlErr.Number == erDBAccessDenied
	}
	return strings.Contains(err.Error(), "Access denied")
}

// MySQLConnector connects to the MariaDB of a wiki instance. The
// connection is opened lazily and must be closed with Close.
type MySQLConnector struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	mu sync.Mutex
	db *sqlx.DB
}

var _ Conn = (*MySQLConnector)(nil)

// DSN returns the data source name for the given connect timeout.
func (c *MySQLConnector) DSN(timeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	return cfg.FormatDSN()
}

// CurrentDatabase implements Conn. A failed query drops the connection so
// the next call connects afresh.
func (c *MySQLConnector) CurrentDatabase(ctx context.Context, timeout time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		db, err := sqlx.Open("mysql", c.DSN(timeout))
		if err != nil {
			return "", fmt.Errorf("open %s: %w", c.Database, err)
		}
		db.SetMaxOpenConns(1)
		c.db = db
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var name sql.NullString
	if err := c.db.GetContext(ctx, &name, "SELECT database()"); err != nil {
		c.db.Close()
		c.db = nil
		return "", fmt.Errorf("connection to %s on %s with user %s failed: %w", c.Database, c.Host, c.User, err)
	}
	return name.String, nil
}

// Close closes the connection. It is safe to call when never connected.
func (c *MySQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
