package backend

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConnectionError means the store could not be reached. Fatal at startup,
// retryable per-call at the caller's discretion; the backend never retries.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database unreachable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError covers malformed SQL, constraint violations and mid-query
// failures that are not connection loss.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// StatementInvalid means a cached prepared statement went stale and could
// not be re-prepared.
type StatementInvalid struct {
	Query string
	Err   error
}

func (e *StatementInvalid) Error() string {
	return fmt.Sprintf("cached statement for %q is invalid: %v", e.Query, e.Err)
}

func (e *StatementInvalid) Unwrap() error { return e.Err }

func isConnLoss(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) {
		return true
	}
	// database/sql keeps these sentinels unexported.
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}

func isStmtClosed(err error) bool {
	return strings.Contains(err.Error(), "statement is closed")
}

// wrapQueryErr maps a driver failure onto the backend's taxonomy.
func wrapQueryErr(query string, err error) error {
	if isConnLoss(err) {
		return &ConnectionError{Err: err}
	}
	return &QueryError{Query: query, Err: err}
}
