// Package errors classifies storage errors returned by GORM and the MySQL driver.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// DatabaseErrorType is the category of a storage error.
type DatabaseErrorType int

const (
	ErrorTypeUnknown DatabaseErrorType = iota
	// ErrorTypeDuplicateKey is a primary or unique key violation (MySQL 1062).
	ErrorTypeDuplicateKey
	ErrorTypeNotFound
	// ErrorTypeDataTooLong is a value wider than its column (MySQL 1406).
	ErrorTypeDataTooLong
	// ErrorTypeInvalidValue covers NULL and truncation errors (MySQL 1048, 1265, 1366).
	ErrorTypeInvalidValue
	// ErrorTypeDeadlock is a lock wait failure (MySQL 1205, 1213).
	ErrorTypeDeadlock
	ErrorTypeConnectionError
)

func (t DatabaseErrorType) String() string {
	switch t {
	case ErrorTypeDuplicateKey:
		return "duplicate_key"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeDataTooLong:
		return "data_too_long"
	case ErrorTypeInvalidValue:
		return "invalid_value"
	case ErrorTypeDeadlock:
		return "deadlock"
	case ErrorTypeConnectionError:
		return "connection"
	default:
		return "unknown"
	}
}

// DatabaseError wraps a storage error with its classification.
type DatabaseError struct {
	Type         DatabaseErrorType
	OriginalErr  error
	MySQLErrCode uint16
	Message      string
}

func (e *DatabaseError) Error() string {
	if e.MySQLErrCode > 0 {
		return fmt.Sprintf("%s (MySQL error %d): %v", e.Message, e.MySQLErrCode, e.OriginalErr)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
}

func (e *DatabaseError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyDBError maps an error from a repository call to a DatabaseError.
// It returns nil for a nil error.
//
// GORM's ErrRecordNotFound and ErrDuplicatedKey are recognised as well as the
// raw *mysql.MySQLError codes, so callers do not depend on whether the
// connection was opened with TranslateError.
func ClassifyDBError(err error) *DatabaseError {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &DatabaseError{Type: ErrorTypeNotFound, OriginalErr: err, Message: "record not found"}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DatabaseError{Type: ErrorTypeDuplicateKey, OriginalErr: err, Message: "duplicate key constraint violation"}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return classifyMySQLError(err, mysqlErr)
	}

	if isConnectionError(err.Error()) {
		return &DatabaseError{Type: ErrorTypeConnectionError, OriginalErr: err, Message: "database connection error"}
	}

	return &DatabaseError{Type: ErrorTypeUnknown, OriginalErr: err, Message: "unknown database error"}
}

func classifyMySQLError(err error, mysqlErr *mysql.MySQLError) *DatabaseError {
	dbErr := &DatabaseError{OriginalErr: err, MySQLErrCode: mysqlErr.Number}

	switch mysqlErr.Number {
	case 1062: // ER_DUP_ENTRY
		dbErr.Type = ErrorTypeDuplicateKey
		dbErr.Message = "duplicate key constraint violation"
	case 1406: // ER_DATA_TOO_LONG
		dbErr.Type = ErrorTypeDataTooLong
		dbErr.Message = "data too long for column"
	case 1048, 1265, 1366:
		dbErr.Type = ErrorTypeInvalidValue
		dbErr.Message = "invalid or truncated value"
	case 1205, 1213:
		dbErr.Type = ErrorTypeDeadlock
		dbErr.Message = "lock wait failed"
	default:
		dbErr.Type = ErrorTypeUnknown
		dbErr.Message = "MySQL error"
	}

	return dbErr
}

var connectionKeywords = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"invalid connection",
	"bad connection",
	"dial tcp",
}

func isConnectionError(msg string) bool {
	msg = strings.ToLower(msg)
	for _, keyword := range connectionKeywords {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

// IsDuplicateKeyError reports whether err is a key constraint violation.
func IsDuplicateKeyError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeDuplicateKey
}

// IsNotFoundError reports whether err means no row matched.
func IsNotFoundError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeNotFound
}

// IsConnectionError reports whether err came from an unreachable database.
func IsConnectionError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeConnectionError
}
