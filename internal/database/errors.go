package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	mysqlDuplicateEntry   = 1062
	mysqlKeyMessagePrefix = "for key '"
)

// IsUniqueViolation reports whether err is a unique constraint violation raised by
// PostgreSQL or MySQL.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}

// ViolatedConstraint returns the name of the unique constraint or index reported by err,
// or an empty string when err is not a unique violation. MySQL reports the key as
// "table.index" on recent versions; only the index part is returned.
func ViolatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		idx := strings.LastIndex(myErr.Message, mysqlKeyMessagePrefix)
		if idx < 0 {
			return ""
		}
		key := strings.TrimSuffix(myErr.Message[idx+len(mysqlKeyMessagePrefix):], "'")
		if dot := strings.LastIndex(key, "."); dot >= 0 {
			key = key[dot+1:]
		}
		return key
	}
	return ""
}
