package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// IsUniqueViolation reports whether err was raised by a unique or primary key constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var (
		sqliteErr sqlite3.Error
		mysqlErr  *mysql.MySQLError
		pgErr     pgdriver.Error
	)
	switch {
	case errors.As(err, &sqliteErr):
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	case errors.As(err, &mysqlErr):
		return mysqlErr.Number == mysqlDuplicateEntry
	case errors.As(err, &pgErr):
		return pgErr.Field('C') == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}

// IsForeignKeyViolation reports whether err was raised by a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var (
		sqliteErr sqlite3.Error
		mysqlErr  *mysql.MySQLError
		pgErr     pgdriver.Error
	)
	switch {
	case errors.As(err, &sqliteErr):
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	case errors.As(err, &mysqlErr):
		return mysqlErr.Number == mysqlRowIsReferenced || mysqlErr.Number == mysqlNoReferencedRow
	case errors.As(err, &pgErr):
		return pgErr.Field('C') == pgForeignKeyViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}
