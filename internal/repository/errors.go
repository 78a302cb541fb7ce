// Package repository holds the MySQL data access layer.  Repositories return
// errs.ErrNotFound for missing rows and errs.ErrEmailExists when the unique
// email index rejects an insert; all other driver errors pass through.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/streaming-catalog/internal/errs"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows to errs.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// likePattern builds a case-insensitive substring pattern for LIKE with the
// wildcard characters of the input escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// orderBy resolves a client sort field against a whitelist of columns.
// Unknown fields fall back to def.
func orderBy(columns map[string]string, field string, desc bool, def string) string {
	col, ok := columns[field]
	if !ok {
		col = def
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
