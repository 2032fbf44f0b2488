package postgres

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"
)

// TableCount is the outcome of counting one table during a smoke check.
type TableCount struct {
	Table string
	Count int64
	Err   error
}

var smokeTables = []string{"users", "offers"}

// SmokeCheck counts the rows of the users and offers tables and logs each result.
// A failing table does not stop the check; the error is reported in its TableCount.
func SmokeCheck(ctx context.Context, db *sql.DB, logger *logrus.Logger) []TableCount {
	out := make([]TableCount, 0, len(smokeTables))
	for _, table := range smokeTables {
		res := TableCount{Table: table}
		// table names come from the fixed list above
		res.Err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&res.Count)
		if res.Err != nil {
			logger.WithError(res.Err).WithField("table", table).Error("smoke check query failed")
		} else {
			logger.WithFields(logrus.Fields{"table": table, "count": res.Count}).Info("smoke check ok")
		}
		out = append(out, res)
	}
	return out
}
