// internal/words/sqlite.go
//
// SQLite-backed word source.
// Expects a table `words` with a TEXT column `word`; rows are read in rowid order.
// The database is opened read-only and closed before returning.

package words

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// LoadSQLite reads every row of the words table at path.
func LoadSQLite(path string) ([]string, error) {
	// sqlite3 would silently create a missing file even in ro mode on some builds.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT word FROM words ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var w sql.NullString
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		if w.Valid {
			raw = append(raw, w.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := Normalize(raw)
	log.Debug().Str("path", path).Int("rows", len(raw)).Int("words", len(out)).Msg("loaded sqlite word source")
	return out, nil
}
