package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// TestInitDBCreatesSchema verifies InitDB creates every catalog table and the
// polymorphic parent columns on the child tables.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	// Running twice must be harmless.
	if err := InitDB(dbConn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}

	for table := range countableTables {
		var name string
		if err := dbConn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}

	for _, table := range childTables {
		rows, err := dbConn.Query("PRAGMA table_info(" + table + ")")
		if err != nil {
			t.Fatalf("pragmas: %v", err)
		}
		cols := map[string]bool{}
		for rows.Next() {
			var cid int
			var colName, ctype string
			var notnull, pk int
			var dfltVal interface{}
			if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
				t.Fatalf("scan col: %v", err)
			}
			cols[colName] = true
		}
		rows.Close()
		if !cols["radical_subject_id"] || !cols["kanji_subject_id"] || !cols["vocabulary_subject_id"] {
			t.Fatalf("expected three parent columns in %s, got %v", table, cols)
		}
	}
}
