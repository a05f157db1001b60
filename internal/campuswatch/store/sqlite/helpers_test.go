package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BrandonDHaskell/campuswatch/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production. The connection is closed automatically when
// the test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Shared cache keeps the in-memory database alive for the lifetime of
	// the pool even if sql.DB recycles the underlying conn.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed on cleanup.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func seedRoom(t *testing.T, conn *sql.DB, id int64, name string) {
	t.Helper()
	nowMs := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO rooms(id, name, location, is_active, created_at_ms, updated_at_ms)
VALUES (?, ?, '', 1, ?, ?);`, id, name, nowMs, nowMs)
	if err != nil {
		t.Fatalf("seedRoom(%d): %v", id, err)
	}
}

func seedStudent(t *testing.T, conn *sql.DB, id int64, active bool) {
	t.Helper()
	nowMs := time.Now().UTC().UnixMilli()
	a := 0
	if active {
		a = 1
	}
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO students(id, full_name, is_active, created_at_ms, updated_at_ms)
VALUES (?, 'Test Student', ?, ?, ?);`, id, a, nowMs, nowMs)
	if err != nil {
		t.Fatalf("seedStudent(%d): %v", id, err)
	}
}
