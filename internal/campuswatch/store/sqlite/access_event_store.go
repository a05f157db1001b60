package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
	dbpkg "github.com/BrandonDHaskell/campuswatch/internal/db"
)

type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

func (s *AccessEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) (int64, error) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = rec.ReceivedAt
	}

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO access_events(
  device_id, student_id, result, reason,
  transport, connectivity, reader_model, frequency, card_id,
  occurred_at_ms, received_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.DeviceID, rec.StudentID, string(rec.Result), string(rec.Reason),
			rec.Meta.Transport, rec.Meta.Connectivity, rec.Meta.ReaderModel, rec.Meta.Frequency,
			nullableString(rec.Meta.CardID),
			rec.OccurredAt.UTC().UnixMilli(), rec.ReceivedAt.UTC().UnixMilli(),
		)
		if err != nil {
			return mapWriteError("RecordEvent insert", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (s *AccessEventStore) ListEvents(ctx context.Context, f store.EventFilter) ([]store.AccessEventRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.DeviceID != 0 {
		where = append(where, "device_id = ?")
		args = append(args, f.DeviceID)
	}
	if !f.Since.IsZero() {
		where = append(where, "occurred_at_ms >= ?")
		args = append(args, f.Since.UTC().UnixMilli())
	}

	q := `
SELECT id, device_id, student_id, result, reason,
       transport, connectivity, reader_model, frequency, card_id,
       occurred_at_ms, received_at_ms
FROM access_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY occurred_at_ms DESC, id DESC LIMIT ?;"
	args = append(args, limitOrDefault(f.Limit))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ListEvents query: %w", err)
	}
	defer rows.Close()

	var out []store.AccessEventRecord
	for rows.Next() {
		var (
			rec        store.AccessEventRecord
			result     string
			reason     string
			cardID     sql.NullString
			occurredMs int64
			receivedMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.StudentID, &result, &reason,
			&rec.Meta.Transport, &rec.Meta.Connectivity, &rec.Meta.ReaderModel, &rec.Meta.Frequency, &cardID,
			&occurredMs, &receivedMs); err != nil {
			return nil, fmt.Errorf("ListEvents scan: %w", err)
		}
		rec.Result = types.AccessResult(result)
		rec.Reason = types.AccessReason(reason)
		rec.Meta.CardID = cardID.String
		rec.OccurredAt = time.UnixMilli(occurredMs).UTC()
		rec.ReceivedAt = time.UnixMilli(receivedMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
