package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	writeChannelSize = 256
	batchSize        = 50
	flushInterval    = 100 * time.Millisecond
)

// writeOp is either an entry to insert or, when done is set, a barrier the
// writer closes once everything queued before it is committed.
type writeOp struct {
	entry *LoadEntry
	done  chan struct{}
}

// SQLiteJournal persists entries through a single writer goroutine so that
// Record never blocks the caller on disk I/O.
type SQLiteJournal struct {
	db              *sql.DB
	logger          *slog.Logger
	writeChan       chan writeOp
	droppedWrites   atomic.Int64
	doneChan        chan struct{}
	closed          atomic.Bool
	closeOnce       sync.Once
	cancelMaint     context.CancelFunc
	maintenanceDone chan struct{}
	retentionDays   int
}

func NewSQLiteJournal(dbPath string, retentionDays int, logger *slog.Logger) (*SQLiteJournal, error) {
	return newSQLiteJournalWithChannelSize(dbPath, writeChannelSize, retentionDays, logger)
}

func newSQLiteJournalWithChannelSize(dbPath string, chanSize, retentionDays int, logger *slog.Logger) (*SQLiteJournal, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &SQLiteJournal{
		db:              db,
		logger:          logger.With("component", "journal"),
		writeChan:       make(chan writeOp, chanSize),
		doneChan:        make(chan struct{}),
		cancelMaint:     cancel,
		maintenanceDone: make(chan struct{}),
		retentionDays:   retentionDays,
	}

	if _, err := j.Prune(time.Now()); err != nil {
		j.logger.Warn("initial prune failed", "error", err)
	}

	go j.writerLoop()
	j.startMaintenance(ctx)

	return j, nil
}

// Record queues entry for insertion. A full queue drops the entry.
func (j *SQLiteJournal) Record(entry LoadEntry) {
	j.sendWrite(writeOp{entry: &entry})
}

func (j *SQLiteJournal) sendWrite(op writeOp) bool {
	if j.closed.Load() {
		return false
	}
	// Close may race with a send on the closed channel.
	defer func() { _ = recover() }()
	select {
	case j.writeChan <- op:
		return true
	default:
		j.droppedWrites.Add(1)
		j.logger.Warn("write channel full, dropped entry")
		return false
	}
}

// Sync waits until every entry recorded before the call is committed, or
// timeout elapses.
func (j *SQLiteJournal) Sync(timeout time.Duration) bool {
	done := make(chan struct{})
	if !j.sendWrite(writeOp{done: done}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (j *SQLiteJournal) DroppedWrites() int64 {
	return j.droppedWrites.Load()
}

// Recent returns up to limit entries, newest first. Pending writes are
// flushed first so a load that just finished is visible.
func (j *SQLiteJournal) Recent(limit int) ([]LoadEntry, error) {
	j.Sync(time.Second)

	query := `SELECT id, source, started_at, duration_ms, record_count, status, COALESCE(stage, ''), COALESCE(error, '')
		FROM loads ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []LoadEntry
	for rows.Next() {
		var (
			e          LoadEntry
			startedMs  int64
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &e.Source, &startedMs, &durationMs, &e.Records, &e.Status, &e.Stage, &e.Error); err != nil {
			return nil, fmt.Errorf("scanning load row: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	var err error
	j.closeOnce.Do(func() {
		j.closed.Store(true)
		close(j.writeChan)

		select {
		case <-j.doneChan:
		case <-time.After(5 * time.Second):
			j.logger.Warn("writer goroutine did not drain within 5s")
		}

		j.cancelMaint()
		select {
		case <-j.maintenanceDone:
		case <-time.After(5 * time.Second):
			j.logger.Warn("maintenance goroutine did not stop within 5s")
		}

		err = j.db.Close()
	})
	return err
}

func (j *SQLiteJournal) writerLoop() {
	defer close(j.doneChan)

	batch := make([]LoadEntry, 0, batchSize)
	flushTimer := time.NewTimer(flushInterval)
	defer flushTimer.Stop()

	for {
		select {
		case op, ok := <-j.writeChan:
			if !ok {
				if len(batch) > 0 {
					j.flushBatch(batch)
				}
				return
			}

			if op.done != nil {
				if len(batch) > 0 {
					j.flushBatch(batch)
					batch = batch[:0]
				}
				close(op.done)
				continue
			}

			batch = append(batch, *op.entry)

			if len(batch) >= batchSize {
				j.flushBatch(batch)
				batch = batch[:0]
				flushTimer.Reset(flushInterval)
			}

		case <-flushTimer.C:
			if len(batch) > 0 {
				j.flushBatch(batch)
				batch = batch[:0]
			}
			flushTimer.Reset(flushInterval)
		}
	}
}

func (j *SQLiteJournal) flushBatch(batch []LoadEntry) {
	tx, err := j.db.Begin()
	if err != nil {
		j.logger.Error("failed to begin transaction", "error", err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range batch {
		_, err := tx.Exec(`INSERT OR REPLACE INTO loads (id, source, started_at, duration_ms, record_count, status, stage, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Source, e.StartedAt.UnixMilli(), e.Duration.Milliseconds(), e.Records, e.Status,
			nullIfEmpty(e.Stage), nullIfEmpty(e.Error))
		if err != nil {
			j.logger.Error("failed to insert load entry", "id", e.ID, "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		j.logger.Error("failed to commit transaction", "error", err)
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
