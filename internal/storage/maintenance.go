package storage

import (
	"context"
	"fmt"
	"time"
)

const (
	maintenanceInterval = 1 * time.Hour
	vacuumInterval      = 7 * 24 * time.Hour
)

func (j *SQLiteJournal) startMaintenance(ctx context.Context) {
	go j.maintenanceLoop(ctx)
}

func (j *SQLiteJournal) maintenanceLoop(ctx context.Context) {
	defer close(j.maintenanceDone)

	lastVacuum := time.Now()
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := j.Prune(time.Now()); err != nil {
				j.logger.Error("maintenance cycle failed", "error", err)
			} else if n > 0 {
				j.logger.Debug("pruned journal", "rows", n)
			}

			if time.Since(lastVacuum) >= vacuumInterval {
				if _, err := j.db.Exec("VACUUM"); err != nil {
					j.logger.Error("VACUUM failed", "error", err)
				} else {
					lastVacuum = time.Now()
				}
			}
		}
	}
}

// Prune deletes entries that started more than the retention window before
// now and returns how many were removed.
func (j *SQLiteJournal) Prune(now time.Time) (int64, error) {
	if j.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -j.retentionDays).UnixMilli()
	res, err := j.db.Exec("DELETE FROM loads WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning old loads: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
