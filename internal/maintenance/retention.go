package maintenance

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/shelf-api/internal/logging"
)

const DefaultActivityRetentionDays = 180

// StartActivityRetention runs a daily job at localTime ("HH:MM") in tzName
// that deletes book_events older than keepDays.
// Call once at startup: maintenance.StartActivityRetention(ctx, db, 180, "03:00", "UTC")
func StartActivityRetention(ctx context.Context, db *sql.DB, keepDays int, localTime, tzName string) {
	if keepDays <= 0 {
		keepDays = DefaultActivityRetentionDays
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc = time.Local
	}
	h, m := parseClock(localTime)
	log := logging.WithPrefix("retention")

	go func() {
		for {
			timer := time.NewTimer(time.Until(nextRun(time.Now().In(loc), h, m)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				n, err := PruneActivity(ctx, db, keepDays)
				if err != nil {
					log.Error("prune book_events failed", "err", err)
					continue
				}
				log.Info("book_events pruned", "deleted", n, "keep_days", keepDays)
			}
		}
	}()
}

// PruneActivity deletes events older than keepDays and returns how many went.
func PruneActivity(ctx context.Context, db *sql.DB, keepDays int) (int64, error) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM book_events
        WHERE created_at < now() - make_interval(days => $1)`, keepDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// parseClock reads "HH:MM"; anything unparsable means 03:00.
func parseClock(s string) (int, int) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 3, 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 3, 0
	}
	return h, m
}

func nextRun(now time.Time, h, m int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
