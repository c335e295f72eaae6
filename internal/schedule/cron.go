package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// fieldParser handles the first five fields of the EventBridge dialect.
// The sixth (year) field is checked separately.
var fieldParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronAt returns a one-shot EventBridge cron expression firing minutes after
// now, in UTC. The delay is split into hours and minutes before being added.
func CronAt(now time.Time, minutes int) string {
	hours := minutes / 60
	rem := minutes % 60
	at := now.UTC().Add(time.Duration(hours)*time.Hour + time.Duration(rem)*time.Minute)
	return fmt.Sprintf("cron(%02d %02d %02d %02d ? *)", at.Minute(), at.Hour(), at.Day(), int(at.Month()))
}

// NextFire returns the first time after `after` at which an EventBridge
// cron(...) expression fires.
func NextFire(expr string, after time.Time) (time.Time, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(expr), "cron(")
	if !ok || !strings.HasSuffix(body, ")") {
		return time.Time{}, fmt.Errorf("schedule expression %q: expected cron(...)", expr)
	}
	fields := strings.Fields(strings.TrimSuffix(body, ")"))
	if len(fields) != 6 {
		return time.Time{}, fmt.Errorf("schedule expression %q: expected 6 fields, got %d", expr, len(fields))
	}

	year := 0
	if y := fields[5]; y != "*" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return time.Time{}, fmt.Errorf("schedule expression %q: invalid year %q", expr, y)
		}
		year = n
	}

	sched, err := fieldParser.Parse(strings.Join(fields[:5], " "))
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule expression %q: %w", expr, err)
	}

	next := sched.Next(after.UTC())
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("schedule expression %q never fires", expr)
	}
	if year != 0 && next.Year() != year {
		return time.Time{}, fmt.Errorf("schedule expression %q: next fire %s is outside year %d", expr, next.Format(time.RFC3339), year)
	}
	return next, nil
}
