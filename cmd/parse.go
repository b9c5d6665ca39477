package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var errEmptyDelay = errors.New("no delay provided")

// parseDelay accepts plain seconds ("90", "1.5") or a Go duration
// ("90s", "15m", "1h30m").
func parseDelay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyDelay
	}
	var d time.Duration
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(sec) || math.IsInf(sec, 0) || sec > math.MaxInt64/float64(time.Second) {
			return 0, fmt.Errorf("invalid delay %q", s)
		}
		d = time.Duration(sec * float64(time.Second))
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid delay %q: use seconds or a duration like 10m", s)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid delay %q: must be positive", s)
	}
	return d, nil
}

// parseClock resolves "HH:MM" to its next local occurrence after now.
func parseClock(s string, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use HH:MM", s)
	}
	now = now.Local()
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
	if !at.After(now) {
		at = time.Date(now.Year(), now.Month(), now.Day()+1, t.Hour(), t.Minute(), 0, 0, time.Local)
	}
	return at, nil
}
