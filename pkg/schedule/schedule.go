// Package schedule defines the persisted lock schedule record and the pure
// operations on schedule lists: validation, daily rollover and pruning of
// fired entries.
//
// A Schedule keeps every JSON key it was decoded from, so a list submitted
// by a client can be stored and returned without losing fields the daemon
// does not understand, including invalid delay values.
package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	keyID            = "id"
	keyTime          = "time"
	keyScheduledTime = "scheduledTime"
	keyIsDaily       = "isDaily"
	keyLabel         = "label"
)

// ErrNotObject is returned when a list element is not a JSON object.
var ErrNotObject = errors.New("schedule: entry must be a JSON object")

// isoMillis matches the timestamp layout browsers produce with toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Schedule is a single pending lock event.
type Schedule struct {
	// ID identifies the schedule across persistence round-trips.
	ID string
	// Time is the delay in milliseconds from submission, kept as submitted.
	Time json.RawMessage
	// ScheduledTime is the absolute instant the event is due, if known.
	ScheduledTime *time.Time
	// IsDaily makes the event recur every day at the same hour and minute.
	IsDaily bool
	// Label is free text shown by clients.
	Label string

	rawID    json.RawMessage
	rawAt    json.RawMessage
	parsedAt time.Time
	hasDaily bool
	extra    map[string]json.RawMessage
}

// New builds a schedule due after delay, measured from now.
func New(delay time.Duration, isDaily bool, now time.Time) Schedule {
	at := now.Add(delay)
	return Schedule{
		ID:            uuid.NewString(),
		Time:          encodeMillis(delay.Milliseconds()),
		ScheduledTime: &at,
		IsDaily:       isDaily,
		hasDaily:      true,
	}
}

// Delay returns the delay encoded in Time. ok is false unless Time is a
// finite, positive number that fits in a time.Duration.
func (s *Schedule) Delay() (d time.Duration, ok bool) {
	if len(s.Time) == 0 {
		return 0, false
	}
	var ms float64
	if err := json.Unmarshal(s.Time, &ms); err != nil {
		return 0, false
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return 0, false
	}
	if ms > float64(math.MaxInt64/int64(time.Millisecond)) {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}

// Valid reports whether the schedule may be armed.
func (s *Schedule) Valid() bool {
	_, ok := s.Delay()
	return ok
}

// Due reports whether the schedule's absolute time is known and not after now.
func (s *Schedule) Due(now time.Time) bool {
	return s.ScheduledTime != nil && !s.ScheduledTime.After(now)
}

// UnmarshalJSON decodes a schedule, tolerating unexpected value types.
// Values that cannot be interpreted are kept verbatim and re-emitted by
// MarshalJSON.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return ErrNotObject
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*s = Schedule{extra: make(map[string]json.RawMessage)}
	for k, v := range m {
		switch k {
		case keyID:
			s.rawID = v
			s.ID = decodeID(v)
		case keyTime:
			s.Time = v
		case keyScheduledTime:
			if t, ok := decodeTime(v); ok {
				s.ScheduledTime = &t
				s.rawAt, s.parsedAt = v, t
			} else if !isNull(v) {
				s.extra[k] = v
			}
		case keyIsDaily:
			if err := json.Unmarshal(v, &s.IsDaily); err != nil {
				s.extra[k] = v
			} else {
				s.hasDaily = true
			}
		case keyLabel:
			if err := json.Unmarshal(v, &s.Label); err != nil {
				s.extra[k] = v
			}
		default:
			s.extra[k] = v
		}
	}
	return nil
}

// MarshalJSON encodes the schedule with every key it was decoded from.
func (s Schedule) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.extra)+5)
	for k, v := range s.extra {
		out[k] = v
	}
	if s.ID != "" {
		if len(s.rawID) > 0 && decodeID(s.rawID) == s.ID {
			out[keyID] = s.rawID
		} else {
			out[keyID] = s.ID
		}
	}
	if len(s.Time) > 0 {
		out[keyTime] = s.Time
	}
	if s.ScheduledTime != nil {
		if len(s.rawAt) > 0 && s.ScheduledTime.Equal(s.parsedAt) {
			out[keyScheduledTime] = s.rawAt
		} else {
			out[keyScheduledTime] = s.ScheduledTime.UTC().Format(isoMillis)
		}
	}
	if s.IsDaily || s.hasDaily {
		out[keyIsDaily] = s.IsDaily
	}
	if s.Label != "" {
		out[keyLabel] = s.Label
	}
	return json.Marshal(out)
}

// NextDaily returns the first occurrence after t at the same local hour and
// minute, with seconds and nanoseconds zeroed. Across a DST change the
// wall-clock hour and minute are preserved rather than the 24h offset.
func NextDaily(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day()+1, t.Hour(), t.Minute(), 0, 0, time.Local)
}

// NextDailyAfter rolls t forward one day at a time until it is after now.
func NextDailyAfter(t, now time.Time) time.Time {
	next := NextDaily(t)
	if next.After(now) {
		return next
	}
	// jump close to now first so long outages don't loop for every day
	days := int(now.Sub(next).Hours() / 24)
	if days > 0 {
		next = time.Date(next.Year(), next.Month(), next.Day()+days, next.Hour(), next.Minute(), 0, 0, time.Local)
	}
	for !next.After(now) {
		next = NextDaily(next)
	}
	return next
}

func encodeMillis(ms int64) json.RawMessage {
	return json.RawMessage(strconv.FormatInt(ms, 10))
}

// ceilMillis rounds d up so that a positive remainder never becomes 0ms.
func ceilMillis(d time.Duration) int64 {
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}

func decodeID(v json.RawMessage) string {
	var str string
	if err := json.Unmarshal(v, &str); err == nil {
		return str
	}
	if isNull(v) {
		return ""
	}
	return string(bytes.TrimSpace(v))
}

func decodeTime(v json.RawMessage) (time.Time, bool) {
	var str string
	if err := json.Unmarshal(v, &str); err == nil {
		t, err := time.Parse(time.RFC3339Nano, str)
		return t, err == nil
	}
	var ms float64
	if err := json.Unmarshal(v, &ms); err == nil && !math.IsNaN(ms) && !math.IsInf(ms, 0) {
		return time.UnixMilli(int64(ms)), true
	}
	return time.Time{}, false
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}
