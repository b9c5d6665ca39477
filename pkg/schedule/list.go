package schedule

import (
	"time"

	"github.com/google/uuid"
)

// List is an ordered collection of schedules, as persisted.
type List []Schedule

// Clone returns a copy of l that shares no backing array with it.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Valid returns the schedules that may be armed, in order.
func (l List) Valid() List {
	var out List
	for _, s := range l {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// Index returns the position of the schedule with the given id, or -1.
func (l List) Index(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// EnsureIDs assigns a fresh id to every valid schedule that has none.
// Invalid entries are left as submitted. It reports whether any id was
// assigned.
func (l List) EnsureIDs() bool {
	changed := false
	for i := range l {
		if l[i].ID == "" && l[i].Valid() {
			l[i].ID = uuid.NewString()
			changed = true
		}
	}
	return changed
}

// Stamp fills in ScheduledTime for schedules that only carry a delay, using
// submittedAt as the reference instant.
func (l List) Stamp(submittedAt time.Time) {
	for i := range l {
		if l[i].ScheduledTime != nil {
			continue
		}
		if d, ok := l[i].Delay(); ok {
			at := submittedAt.Add(d)
			l[i].ScheduledTime = &at
		}
	}
}

// RemoveFired returns l without the schedule id and without every other
// one-shot schedule that was already due at now.
func (l List) RemoveFired(id string, now time.Time) List {
	out := make(List, 0, len(l))
	for _, s := range l {
		if s.ID == id {
			continue
		}
		if !s.IsDaily && s.Due(now) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AdvanceDaily moves the schedule id to its next daily occurrence. The
// occurrence is derived from its ScheduledTime, or from firedAt when the
// schedule has none. It returns the new list and the new occurrence; ok is
// false if id is not in l.
func (l List) AdvanceDaily(id string, firedAt time.Time) (out List, next time.Time, ok bool) {
	i := l.Index(id)
	if i < 0 {
		return l, time.Time{}, false
	}
	out = l.Clone()
	base := firedAt
	if out[i].ScheduledTime != nil {
		base = *out[i].ScheduledTime
	}
	next = NextDaily(base)
	out[i].ScheduledTime = &next
	return out, next, true
}

// Heal prepares a persisted list for re-arming at now: one-shot entries that
// are already due are dropped and daily entries that are due roll forward to
// their next occurrence after now. changed reports whether l was modified.
func (l List) Heal(now time.Time) (out List, changed bool) {
	out = make(List, 0, len(l))
	for _, s := range l {
		if !s.Due(now) {
			out = append(out, s)
			continue
		}
		changed = true
		if !s.IsDaily {
			continue
		}
		next := NextDailyAfter(*s.ScheduledTime, now)
		s.ScheduledTime = &next
		out = append(out, s)
	}
	return out, changed
}

// Rebase prepares a saved list for resubmission at now. It heals the list
// like Heal and then rewrites the delay of every valid schedule with an
// absolute time to the distance from now, so the daemon arms it at the
// same instant.
func (l List) Rebase(now time.Time) List {
	out, _ := l.Heal(now)
	for i := range out {
		if out[i].ScheduledTime == nil || !out[i].Valid() {
			continue
		}
		out[i].Time = encodeMillis(ceilMillis(out[i].ScheduledTime.Sub(now)))
	}
	return out
}
