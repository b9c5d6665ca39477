package store

import (
	"time"

	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/schedule"
)

// LoadSchedules returns the persisted multi-mode list, or nil if none.
func LoadSchedules(s Store) (schedule.List, error) {
	var l schedule.List
	if _, err := s.Get(common.KeyMultiSchedules, &l); err != nil {
		return nil, err
	}
	return l, nil
}

// SaveSchedules persists l as given. A nil list is stored as empty.
func SaveSchedules(s Store, l schedule.List) error {
	if l == nil {
		l = schedule.List{}
	}
	return s.Set(common.KeyMultiSchedules, l)
}

// LastLockTime returns the last successful lock, or nil if none was
// recorded.
func LastLockTime(s Store) (*string, error) {
	var v *string
	if _, err := s.Get(common.KeyLastLockTime, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetLastLockTime records t as the last successful lock.
func SetLastLockTime(s Store, t time.Time) error {
	return s.Set(common.KeyLastLockTime, t.Format(time.RFC3339))
}
