package domain

import (
	"fmt"
	"time"
)

// SuppressionState is the persisted per-user session slot backing the
// contextual-notification suppression gate. At most one slot exists per user;
// a newer login overwrites the previous one, so a stale in-memory copy loses
// authority as soon as the stored session id no longer matches.
type SuppressionState struct {
	UserID                 string    `json:"user_id" dynamodbav:"user_id"`
	SessionID              string    `json:"session_id" dynamodbav:"session_id"`
	HasCheckedPreviousData bool      `json:"has_checked_previous_data" dynamodbav:"has_checked_previous_data"`
	CheckedWards           []string  `json:"checked_wards" dynamodbav:"checked_wards"`
	CheckedDates           []string  `json:"checked_dates" dynamodbav:"checked_dates"`
	LastDataCheckTime      time.Time `json:"last_data_check_time" dynamodbav:"last_data_check_time"`
}

// SuppressionSessionID derives the session identity from the user and the
// login instant. Deterministic so the same login always maps to the same slot.
func SuppressionSessionID(userID string, loginAt time.Time) string {
	return fmt.Sprintf("%s:%d", userID, loginAt.UTC().Unix())
}

// HasWard reports whether ward is already tracked in this session.
func (s *SuppressionState) HasWard(ward string) bool {
	return containsString(s.CheckedWards, ward)
}

// HasDate reports whether date is already tracked in this session.
func (s *SuppressionState) HasDate(date string) bool {
	return containsString(s.CheckedDates, date)
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func appendUnique(xs []string, v string) []string {
	if containsString(xs, v) {
		return xs
	}
	return append(xs, v)
}

func removeString(xs []string, v string) []string {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Track adds the ward/date pair to the session's checked sets.
func (s *SuppressionState) Track(ward, date string) {
	s.CheckedWards = appendUnique(s.CheckedWards, ward)
	s.CheckedDates = appendUnique(s.CheckedDates, date)
}

// Untrack removes the ward/date pair. When both sets drain empty the global
// checked flag is cleared, reopening the suppression window.
func (s *SuppressionState) Untrack(ward, date string) {
	s.CheckedWards = removeString(s.CheckedWards, ward)
	s.CheckedDates = removeString(s.CheckedDates, date)
	if len(s.CheckedWards) == 0 && len(s.CheckedDates) == 0 {
		s.HasCheckedPreviousData = false
	}
}
