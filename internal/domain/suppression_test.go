package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuppressionSessionIDDeterministic(t *testing.T) {
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, SuppressionSessionID("u1", at), SuppressionSessionID("u1", at))
	assert.NotEqual(t, SuppressionSessionID("u1", at), SuppressionSessionID("u2", at))
	assert.NotEqual(t, SuppressionSessionID("u1", at), SuppressionSessionID("u1", at.Add(time.Second)))
}

func TestTrackDeduplicates(t *testing.T) {
	s := &SuppressionState{}
	s.Track("WardA", "2024-01-01")
	s.Track("WardA", "2024-01-01")
	s.Track("WardB", "2024-01-01")

	assert.Equal(t, []string{"WardA", "WardB"}, s.CheckedWards)
	assert.Equal(t, []string{"2024-01-01"}, s.CheckedDates)
	assert.True(t, s.HasWard("WardA"))
	assert.False(t, s.HasWard("WardC"))
}

func TestUntrackClearsFlagOnlyWhenBothSetsEmpty(t *testing.T) {
	s := &SuppressionState{HasCheckedPreviousData: true}
	s.Track("WardA", "2024-01-01")
	s.Track("WardB", "2024-01-02")

	s.Untrack("WardA", "2024-01-01")
	assert.True(t, s.HasCheckedPreviousData, "flag stays while other contexts remain")

	s.Untrack("WardB", "2024-01-02")
	assert.False(t, s.HasCheckedPreviousData, "flag clears once both sets drain")
	assert.Empty(t, s.CheckedWards)
	assert.Empty(t, s.CheckedDates)
}
