package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash(TypeGeneral, "T", "M", []string{"u1", "u2"}, "", "s1")
	b := ContentHash(TypeGeneral, "T", "M", []string{"u1", "u2"}, "", "s1")
	assert.Equal(t, a, b)
}

func TestContentHashIgnoresRecipientOrder(t *testing.T) {
	a := ContentHash(TypeGeneral, "T", "M", []string{"u1", "u2"}, "", "")
	b := ContentHash(TypeGeneral, "T", "M", []string{"u2", "u1"}, "", "")
	assert.Equal(t, a, b)
}

func TestContentHashSensitiveToEveryField(t *testing.T) {
	base := ContentHash(TypeGeneral, "T", "M", []string{"u1"}, "/a", "s1")

	variants := []string{
		ContentHash(TypeApproval, "T", "M", []string{"u1"}, "/a", "s1"),
		ContentHash(TypeGeneral, "T2", "M", []string{"u1"}, "/a", "s1"),
		ContentHash(TypeGeneral, "T", "M2", []string{"u1"}, "/a", "s1"),
		ContentHash(TypeGeneral, "T", "M", []string{"u1", "u2"}, "/a", "s1"),
		ContentHash(TypeGeneral, "T", "M", []string{"u1"}, "/b", "s1"),
		ContentHash(TypeGeneral, "T", "M", []string{"u1"}, "/a", "s2"),
	}
	for i, v := range variants {
		assert.NotEqual(t, base, v, "variant %d should change the hash", i)
	}
}

func TestContentHashFieldBoundaries(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide across field boundaries.
	a := ContentHash(TypeGeneral, "ab", "c", []string{"u1"}, "", "")
	b := ContentHash(TypeGeneral, "a", "bc", []string{"u1"}, "", "")
	assert.NotEqual(t, a, b)
}

func TestDedupKeyCoarserThanContentHash(t *testing.T) {
	// Same type/title/message, different recipients: same dedup key, different
	// content hash.
	k1 := DedupKey(TypeGeneral, "T", "M")
	k2 := DedupKey(TypeGeneral, "T", "M")
	assert.Equal(t, k1, k2)

	h1 := ContentHash(TypeGeneral, "T", "M", []string{"u1"}, "", "")
	h2 := ContentHash(TypeGeneral, "T", "M", []string{"u2"}, "", "")
	assert.NotEqual(t, h1, h2)
}

func TestNewReadState(t *testing.T) {
	m := NewReadState([]string{"u1", "u2", "u3"})
	require.Len(t, m, 3)
	for _, v := range m {
		assert.False(t, v)
	}
}

func TestUnreadRecipientsSorted(t *testing.T) {
	m := ReadStateMap{"u3": false, "u1": false, "u2": true}
	assert.Equal(t, []string{"u1", "u3"}, m.UnreadRecipients())
}

func TestViewProjectsPerRecipientReadState(t *testing.T) {
	n := Notification{
		NotificationID: "n1",
		Type:           TypeGeneral,
		Title:          "T",
		Message:        "M",
		RecipientIDs:   []string{"u1", "u2"},
		ReadState:      ReadStateMap{"u1": true, "u2": false},
		CreatedAt:      time.Now().UTC(),
	}

	assert.True(t, n.View("u1").IsRead)
	assert.False(t, n.View("u2").IsRead)
}

func TestRecipientChecks(t *testing.T) {
	n := Notification{RecipientIDs: []string{"u1", "u2"}}

	assert.True(t, n.HasRecipient("u1"))
	assert.False(t, n.HasRecipient("u9"))
	assert.True(t, n.OverlapsRecipients([]string{"u9", "u2"}))
	assert.False(t, n.OverlapsRecipients([]string{"u8", "u9"}))
}
