package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// NotificationType classifies a notification row. Stored as a plain string
// attribute so new types can be added without a migration.
type NotificationType string

const (
	TypeGeneral      NotificationType = "general"
	TypeApproval     NotificationType = "approval"
	TypePreviousData NotificationType = "previous_data"
	TypeSystem       NotificationType = "system"
)

// Sender identifies the user a notification was sent on behalf of.
type Sender struct {
	ID   string `json:"id" dynamodbav:"id"`
	Name string `json:"name" dynamodbav:"name"`
}

// ReadStateMap associates each recipient id with whether that recipient has
// acknowledged the notification. Exactly one entry per recipient; all false at
// creation. Serialized as a DynamoDB map attribute keyed by user id.
type ReadStateMap map[string]bool

// NewReadState builds an all-false read map for the given recipients.
func NewReadState(recipients []string) ReadStateMap {
	m := make(ReadStateMap, len(recipients))
	for _, r := range recipients {
		m[r] = false
	}
	return m
}

// UnreadRecipients returns recipient ids with read=false, sorted for
// deterministic iteration.
func (m ReadStateMap) UnreadRecipients() []string {
	var out []string
	for uid, read := range m {
		if !read {
			out = append(out, uid)
		}
	}
	sort.Strings(out)
	return out
}

// Notification is a persisted multi-recipient notification row.
type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id"`
	Type           NotificationType `json:"type" dynamodbav:"type"`
	Title          string           `json:"title" dynamodbav:"title"`
	Message        string           `json:"message" dynamodbav:"message"`
	RecipientIDs   []string         `json:"recipient_ids" dynamodbav:"recipient_ids"`
	ReadState      ReadStateMap     `json:"read_state" dynamodbav:"read_state"`
	CreatedAt      time.Time        `json:"created" dynamodbav:"created_at"`
	CreatedBy      string           `json:"created_by" dynamodbav:"created_by"`
	ActionURL      string           `json:"action_url,omitempty" dynamodbav:"action_url,omitempty"`
	Sender         *Sender          `json:"sender,omitempty" dynamodbav:"sender,omitempty"`
	ContentHash    string           `json:"-" dynamodbav:"content_hash"`
	DedupKey       string           `json:"-" dynamodbav:"dedup_key"`
}

// View projects the per-recipient read map into the single-user shape returned
// to clients. Never persisted.
func (n *Notification) View(viewerID string) UserNotificationView {
	return UserNotificationView{
		NotificationID: n.NotificationID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		IsRead:         n.ReadState[viewerID],
		CreatedAt:      n.CreatedAt,
		ActionURL:      n.ActionURL,
		Sender:         n.Sender,
	}
}

// HasRecipient reports whether userID is in the delivery set.
func (n *Notification) HasRecipient(userID string) bool {
	for _, r := range n.RecipientIDs {
		if r == userID {
			return true
		}
	}
	return false
}

// OverlapsRecipients reports whether any of the given ids is in the delivery set.
func (n *Notification) OverlapsRecipients(ids []string) bool {
	for _, id := range ids {
		if n.HasRecipient(id) {
			return true
		}
	}
	return false
}

// UserNotificationView is the per-viewer projection of a notification.
type UserNotificationView struct {
	NotificationID string           `json:"id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"is_read"`
	CreatedAt      time.Time        `json:"created"`
	ActionURL      string           `json:"action_url,omitempty"`
	Sender         *Sender          `json:"sender,omitempty"`
}

// ContentHash is the deterministic fingerprint used for duplicate detection:
// a SHA-256 over type, title, message, the sorted recipient set, the action
// URL and the sender id. Two requests with equal hashes describe the same
// logical notification.
func ContentHash(typ NotificationType, title, message string, recipientIDs []string, actionURL, senderID string) string {
	sorted := append([]string(nil), recipientIDs...)
	sort.Strings(sorted)
	h := sha256.New()
	for _, part := range []string{string(typ), title, message, strings.Join(sorted, ","), actionURL, senderID} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DedupKey is the coarser fingerprint the store is queried by during the
// dedup window: type, title and message only. Recipient overlap is checked
// against the returned rows, so near-duplicates with partially overlapping
// delivery sets still collapse.
func DedupKey(typ NotificationType, title, message string) string {
	h := sha256.New()
	for _, part := range []string{string(typ), title, message} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
