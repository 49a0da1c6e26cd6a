package writer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ward-notify-api/internal/application/dedup"
	"github.com/ward-notify-api/internal/domain"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockStore) QueryRecentByDedupKey(ctx context.Context, dedupKey string, since time.Time) ([]domain.Notification, error) {
	args := m.Called(ctx, dedupKey, since)
	if rows, _ := args.Get(0).([]domain.Notification); rows != nil {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPush struct{ mock.Mock }

func (m *mockPush) Publish(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

// --- helpers ---

func newSvc(store *mockStore) Service {
	return NewService(Deps{
		Store:  store,
		Cache:  dedup.NewCache(time.Minute),
		Window: 5 * time.Minute,
	})
}

func validInput() CreateInput {
	return CreateInput{
		Type:         domain.TypeGeneral,
		Title:        "T",
		Message:      "M",
		RecipientIDs: []string{"u1", "u2"},
		CreatedBy:    "system",
	}
}

// --- tests ---

func TestCreate_NewNotification(t *testing.T) {
	store := &mockStore{}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{}, nil)

	var persisted *domain.Notification
	store.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).
		Run(func(args mock.Arguments) { persisted = args.Get(1).(*domain.Notification) }).
		Return(nil)

	result := newSvc(store).Create(context.Background(), validInput())

	require.Equal(t, StatusCreated, result.Status)
	assert.NotEmpty(t, result.NotificationID)

	require.NotNil(t, persisted)
	assert.Equal(t, []string{"u1", "u2"}, persisted.RecipientIDs)
	assert.Equal(t, domain.ReadStateMap{"u1": false, "u2": false}, persisted.ReadState)
	assert.NotEmpty(t, persisted.ContentHash)
	assert.NotEmpty(t, persisted.DedupKey)
}

func TestCreate_IdenticalCallWithinWindow_ReturnsFirstID(t *testing.T) {
	store := &mockStore{}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{}, nil)
	store.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newSvc(store)
	first := svc.Create(context.Background(), validInput())
	require.Equal(t, StatusCreated, first.Status)

	second := svc.Create(context.Background(), validInput())
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.NotificationID, second.NotificationID)

	// Cache hit: the second call must not touch the store at all.
	store.AssertNumberOfCalls(t, "QueryRecentByDedupKey", 1)
	store.AssertNumberOfCalls(t, "Put", 1)
}

func TestCreate_StoreWindowHit_RecipientOverlap(t *testing.T) {
	store := &mockStore{}
	existing := domain.Notification{
		NotificationID: "n-existing",
		Type:           domain.TypeGeneral,
		Title:          "T",
		Message:        "M",
		RecipientIDs:   []string{"u2", "u3"},
	}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{existing}, nil)

	svc := newSvc(store)
	result := svc.Create(context.Background(), validInput())

	assert.Equal(t, StatusDuplicate, result.Status)
	assert.Equal(t, "n-existing", result.NotificationID)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)

	// The store hit must seed the cache for the exact content hash.
	again := svc.Create(context.Background(), validInput())
	assert.Equal(t, StatusDuplicate, again.Status)
	assert.Equal(t, "n-existing", again.NotificationID)
	store.AssertNumberOfCalls(t, "QueryRecentByDedupKey", 1)
}

func TestCreate_NoRecipientOverlap_CreatesNewRow(t *testing.T) {
	store := &mockStore{}
	existing := domain.Notification{
		NotificationID: "n-existing",
		RecipientIDs:   []string{"u8", "u9"},
	}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{existing}, nil)
	store.On("Put", mock.Anything, mock.Anything).Return(nil)

	result := newSvc(store).Create(context.Background(), validInput())

	assert.Equal(t, StatusCreated, result.Status)
	assert.NotEqual(t, "n-existing", result.NotificationID)
}

func TestCreate_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"no recipients", func(in *CreateInput) { in.RecipientIDs = nil }},
		{"empty recipient id", func(in *CreateInput) { in.RecipientIDs = []string{""} }},
		{"missing type", func(in *CreateInput) { in.Type = "" }},
		{"missing title", func(in *CreateInput) { in.Title = "" }},
		{"missing message", func(in *CreateInput) { in.Message = "" }},
		{"missing created_by", func(in *CreateInput) { in.CreatedBy = "" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := &mockStore{}
			in := validInput()
			c.mutate(&in)

			result := newSvc(store).Create(context.Background(), in)

			assert.Equal(t, StatusFailed, result.Status)
			store.AssertNotCalled(t, "QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_QueryError_ReturnsFailedSentinel(t *testing.T) {
	store := &mockStore{}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("store down"))

	result := newSvc(store).Create(context.Background(), validInput())

	assert.Equal(t, StatusFailed, result.Status)
	assert.Empty(t, result.NotificationID)
}

func TestCreate_PutError_ReturnsFailedSentinel(t *testing.T) {
	store := &mockStore{}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{}, nil)
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("store down"))

	svc := newSvc(store)
	result := svc.Create(context.Background(), validInput())

	assert.Equal(t, StatusFailed, result.Status)

	// A failed persist must not poison the cache with a phantom id.
	store.AssertNumberOfCalls(t, "QueryRecentByDedupKey", 1)
	_ = svc.Create(context.Background(), validInput())
	store.AssertNumberOfCalls(t, "QueryRecentByDedupKey", 2)
}

func TestCreate_PushFailureDoesNotAffectResult(t *testing.T) {
	store := &mockStore{}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{}, nil)
	store.On("Put", mock.Anything, mock.Anything).Return(nil)

	push := &mockPush{}
	push.On("Publish", mock.Anything, mock.Anything).Return(errors.New("sns down"))

	svc := NewService(Deps{
		Store:  store,
		Cache:  dedup.NewCache(time.Minute),
		Window: 5 * time.Minute,
		Push:   push,
	})
	result := svc.Create(context.Background(), validInput())

	assert.Equal(t, StatusCreated, result.Status)
	push.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreate_RecipientOrderDoesNotAffectDedup(t *testing.T) {
	store := &mockStore{}
	store.On("QueryRecentByDedupKey", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{}, nil)
	store.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newSvc(store)
	first := svc.Create(context.Background(), validInput())

	in := validInput()
	in.RecipientIDs = []string{"u2", "u1"}
	second := svc.Create(context.Background(), in)

	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.NotificationID, second.NotificationID)
}
