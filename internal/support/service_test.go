package support

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

type stubMessageRepo struct {
	messages map[uuid.UUID]*models.SupportMessage
	updates  int
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{messages: map[uuid.UUID]*models.SupportMessage{}}
}

func (s *stubMessageRepo) Create(ctx context.Context, message *models.SupportMessage) error {
	message.ID = uuid.New()
	s.messages[message.ID] = message
	return nil
}

func (s *stubMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SupportMessage, error) {
	message, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	copied := *message
	return &copied, nil
}

func (s *stubMessageRepo) List(ctx context.Context, status *enums.SupportMessageStatus, params pagination.Params) ([]models.SupportMessage, error) {
	var rows []models.SupportMessage
	for _, message := range s.messages {
		if status != nil && message.Status != *status {
			continue
		}
		rows = append(rows, *message)
	}
	return rows, nil
}

func (s *stubMessageRepo) Update(ctx context.Context, message *models.SupportMessage) error {
	s.updates++
	s.messages[message.ID] = message
	return nil
}

func TestSubmitCreatesOpenMessage(t *testing.T) {
	repo := newStubMessageRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	message, err := svc.Submit(context.Background(), SubmitInput{
		Name:    "  Sara ",
		Phone:   "07700000001",
		Subject: "Damaged item",
		Body:    "The box arrived crushed.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sara", message.Name)
	assert.Equal(t, enums.SupportMessageOpen, message.Status)
	assert.Nil(t, message.HandledAt)
}

func TestSubmitRejectsBlankFields(t *testing.T) {
	repo := newStubMessageRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), SubmitInput{Name: "Sara", Phone: "0770", Subject: "  ", Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, repo.messages)
}

func TestMarkHandledSetsTimestampOnce(t *testing.T) {
	repo := newStubMessageRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	message, err := svc.Submit(context.Background(), SubmitInput{
		Name: "Sara", Phone: "0770", Subject: "Q", Body: "body",
	})
	require.NoError(t, err)

	handled, err := svc.MarkHandled(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SupportMessageHandled, handled.Status)
	require.NotNil(t, handled.HandledAt)
	assert.Equal(t, fixed, *handled.HandledAt)
	assert.Equal(t, 1, repo.updates)

	// Second call is a no-op.
	_, err = svc.MarkHandled(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updates)
}

func TestMarkHandledUnknownMessage(t *testing.T) {
	svc, err := NewService(newStubMessageRepo())
	require.NoError(t, err)

	_, err = svc.MarkHandled(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newStubMessageRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	first, err := svc.Submit(context.Background(), SubmitInput{Name: "A", Phone: "1", Subject: "s", Body: "b"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), SubmitInput{Name: "B", Phone: "2", Subject: "s", Body: "b"})
	require.NoError(t, err)
	_, err = svc.MarkHandled(context.Background(), first.ID)
	require.NoError(t, err)

	open := enums.SupportMessageOpen
	page, err := svc.List(context.Background(), &open, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "B", page.Messages[0].Name)
}
