package support

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

type messageRepo interface {
	Create(ctx context.Context, message *models.SupportMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupportMessage, error)
	List(ctx context.Context, status *enums.SupportMessageStatus, params pagination.Params) ([]models.SupportMessage, error)
	Update(ctx context.Context, message *models.SupportMessage) error
}

// Service accepts storefront inquiries and lets the back office work through
// them.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.SupportMessage, error)
	List(ctx context.Context, status *enums.SupportMessageStatus, params pagination.Params) (*Page, error)
	MarkHandled(ctx context.Context, id uuid.UUID) (*models.SupportMessage, error)
}

type service struct {
	repo messageRepo
	now  func() time.Time
}

// NewService builds the support service.
func NewService(repo messageRepo) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("support repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// SubmitInput carries one storefront inquiry.
type SubmitInput struct {
	Name    string
	Phone   string
	Subject string
	Body    string
}

// Page is one cursor page of messages.
type Page struct {
	Messages   []models.SupportMessage
	NextCursor string
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.SupportMessage, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if name == "" || phone == "" || subject == "" || body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, phone, subject and body are required")
	}

	message := &models.SupportMessage{
		Name:    name,
		Phone:   phone,
		Subject: subject,
		Body:    body,
		Status:  enums.SupportMessageOpen,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating support message")
	}
	return message, nil
}

func (s *service) List(ctx context.Context, status *enums.SupportMessageStatus, params pagination.Params) (*Page, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown message status")
	}

	rows, err := s.repo.List(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing support messages")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Messages: rows}
	if len(rows) > limit {
		page.Messages = rows[:limit]
		last := page.Messages[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// MarkHandled closes a message. Already handled messages are returned as-is.
func (s *service) MarkHandled(ctx context.Context, id uuid.UUID) (*models.SupportMessage, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message id is required")
	}

	message, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading support message")
	}
	if message == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	if message.Status == enums.SupportMessageHandled {
		return message, nil
	}

	handledAt := s.now().UTC()
	message.Status = enums.SupportMessageHandled
	message.HandledAt = &handledAt
	if err := s.repo.Update(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating support message")
	}
	return message, nil
}
