package email

import (
	"context"
	"fmt"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
	"github.com/youssefhamdan/tijara-backend/pkg/metrics"
)

type settingsLoader interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
}

// Service sends order notifications. Customers without an email address are
// skipped silently; order flow never depends on delivery succeeding.
type Service interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendOrderStatusUpdate(ctx context.Context, order *models.Order) error
}

type service struct {
	mailer   Mailer
	settings settingsLoader
	logg     *logger.Logger
	met      *metrics.Metrics
}

// NewService builds the email service.
func NewService(mailer Mailer, settings settingsLoader, logg *logger.Logger, met *metrics.Metrics) (Service, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if met == nil {
		return nil, fmt.Errorf("metrics required")
	}
	return &service{mailer: mailer, settings: settings, logg: logg, met: met}, nil
}

func (s *service) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	return s.send(ctx, order, RenderOrderConfirmation)
}

func (s *service) SendOrderStatusUpdate(ctx context.Context, order *models.Order) error {
	return s.send(ctx, order, RenderOrderStatus)
}

func (s *service) send(ctx context.Context, order *models.Order, render func(*models.Order, string) (string, string, error)) error {
	email := recipientEmail(order)
	if email == "" {
		s.met.EmailsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	storeName := "Tijara Store"
	if settings, err := s.settings.Get(ctx); err == nil && settings != nil {
		storeName = settings.StoreName
	}

	subject, body, err := render(order, storeName)
	if err != nil {
		s.met.EmailsSent.WithLabelValues("failure").Inc()
		return fmt.Errorf("rendering email: %w", err)
	}

	err = s.mailer.Send(ctx, Message{
		ToEmail:  email,
		ToName:   order.ContactName,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		s.met.EmailsSent.WithLabelValues("failure").Inc()
		return err
	}

	s.met.EmailsSent.WithLabelValues("success").Inc()
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(ctx, "order email sent")
	return nil
}

func recipientEmail(order *models.Order) string {
	if order.Customer != nil && order.Customer.Email != nil {
		return *order.Customer.Email
	}
	return ""
}
