// Package services отправка писем по уведомлениям из брокера.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/sl"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/smtp"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/paymentprovider"
	"github.com/magabrotheeeer/elearning-platform/internal/rabbitmq"
)

const timeLayout = "2006-01-02 15:04 MST"

type SenderService struct {
	transport smtp.TransportInterface
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, m *metrics.Metrics, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		metrics:   m,
		log:       log,
	}
}

// Handler возвращает обработчик сообщений очереди с ключом routingKey.
func (s *SenderService) Handler(routingKey string) (func([]byte) error, error) {
	switch routingKey {
	case rabbitmq.RoutingPasswordReset:
		return s.SendPasswordReset, nil
	case rabbitmq.RoutingPurchaseCompleted:
		return s.SendPurchaseReceipt, nil
	case rabbitmq.RoutingUpcoming:
		return s.SendExpiringSubscription, nil
	default:
		return nil, fmt.Errorf("services.sender.Handler: unknown routing key %q", routingKey)
	}
}

// SendPasswordReset отправляет ссылку для сброса пароля.
func (s *SenderService) SendPasswordReset(body []byte) error {
	var message models.PasswordResetMessage
	if !s.decode(body, &message) {
		return nil
	}
	subject := "Password reset"
	bodyText := fmt.Sprintf("Hello, %s!\n\nTo set a new password open the link below:\n%s\n\nThe link is valid until %s.\nIf you did not request a reset, ignore this email.",
		displayName(message.Name), message.ResetURL, message.Expires.UTC().Format(timeLayout))

	return s.send(rabbitmq.RoutingPasswordReset, []string{message.Email}, subject, bodyText)
}

// SendPurchaseReceipt отправляет квитанцию об оплате пака.
func (s *SenderService) SendPurchaseReceipt(body []byte) error {
	var message models.PurchaseReceiptMessage
	if !s.decode(body, &message) {
		return nil
	}
	subject := "Payment received: " + message.PackName
	bodyText := fmt.Sprintf("Hello, %s!\n\nWe received your payment of %s %s for %s (%s).\nYour access is active until %s.\n\nThank you!",
		displayName(message.Name), paymentprovider.FormatAmount(message.AmountCents), message.Currency,
		message.PackName, message.Plan, message.PeriodEnd.UTC().Format(timeLayout))

	return s.send(rabbitmq.RoutingPurchaseCompleted, []string{message.Email}, subject, bodyText)
}

// SendExpiringSubscription напоминает о подписке, которая заканчивается завтра.
func (s *SenderService) SendExpiringSubscription(body []byte) error {
	var message models.ExpiringSubscriptionMessage
	if !s.decode(body, &message) {
		return nil
	}
	subject := "Your subscription ends soon"
	bodyText := fmt.Sprintf("Hello, %s!\n\nYour %s subscription to %s ends on %s.\nRenew it in advance to keep your access.",
		displayName(message.Name), message.Plan, message.PackName, message.PeriodEnd.UTC().Format(timeLayout))

	return s.send(rabbitmq.RoutingUpcoming, []string{message.Email}, subject, bodyText)
}

// decode разбирает сообщение. Нечитаемые сообщения отбрасываются, иначе они
// возвращались бы в очередь бесконечно.
func (s *SenderService) decode(body []byte, dst any) bool {
	if err := json.Unmarshal(body, dst); err != nil {
		s.log.Error("failed to unmarshal message body, message dropped", sl.Err(err))
		return false
	}
	return true
}

func (s *SenderService) send(kind string, to []string, subject, bodyText string) error {
	if err := s.sendEmail(to, subject, bodyText); err != nil {
		s.count(kind, "error")
		return err
	}
	s.count(kind, "sent")
	return nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	const op = "services.sender.sendEmail"
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}

func (s *SenderService) count(kind, result string) {
	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(kind, result).Inc()
	}
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
