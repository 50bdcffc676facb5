package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/smtp"
	"github.com/magabrotheeeer/elearning-platform/internal/rabbitmq"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

// MockSMTPWriter запоминает записанное письмо.
type MockSMTPWriter struct {
	mock.Mock
	written []byte
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	m.written = append(m.written, p...)
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// expectDelivery настраивает успешную отправку письма на адрес to.
func expectDelivery(t *MockTransport, to string) *MockSMTPWriter {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	t.On("GetSMTPUser").Return("sender@example.com")
	t.On("Connect").Return(mockClient, nil).Once()
	mockClient.On("Mail", "sender@example.com").Return(nil).Once()
	mockClient.On("Rcpt", to).Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()
	return mockWriter
}

func TestSenderService_Messages(t *testing.T) {
	tests := []struct {
		name       string
		routingKey string
		body       []byte
		to         string
		contains   []string
	}{
		{
			name:       "password reset",
			routingKey: rabbitmq.RoutingPasswordReset,
			body:       []byte(`{"email":"user@example.com","name":"Ann","reset_url":"https://shop/reset-password?token=abc","expires":"2026-01-01T10:00:00Z"}`),
			to:         "user@example.com",
			contains:   []string{"Subject: Password reset", "Hello, Ann!", "https://shop/reset-password?token=abc", "2026-01-01 10:00 UTC"},
		},
		{
			name:       "purchase receipt",
			routingKey: rabbitmq.RoutingPurchaseCompleted,
			body:       []byte(`{"email":"buyer@example.com","name":"","pack_name":"Bootcamp","plan":"1 Month","amount_cents":3000,"currency":"USD","period_end":"2026-02-01T00:00:00Z"}`),
			to:         "buyer@example.com",
			contains:   []string{"Subject: Payment received: Bootcamp", "Hello, there!", "30.00 USD", "Bootcamp (1 Month)"},
		},
		{
			name:       "expiring subscription",
			routingKey: rabbitmq.RoutingUpcoming,
			body:       []byte(`{"email":"late@example.com","name":"Bob","pack_name":"Yoga","plan":"3 Months","period_end":"2026-03-02T08:30:00Z"}`),
			to:         "late@example.com",
			contains:   []string{"Subject: Your subscription ends soon", "3 Months subscription to Yoga", "2026-03-02 08:30 UTC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			writer := expectDelivery(transport, tt.to)
			m := metrics.New(prometheus.NewRegistry())
			service := NewSenderService(transport, m, newNoopLogger())

			handler, err := service.Handler(tt.routingKey)
			require.NoError(t, err)
			require.NoError(t, handler(tt.body))

			for _, want := range tt.contains {
				assert.Contains(t, string(writer.written), want)
			}
			assert.Contains(t, string(writer.written), "To: "+tt.to)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(tt.routingKey, "sent")))
			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_InvalidJSONDropped(t *testing.T) {
	transport := new(MockTransport)
	service := NewSenderService(transport, nil, newNoopLogger())

	assert.NoError(t, service.SendPasswordReset([]byte(`invalid json`)))
	assert.NoError(t, service.SendPurchaseReceipt([]byte(`{`)))
	transport.AssertNotCalled(t, "Connect")
}

func TestSenderService_SMTPErrors(t *testing.T) {
	body := []byte(`{"email":"test@example.com","name":"T","pack_name":"Yoga","plan":"1 Month","period_end":"2026-01-01T00:00:00Z"}`)

	t.Run("connection error", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("GetSMTPUser").Return("sender@example.com")
		transport.On("Connect").Return(nil, errors.New("connection error")).Once()
		m := metrics.New(prometheus.NewRegistry())
		service := NewSenderService(transport, m, newNoopLogger())

		err := service.SendExpiringSubscription(body)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection error")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(rabbitmq.RoutingUpcoming, "error")))
	})

	t.Run("rcpt rejected", func(t *testing.T) {
		transport := new(MockTransport)
		mockClient := new(MockSMTPClient)
		transport.On("GetSMTPUser").Return("sender@example.com")
		transport.On("Connect").Return(mockClient, nil).Once()
		mockClient.On("Mail", "sender@example.com").Return(nil).Once()
		mockClient.On("Rcpt", "test@example.com").Return(errors.New("550 mailbox unavailable")).Once()
		mockClient.On("Close").Return(nil).Once()
		service := NewSenderService(transport, nil, newNoopLogger())

		err := service.SendExpiringSubscription(body)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "550")
		mockClient.AssertExpectations(t)
	})
}

func TestSenderService_UnknownRoutingKey(t *testing.T) {
	service := NewSenderService(new(MockTransport), nil, newNoopLogger())
	_, err := service.Handler("unknown")
	assert.Error(t, err)
}
