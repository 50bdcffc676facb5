package paymentprovider

import (
	"encoding/json"
	"fmt"
)

// Типы событий вебхука PayPal.
const (
	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	EventOrderApproved    = "CHECKOUT.ORDER.APPROVED"
)

// OrderParams параметры создания заказа.
type OrderParams struct {
	AmountCents int64
	Currency    string
	// CustomID непрозрачные данные корреляции, возвращаются в вебхуке.
	CustomID    string
	InvoiceID   string
	Description string
	ReturnURL   string
	CancelURL   string
}

// Order созданный заказ PayPal.
type Order struct {
	ID         string
	Status     string
	ApproveURL string
}

// Capture результат списания по заказу.
type Capture struct {
	OrderID   string
	CaptureID string
	Status    string
	CustomID  string
	InvoiceID string
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Description string `json:"description,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
	InvoiceID   string `json:"invoice_id,omitempty"`
	Amount      amount `json:"amount"`
}

type applicationContext struct {
	ReturnURL  string `json:"return_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
	UserAction string `json:"user_action,omitempty"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Links         []link `json:"links"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []struct {
				ID        string `json:"id"`
				Status    string `json:"status"`
				CustomID  string `json:"custom_id"`
				InvoiceID string `json:"invoice_id"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// WebhookEvent конверт события вебхука.
type WebhookEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// CaptureResource ресурс события PAYMENT.CAPTURE.*.
type CaptureResource struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CustomID          string `json:"custom_id"`
	InvoiceID         string `json:"invoice_id"`
	Amount            amount `json:"amount"`
	PurchaseUnits     []struct {
		CustomID  string `json:"custom_id"`
		InvoiceID string `json:"invoice_id"`
	} `json:"purchase_units"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// OrderID возвращает идентификатор заказа, к которому относится списание.
func (c CaptureResource) OrderID() string {
	return c.SupplementaryData.RelatedIDs.OrderID
}

// DecodeCapture разбирает ресурс события как списание.
// Пустые custom_id и invoice_id берутся из первого purchase_units.
func (e WebhookEvent) DecodeCapture() (*CaptureResource, error) {
	const op = "paymentprovider.DecodeCapture"
	if len(e.Resource) == 0 {
		return nil, fmt.Errorf("%s: empty resource", op)
	}
	var res CaptureResource
	if err := json.Unmarshal(e.Resource, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(res.PurchaseUnits) > 0 {
		unit := res.PurchaseUnits[0]
		if res.CustomID == "" {
			res.CustomID = unit.CustomID
		}
		if res.InvoiceID == "" {
			res.InvoiceID = unit.InvoiceID
		}
	}
	return &res, nil
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// FormatAmount переводит центы в десятичную строку PayPal ("30.00").
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
