// Package paymentprovider клиент REST API PayPal: заказы, списания и
// проверка подписи вебхуков.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	requestTimeout = 10 * time.Second
	tokenLeeway    = time.Minute
	maxErrorBody   = 2048
)

// ErrNotConfigured возвращается, если не заданы ключи PayPal.
var ErrNotConfigured = errors.New("paypal credentials are not configured")

// APIError ответ PayPal с кодом, отличным от 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: unexpected status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	clientID   string
	secret     string
	apiURL     string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient создаёт клиент PayPal для baseURL (sandbox или live).
func NewClient(baseURL, clientID, secret string) *Client {
	return &Client{
		clientID:   clientID,
		secret:     secret,
		apiURL:     strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		now:        time.Now,
	}
}

// CreateOrder создаёт заказ с intent CAPTURE и возвращает ссылку на оплату.
func (c *Client) CreateOrder(ctx context.Context, p OrderParams) (*Order, error) {
	const op = "paymentprovider.CreateOrder"

	body := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: p.InvoiceID,
			Description: p.Description,
			CustomID:    p.CustomID,
			InvoiceID:   p.InvoiceID,
			Amount: amount{
				CurrencyCode: p.Currency,
				Value:        FormatAmount(p.AmountCents),
			},
		}},
		ApplicationContext: applicationContext{
			ReturnURL:  p.ReturnURL,
			CancelURL:  p.CancelURL,
			UserAction: "PAY_NOW",
		},
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order := &Order{ID: resp.ID, Status: resp.Status}
	for _, l := range resp.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			order.ApproveURL = l.Href
			break
		}
	}
	return order, nil
}

// CaptureOrder списывает средства по одобренному покупателем заказу.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	const op = "paymentprovider.CaptureOrder"

	var resp orderResponse
	path := "/v2/checkout/orders/" + orderID + "/capture"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	capture := &Capture{OrderID: resp.ID, Status: resp.Status}
	for _, pu := range resp.PurchaseUnits {
		if len(pu.Payments.Captures) == 0 {
			continue
		}
		cp := pu.Payments.Captures[0]
		capture.CaptureID = cp.ID
		capture.CustomID = cp.CustomID
		capture.InvoiceID = cp.InvoiceID
		if capture.InvoiceID == "" {
			capture.InvoiceID = pu.ReferenceID
		}
		break
	}
	return capture, nil
}

// VerifyWebhookSignature проверяет подпись вебхука через API PayPal.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers http.Header, webhookID string, body []byte) (bool, error) {
	const op = "paymentprovider.VerifyWebhookSignature"

	req := verifyRequest{
		AuthAlgo:         headers.Get("Paypal-Auth-Algo"),
		CertURL:          headers.Get("Paypal-Cert-Url"),
		TransmissionID:   headers.Get("Paypal-Transmission-Id"),
		TransmissionSig:  headers.Get("Paypal-Transmission-Sig"),
		TransmissionTime: headers.Get("Paypal-Transmission-Time"),
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(body),
	}
	if req.TransmissionID == "" || req.TransmissionSig == "" {
		return false, nil
	}

	var resp verifyResponse
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", req, &resp); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return resp.VerificationStatus == "SUCCESS", nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	const op = "paymentprovider.token"
	if c.clientID == "" || c.secret == "" {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && c.now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.secret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp tokenResponse
	if err := c.send(req, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%s: empty access token", op)
	}

	c.accessToken = resp.AccessToken
	c.expiresAt = c.now().Add(time.Duration(resp.ExpiresIn)*time.Second - tokenLeeway)
	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
