package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"

	"github.com/phenrril/gebeya/internal/domain"
)

const DefaultBaseURL = "https://api.chapa.co"

type Gateway struct {
	secret     string
	baseURL    string
	httpClient *http.Client
}

// NewGateway returns a Chapa client that authenticates every request with the
// merchant secret key as a Bearer token.
func NewGateway(secretKey, baseURL string) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secretKey, TokenType: "Bearer"}))
	client.Timeout = 10 * time.Second
	return &Gateway{secret: secretKey, baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

type initializeReq struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	Email         string            `json:"email,omitempty"`
	FirstName     string            `json:"first_name,omitempty"`
	LastName      string            `json:"last_name,omitempty"`
	PhoneNumber   string            `json:"phone_number,omitempty"`
	TxRef         string            `json:"tx_ref"`
	CallbackURL   string            `json:"callback_url,omitempty"`
	ReturnURL     string            `json:"return_url,omitempty"`
	Customization map[string]string `json:"customization,omitempty"`
}

type initializeResp struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResp struct {
	Message string         `json:"message"`
	Status  string         `json:"status"`
	Data    map[string]any `json:"data"`
}

func (g *Gateway) Initialize(ctx context.Context, c domain.ChapaCheckout) (string, error) {
	if g.secret == "" {
		return "", g.fail(0, errors.New("secret key missing (CHAPA_SECRET_KEY)"))
	}
	if c.TxRef == "" {
		return "", g.fail(0, errors.New("tx_ref is required"))
	}
	currency := string(c.Currency)
	if currency == "" {
		currency = string(domain.CurrencyETB)
	}
	payload := initializeReq{
		Amount:      decimal.NewFromFloat(c.Amount).StringFixed(2),
		Currency:    currency,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		PhoneNumber: c.PhoneNumber,
		TxRef:       c.TxRef,
		CallbackURL: c.CallbackURL,
		ReturnURL:   c.ReturnURL,
	}
	if c.Title != "" || c.Description != "" {
		payload.Customization = map[string]string{"title": c.Title, "description": c.Description}
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("chapa payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/transaction/initialize", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", g.fail(0, fmt.Errorf("connect: %w", err))
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return "", g.fail(res.StatusCode, readMessage(res.Body))
	}
	var out initializeResp
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", g.fail(0, fmt.Errorf("decode initialize: %w", err))
	}
	if out.Data.CheckoutURL == "" {
		return "", g.fail(0, fmt.Errorf("incomplete response: %s", out.Message))
	}
	return out.Data.CheckoutURL, nil
}

func (g *Gateway) Verify(ctx context.Context, txRef string) (*domain.ChapaVerification, error) {
	if g.secret == "" || txRef == "" {
		return nil, g.fail(0, errors.New("params"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, err
	}
	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, g.fail(0, fmt.Errorf("connect: %w", err))
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, g.fail(res.StatusCode, readMessage(res.Body))
	}
	var out verifyResp
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, g.fail(0, fmt.Errorf("decode verify: %w", err))
	}
	v := &domain.ChapaVerification{Raw: out.Data}
	// the transaction outcome lives in data.status; the top-level status only
	// reports whether the lookup itself worked
	if s, ok := out.Data["status"].(string); ok {
		v.Status = strings.ToLower(s)
	}
	if s, ok := out.Data["reference"].(string); ok {
		v.Reference = s
	}
	switch a := out.Data["amount"].(type) {
	case float64:
		v.Amount = a
	case string:
		if d, err := decimal.NewFromString(a); err == nil {
			v.Amount = d.InexactFloat64()
		}
	}
	return v, nil
}

func (g *Gateway) fail(status int, err error) error {
	return &domain.PaymentProviderError{Provider: "chapa", StatusCode: status, Err: err}
}

func readMessage(r io.Reader) error {
	body, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var e struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != nil {
		return fmt.Errorf("%v", e.Message)
	}
	return errors.New(strings.TrimSpace(string(body)))
}
