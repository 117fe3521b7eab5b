package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/gebeya/internal/domain"
)

// PaymentUC drives provider checkouts and reconciles provider callbacks with orders.
type PaymentUC struct {
	Orders   domain.OrderRepo
	Chapa    domain.ChapaGateway
	Telebirr domain.TelebirrGateway
	Bank     domain.BankTransferGateway
	Events   domain.EventPublisher
	Authz    *Authorizer
	Clock    func() time.Time

	ChapaCallbackURL string
	ChapaReturnURL   string
}

type PaymentInitiation struct {
	Provider      domain.PaymentMethod             `json:"provider"`
	OrderID       uuid.UUID                        `json:"order_id"`
	OrderNumber   string                           `json:"order_number"`
	PaymentID     string                           `json:"payment_id,omitempty"`
	PaymentStatus domain.PaymentStatus             `json:"payment_status"`
	CheckoutURL   string                           `json:"checkout_url,omitempty"`
	Telebirr      *domain.TelebirrCheckout         `json:"telebirr,omitempty"`
	BankTransfer  *domain.BankTransferInstructions `json:"bank_transfer,omitempty"`
}

// WebhookResult is the answer returned to a provider callback. Its shape does not
// depend on what went wrong internally.
type WebhookResult struct {
	HTTPStatus  int    `json:"-"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	OrderNumber string `json:"order_number,omitempty"`
}

const (
	webhookSuccess = "success"
	webhookFailed  = "failed"
	webhookError   = "error"
)

var telebirrSuccess = map[string]struct{}{
	"completed":     {},
	"success":       {},
	"trade_success": {},
}

func (uc *PaymentUC) InitiateChapa(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*PaymentInitiation, error) {
	o, err := uc.payable(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	now := nowFrom(uc.Clock)
	txRef := fmt.Sprintf("CHA-%s-%d", o.OrderNumber, now.UnixMilli())

	checkout := domain.ChapaCheckout{
		TxRef:       txRef,
		Amount:      o.TotalAmount,
		Currency:    o.Currency,
		CallbackURL: uc.ChapaCallbackURL,
		ReturnURL:   uc.ChapaReturnURL,
		Title:       "Order " + o.OrderNumber,
		Description: fmt.Sprintf("Payment for order %s", o.OrderNumber),
	}
	if o.Customer != nil {
		checkout.Email = o.Customer.Email
		checkout.PhoneNumber = o.Customer.Phone
		checkout.FirstName, checkout.LastName = splitName(o.Customer.Name)
	}
	url, err := uc.Chapa.Initialize(ctx, checkout)
	if err != nil {
		return nil, providerError("chapa", err)
	}

	o.PaymentMethod = domain.PaymentChapa
	o.PaymentID = txRef
	o.PaymentStatus = domain.PaymentProcessing
	o.MergePaymentDetails(map[string]any{"chapa_checkout_url": url, "initiated_at": now.UTC().Format(time.RFC3339)})
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return &PaymentInitiation{Provider: domain.PaymentChapa, OrderID: o.ID, OrderNumber: o.OrderNumber, PaymentID: txRef, PaymentStatus: o.PaymentStatus, CheckoutURL: url}, nil
}

func (uc *PaymentUC) InitiateTelebirr(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*PaymentInitiation, error) {
	o, err := uc.payable(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	checkout, err := uc.Telebirr.CreateOrder(ctx, o)
	if err != nil {
		return nil, providerError("telebirr", err)
	}
	now := nowFrom(uc.Clock)
	o.PaymentMethod = domain.PaymentTelebirr
	o.PaymentID = fmt.Sprintf("TLB-%s-%d", o.OrderNumber, now.UnixMilli())
	o.PaymentStatus = domain.PaymentProcessing
	o.MergePaymentDetails(map[string]any{"telebirr_out_trade_no": checkout.OutTradeNo, "initiated_at": now.UTC().Format(time.RFC3339)})
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return &PaymentInitiation{Provider: domain.PaymentTelebirr, OrderID: o.ID, OrderNumber: o.OrderNumber, PaymentID: o.PaymentID, PaymentStatus: o.PaymentStatus, Telebirr: checkout}, nil
}

func (uc *PaymentUC) InitiateBankTransfer(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*PaymentInitiation, error) {
	o, err := uc.payable(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	now := nowFrom(uc.Clock)
	ref := fmt.Sprintf("BNK-%s-%d", o.OrderNumber, now.UnixMilli())
	instr := uc.Bank.Instructions(o, ref)

	o.PaymentMethod = domain.PaymentBankTransfer
	o.PaymentID = ref
	o.PaymentStatus = domain.PaymentProcessing
	o.MergePaymentDetails(map[string]any{"bank_reference": ref, "initiated_at": now.UTC().Format(time.RFC3339)})
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return &PaymentInitiation{Provider: domain.PaymentBankTransfer, OrderID: o.ID, OrderNumber: o.OrderNumber, PaymentID: ref, PaymentStatus: o.PaymentStatus, BankTransfer: &instr}, nil
}

// ConfirmCOD confirms an order that will be paid on delivery; no provider is involved.
func (uc *PaymentUC) ConfirmCOD(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*PaymentInitiation, error) {
	o, err := uc.payable(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	prev := o.Status
	o.PaymentMethod = domain.PaymentCOD
	o.PaymentStatus = domain.PaymentPending
	if o.Status == domain.OrderStatusPending {
		o.Status = domain.OrderStatusConfirmed
	}
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	if prev != o.Status {
		publish(ctx, uc.Events, domain.NewOrderEvent(domain.EventOrderStatusChanged, o, map[string]any{"from": prev, "to": o.Status}))
	}
	return &PaymentInitiation{Provider: domain.PaymentCOD, OrderID: o.ID, OrderNumber: o.OrderNumber, PaymentStatus: o.PaymentStatus}, nil
}

// VerifyBankTransfer records an admin's manual check of a bank transfer.
func (uc *PaymentUC) VerifyBankTransfer(ctx context.Context, actor domain.Actor, orderID uuid.UUID, verified bool, reference string) (*domain.Order, error) {
	if err := uc.Authz.Require(actor, "payment", "verify"); err != nil {
		return nil, err
	}
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != domain.PaymentBankTransfer {
		return nil, domain.Invalid("order %s is not paid by bank transfer", o.OrderNumber)
	}
	if o.PaymentStatus == domain.PaymentCompleted {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyPaid, o.OrderNumber)
	}
	details := map[string]any{
		"bank_verified":    verified,
		"bank_verified_by": actor.ID.String(),
		"bank_verified_at": nowFrom(uc.Clock).UTC().Format(time.RFC3339),
	}
	if reference = strings.TrimSpace(reference); reference != "" {
		details["bank_transfer_reference"] = reference
	}
	uc.settle(o, verified, details)
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	uc.announce(ctx, o, verified)
	return o, nil
}

// HandleChapaWebhook reconciles a Chapa callback. Redelivery of a settled payment is
// acknowledged without touching the order.
func (uc *PaymentUC) HandleChapaWebhook(ctx context.Context, txRef string) WebhookResult {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return WebhookResult{HTTPStatus: http.StatusBadRequest, Status: webhookFailed, Message: "tx_ref is required"}
	}
	o, res, ok := uc.webhookOrder(ctx, "chapa", txRef, uc.Orders.FindByPaymentID)
	if !ok {
		return res
	}
	if res, done := settled(o, domain.PaymentChapa); done {
		return res
	}

	v, err := uc.Chapa.Verify(ctx, txRef)
	if err != nil {
		log.Error().Err(err).Str("tx_ref", txRef).Msg("chapa verify")
		return WebhookResult{HTTPStatus: http.StatusBadGateway, Status: webhookError, Message: "verification failed", OrderNumber: o.OrderNumber}
	}
	success := v.Success()
	if !success && o.PaymentStatus == domain.PaymentFailed {
		return alreadyFailed(o)
	}
	uc.settle(o, success, map[string]any{
		"chapa_verification": v.Raw,
		"chapa_status":       v.Status,
		"chapa_reference":    v.Reference,
		"verified_at":        nowFrom(uc.Clock).UTC().Format(time.RFC3339),
	})
	return uc.finishWebhook(ctx, "chapa", o, success)
}

// HandleTelebirrWebhook reconciles a signed TeleBirr notification, keyed by order number.
// Only orders checked out through TeleBirr are settled.
func (uc *PaymentUC) HandleTelebirrWebhook(ctx context.Context, n domain.TelebirrNotification) WebhookResult {
	outTradeNo := strings.TrimSpace(n.OutTradeNo)
	if outTradeNo == "" {
		return WebhookResult{HTTPStatus: http.StatusBadRequest, Status: webhookFailed, Message: "outTradeNo is required"}
	}
	if !uc.Telebirr.VerifyNotification(n) {
		log.Warn().Str("out_trade_no", outTradeNo).Msg("telebirr notification with bad signature")
		return WebhookResult{HTTPStatus: http.StatusUnauthorized, Status: webhookFailed, Message: "invalid signature"}
	}
	o, res, ok := uc.webhookOrder(ctx, "telebirr", outTradeNo, uc.Orders.FindByNumber)
	if !ok {
		return res
	}
	if res, done := settled(o, domain.PaymentTelebirr); done {
		return res
	}

	_, success := telebirrSuccess[strings.ToLower(strings.TrimSpace(n.TradeStatus))]
	if !success && o.PaymentStatus == domain.PaymentFailed {
		return alreadyFailed(o)
	}
	uc.settle(o, success, map[string]any{
		"telebirr_transaction_id": n.TransactionID,
		"telebirr_trade_status":   n.TradeStatus,
		"verified_at":             nowFrom(uc.Clock).UTC().Format(time.RFC3339),
	})
	return uc.finishWebhook(ctx, "telebirr", o, success)
}

// settled answers callbacks that must not touch the order: a payment already
// completed, or an order whose checkout was not started with this provider.
// A checkout cancelled along with its order still accepts the provider's verdict.
func settled(o *domain.Order, provider domain.PaymentMethod) (WebhookResult, bool) {
	if o.PaymentStatus == domain.PaymentCompleted {
		return WebhookResult{HTTPStatus: http.StatusOK, Status: webhookSuccess, Message: "payment already confirmed", OrderNumber: o.OrderNumber}, true
	}
	var awaiting bool
	switch o.PaymentStatus {
	case domain.PaymentProcessing, domain.PaymentFailed, domain.PaymentCancelled:
		awaiting = true
	}
	if o.PaymentMethod != provider || !awaiting {
		log.Warn().Str("provider", string(provider)).Str("order_number", o.OrderNumber).
			Str("payment_method", string(o.PaymentMethod)).Str("payment_status", string(o.PaymentStatus)).
			Msg("webhook for order not awaiting this provider")
		return WebhookResult{HTTPStatus: http.StatusConflict, Status: webhookFailed, Message: "order is not awaiting this payment", OrderNumber: o.OrderNumber}, true
	}
	return WebhookResult{}, false
}

func alreadyFailed(o *domain.Order) WebhookResult {
	return WebhookResult{HTTPStatus: http.StatusOK, Status: webhookFailed, Message: "payment already failed", OrderNumber: o.OrderNumber}
}

func (uc *PaymentUC) webhookOrder(ctx context.Context, provider, ref string, find func(context.Context, string) (*domain.Order, error)) (*domain.Order, WebhookResult, bool) {
	o, err := find(ctx, ref)
	if err == nil {
		return o, WebhookResult{}, true
	}
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("provider", provider).Str("ref", ref).Msg("webhook for unknown order")
		return nil, WebhookResult{HTTPStatus: http.StatusNotFound, Status: webhookError, Message: "order not found"}, false
	}
	log.Error().Err(err).Str("provider", provider).Str("ref", ref).Msg("webhook order lookup")
	return nil, WebhookResult{HTTPStatus: http.StatusInternalServerError, Status: webhookError, Message: "internal error"}, false
}

func (uc *PaymentUC) finishWebhook(ctx context.Context, provider string, o *domain.Order, success bool) WebhookResult {
	if err := uc.Orders.Save(ctx, o); err != nil {
		log.Error().Err(err).Str("provider", provider).Str("order_number", o.OrderNumber).Msg("save order webhook")
		return WebhookResult{HTTPStatus: http.StatusInternalServerError, Status: webhookError, Message: "internal error", OrderNumber: o.OrderNumber}
	}
	log.Info().Str("provider", provider).Str("order_number", o.OrderNumber).Str("payment_status", string(o.PaymentStatus)).Msg("payment webhook processed")
	uc.announce(ctx, o, success)
	if success {
		return WebhookResult{HTTPStatus: http.StatusOK, Status: webhookSuccess, Message: "payment confirmed", OrderNumber: o.OrderNumber}
	}
	return WebhookResult{HTTPStatus: http.StatusOK, Status: webhookFailed, Message: "payment not successful", OrderNumber: o.OrderNumber}
}

// settle applies a provider verdict. A completed payment confirms a pending order;
// later fulfilment states are left alone.
func (uc *PaymentUC) settle(o *domain.Order, success bool, details map[string]any) {
	o.MergePaymentDetails(details)
	if !success {
		o.PaymentStatus = domain.PaymentFailed
		return
	}
	o.PaymentStatus = domain.PaymentCompleted
	switch o.Status {
	case domain.OrderStatusPending:
		o.Status = domain.OrderStatusConfirmed
	case domain.OrderStatusCancelled:
		log.Warn().Str("order_number", o.OrderNumber).Msg("payment completed for cancelled order")
	}
}

func (uc *PaymentUC) announce(ctx context.Context, o *domain.Order, success bool) {
	t := domain.EventPaymentFailed
	if success {
		t = domain.EventPaymentCompleted
	}
	publish(ctx, uc.Events, domain.NewOrderEvent(t, o, map[string]any{"payment_method": o.PaymentMethod, "payment_id": o.PaymentID}))
}

// payable loads an order the actor may pay for.
func (uc *PaymentUC) payable(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	if err := uc.Authz.Require(actor, "payment", "initiate"); err != nil {
		return nil, err
	}
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != actor.ID {
		return nil, fmt.Errorf("%w: order belongs to another customer", domain.ErrForbidden)
	}
	if o.PaymentStatus == domain.PaymentCompleted {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyPaid, o.OrderNumber)
	}
	if o.Status == domain.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %s is cancelled", domain.ErrInvalidTransition, o.OrderNumber)
	}
	return o, nil
}

func providerError(provider string, err error) error {
	var pe *domain.PaymentProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &domain.PaymentProviderError{Provider: provider, Err: err}
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
