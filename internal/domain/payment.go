package domain

import "context"

type ChapaCheckout struct {
	TxRef       string
	Amount      float64
	Currency    CurrencyCode
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	CallbackURL string
	ReturnURL   string
	Title       string
	Description string
}

type ChapaVerification struct {
	Status    string
	Reference string
	Amount    float64
	Raw       map[string]any
}

// Success reports whether Chapa settled the transaction.
func (v *ChapaVerification) Success() bool { return v != nil && v.Status == "success" }

type ChapaGateway interface {
	Initialize(ctx context.Context, c ChapaCheckout) (checkoutURL string, err error)
	Verify(ctx context.Context, txRef string) (*ChapaVerification, error)
}

type TelebirrCheckout struct {
	OutTradeNo string `json:"out_trade_no"`
	QRCode     string `json:"qr_code"`
	DeepLink   string `json:"deep_link"`
	ToPayURL   string `json:"to_pay_url"`
	Nonce      string `json:"nonce"`
	Sign       string `json:"sign"`
}

// TelebirrNotification is the payment result TeleBirr posts back, signed with the app key.
type TelebirrNotification struct {
	OutTradeNo    string `json:"outTradeNo"`
	TradeStatus   string `json:"tradeStatus"`
	TransactionID string `json:"transactionId"`
	Sign          string `json:"sign"`
}

type TelebirrGateway interface {
	CreateOrder(ctx context.Context, o *Order) (*TelebirrCheckout, error)
	VerifyNotification(n TelebirrNotification) bool
}

type BankTransferInstructions struct {
	BankName      string  `json:"bank_name"`
	AccountName   string  `json:"account_name"`
	AccountNumber string  `json:"account_number"`
	Reference     string  `json:"reference"`
	Amount        float64 `json:"amount"`
}

type BankTransferGateway interface {
	Instructions(o *Order, reference string) BankTransferInstructions
}
