package banktransfer

import (
	"github.com/phenrril/gebeya/internal/domain"
)

// Gateway hands out the merchant's account details; transfers are confirmed
// manually by an admin.
type Gateway struct {
	BankName      string
	AccountName   string
	AccountNumber string
}

func NewGateway(bankName, accountName, accountNumber string) *Gateway {
	if bankName == "" {
		bankName = "Commercial Bank of Ethiopia"
	}
	return &Gateway{BankName: bankName, AccountName: accountName, AccountNumber: accountNumber}
}

func (g *Gateway) Instructions(o *domain.Order, reference string) domain.BankTransferInstructions {
	return domain.BankTransferInstructions{
		BankName:      g.BankName,
		AccountName:   g.AccountName,
		AccountNumber: g.AccountNumber,
		Reference:     reference,
		Amount:        o.TotalAmount,
	}
}
