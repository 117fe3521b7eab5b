package telebirr

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/gebeya/internal/domain"
)

func TestCreateOrder(t *testing.T) {
	g := NewGateway("app-1", "secret", "220311", "https://pay.example.et/")
	o := &domain.Order{OrderNumber: "ORD-1-0001", TotalAmount: 1840}

	c, err := g.CreateOrder(context.Background(), o)
	require.NoError(t, err)

	assert.Equal(t, "ORD-1-0001", c.OutTradeNo)
	assert.Equal(t, "TELEBIRR:220311:ORD-1-0001:1840.00", c.QRCode)
	assert.Len(t, c.Nonce, 32)
	assert.True(t, strings.HasPrefix(c.ToPayURL, "https://pay.example.et/pay?"))

	u, err := url.Parse(c.DeepLink)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, c.Sign, q.Get("sign"))
	q.Del("sign")
	assert.Equal(t, c.Sign, g.Sign(q))
}

func TestSignIsDeterministic(t *testing.T) {
	g := NewGateway("app", "key", "1", "")
	a := url.Values{"b": {"2"}, "a": {"1"}}
	b := url.Values{"a": {"1"}, "b": {"2"}}

	assert.Equal(t, g.Sign(a), g.Sign(b))
	assert.NotEqual(t, g.Sign(a), NewGateway("app", "other", "1", "").Sign(a))
}

func TestCreateOrderWithoutKey(t *testing.T) {
	_, err := NewGateway("app", "", "1", "").CreateOrder(context.Background(), &domain.Order{})

	var pe *domain.PaymentProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "telebirr", pe.Provider)
}

func TestVerifyNotification(t *testing.T) {
	g := NewGateway("app", "key", "1", "")
	n := domain.TelebirrNotification{OutTradeNo: "ORD-1-0001", TradeStatus: "SUCCESS", TransactionID: "TX1"}
	n.Sign = g.NotificationSign(n)

	assert.True(t, g.VerifyNotification(n))

	upper := n
	upper.Sign = strings.ToUpper(n.Sign)
	assert.True(t, g.VerifyNotification(upper))

	tampered := n
	tampered.TradeStatus = "CLOSED"
	assert.False(t, g.VerifyNotification(tampered))

	unsigned := n
	unsigned.Sign = ""
	assert.False(t, g.VerifyNotification(unsigned))

	assert.False(t, NewGateway("app", "other", "1", "").VerifyNotification(n))
	assert.False(t, NewGateway("app", "", "1", "").VerifyNotification(n))
}
