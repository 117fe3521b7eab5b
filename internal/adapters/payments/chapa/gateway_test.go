package chapa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/gebeya/internal/domain"
)

func TestInitialize(t *testing.T) {
	var got initializeReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer CHASECK_TEST", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":"Hosted Link","status":"success","data":{"checkout_url":"https://checkout.chapa.co/checkout/payment/abc"}}`))
	}))
	defer srv.Close()

	g := NewGateway("CHASECK_TEST", srv.URL+"/")
	url, err := g.Initialize(context.Background(), domain.ChapaCheckout{
		TxRef: "CHA-ORD-1-1", Amount: 1840, Email: "abebe@example.et", FirstName: "Abebe", Title: "Order ORD-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/abc", url)
	assert.Equal(t, "1840.00", got.Amount)
	assert.Equal(t, "ETB", got.Currency)
	assert.Equal(t, "CHA-ORD-1-1", got.TxRef)
	assert.Equal(t, "Order ORD-1", got.Customization["title"])
}

func TestInitializeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API Key","status":"failed","data":null}`))
	}))
	defer srv.Close()

	_, err := NewGateway("bad", srv.URL).Initialize(context.Background(), domain.ChapaCheckout{TxRef: "x", Amount: 1})

	var pe *domain.PaymentProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, pe.HTTPStatus())
	assert.ErrorContains(t, err, "Invalid API Key")
}

func TestInitializeWithoutSecret(t *testing.T) {
	_, err := NewGateway("", "").Initialize(context.Background(), domain.ChapaCheckout{TxRef: "x"})

	var pe *domain.PaymentProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusInternalServerError, pe.HTTPStatus())
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transaction/verify/CHA-ORD-1-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"Payment details","status":"success","data":{"status":"SUCCESS","reference":"AP9x","amount":"1840.00","tx_ref":"CHA-ORD-1-1"}}`))
	}))
	defer srv.Close()

	v, err := NewGateway("CHASECK_TEST", srv.URL).Verify(context.Background(), "CHA-ORD-1-1")
	require.NoError(t, err)

	assert.True(t, v.Success())
	assert.Equal(t, "AP9x", v.Reference)
	assert.Equal(t, 1840.0, v.Amount)
	assert.Equal(t, "CHA-ORD-1-1", v.Raw["tx_ref"])
}

func TestVerifyPendingIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"status":"pending","amount":10}}`))
	}))
	defer srv.Close()

	v, err := NewGateway("k", srv.URL).Verify(context.Background(), "ref")
	require.NoError(t, err)
	assert.False(t, v.Success())
	assert.Equal(t, 10.0, v.Amount)
}
