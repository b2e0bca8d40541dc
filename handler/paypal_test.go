package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marketplace_manager/config"
	"marketplace_manager/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayPalConfig(base string) config.PayPalConfig {
	return config.PayPalConfig{
		ClientID: "client",
		Secret:   "secret",
		BaseURL:  base,
		USDRate:  24000,
		Timeout:  2 * time.Second,
	}
}

func TestFormatUSD(t *testing.T) {
	p := NewPayPal(testPayPalConfig("http://unused"), nil)

	assert.Equal(t, "10.00", p.FormatUSD(240000))
	assert.Equal(t, "7.08", p.FormatUSD(169900)) // 169900/24000 ≈ 7.0792, làm tròn 2 chữ số
	assert.Equal(t, "0.05", p.FormatUSD(1200))
}

func newPayPalTestServer(t *testing.T, tokenCalls *int64) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "client", user)
		require.Equal(t, "secret", pass)
		json.NewEncoder(w).Encode(model.PayPalTokenResponse{
			AccessToken: "tok-1", TokenType: "Bearer", ExpiresIn: 3600,
		})
	})
	mux.HandleFunc("/v1/payments/payment", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		var req model.PayPalCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(model.PayPalPaymentResponse{
			ID:           "PAY-123",
			State:        "created",
			Transactions: req.Transactions,
			Links: []model.PayPalLink{
				{Href: "https://paypal.test/approve?token=PAY-123", Rel: "approval_url", Method: "REDIRECT"},
			},
		})
	})
	mux.HandleFunc("/v1/payments/payment/PAY-123/execute", func(w http.ResponseWriter, r *http.Request) {
		var req model.PayPalExecuteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "PAYER-9", req.PayerId)
		resp := model.PayPalPaymentResponse{ID: "PAY-123", State: "approved"}
		resp.Payer.PayerInfo.PayerId = "PAYER-9"
		resp.Transactions = []model.PayPalTransaction{{
			Amount: model.PayPalAmount{Total: "7.08", Currency: "USD"},
			RelatedResources: []model.PayPalRelatedResource{
				{Sale: &model.PayPalSale{ID: "SALE-77", State: "completed"}},
			},
		}}
		json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func TestPayPalCreateApproval(t *testing.T) {
	var tokenCalls int64
	server := newPayPalTestServer(t, &tokenCalls)
	defer server.Close()

	p := NewPayPal(testPayPalConfig(server.URL), nil)
	order := testOrder(42, 150000, 19900)

	result, err := p.CreateApproval(context.Background(), order, "ORDER_42_169900000001",
		"http://localhost:5173/payment-result", "http://localhost:5173/payment-cancelled")
	require.NoError(t, err)
	assert.Equal(t, "PAY-123", result.PaymentId)
	assert.Equal(t, "https://paypal.test/approve?token=PAY-123", result.ApprovalUrl)
	assert.Equal(t, int64(1), atomic.LoadInt64(&tokenCalls))
}

func TestPayPalExecuteReturnsSaleCorrelation(t *testing.T) {
	var tokenCalls int64
	server := newPayPalTestServer(t, &tokenCalls)
	defer server.Close()

	p := NewPayPal(testPayPalConfig(server.URL), nil)

	resp, err := p.Execute(context.Background(), "PAY-123", "PAYER-9")
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.State)
	assert.Equal(t, "PAYER-9", resp.Payer.PayerInfo.PayerId)
	require.NotEmpty(t, resp.Transactions)
	require.NotEmpty(t, resp.Transactions[0].RelatedResources)
	assert.Equal(t, "SALE-77", resp.Transactions[0].RelatedResources[0].Sale.ID)
}
