package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketplace_manager/config"
	"marketplace_manager/model"
	"marketplace_manager/utils"

	"github.com/redis/go-redis/v9"
)

// CredentialProvider cấp OAuth token cho cổng duyệt-rồi-capture.
// Cổng này xác thực khác hẳn ví: không ký HMAC tay, chỉ dùng token.
type CredentialProvider interface {
	GetOAuthToken(ctx context.Context) (string, error)
}

const paypalTokenKey = "paypal:access_token"

// PayPalTokenProvider lấy token bằng client_credentials, cache trong redis
// tới trước hạn một khoảng slack
type PayPalTokenProvider struct {
	Config config.PayPalConfig
	Client *http.Client
	Redis  *redis.Client // nil được: mỗi lần đều fetch mới
}

func (p *PayPalTokenProvider) GetOAuthToken(ctx context.Context) (string, error) {
	if p.Redis != nil {
		if token, err := p.Redis.Get(ctx, paypalTokenKey).Result(); err == nil && token != "" {
			return token, nil
		}
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.Config.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.Config.ClientID, p.Config.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := p.Client.Do(req)
	utils.GatewayRequestDuration.WithLabelValues("paypal", "token").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("lấy OAuth token thất bại: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cổng thanh toán từ chối cấp token: HTTP %d", resp.StatusCode)
	}

	var tr model.PayPalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}

	if p.Redis != nil && tr.ExpiresIn > 0 {
		ttl := time.Duration(tr.ExpiresIn)*time.Second - p.Config.TokenSlack
		if ttl > 0 {
			p.Redis.Set(ctx, paypalTokenKey, tr.AccessToken, ttl)
		}
	}
	return tr.AccessToken, nil
}

// PayPal adapter cổng duyệt-rồi-capture
type PayPal struct {
	Config config.PayPalConfig
	Client *http.Client
	Creds  CredentialProvider
}

func NewPayPal(cfg config.PayPalConfig, rdb *redis.Client) *PayPal {
	client := &http.Client{Timeout: cfg.Timeout}
	return &PayPal{
		Config: cfg,
		Client: client,
		Creds:  &PayPalTokenProvider{Config: cfg, Client: client, Redis: rdb},
	}
}

// FormatUSD đổi VND sang chuỗi USD 2 chữ số thập phân theo tỷ giá cấu hình
func (p *PayPal) FormatUSD(amountVND int64) string {
	cents := (amountVND*100 + p.Config.USDRate/2) / p.Config.USDRate
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

type PayPalCreateResult struct {
	ApprovalUrl    string
	PaymentId      string // id giao dịch phía cổng, lưu làm mã tương quan
	GatewayOrderId string
}

// CreateApproval tạo giao dịch chờ người dùng duyệt trên trang của cổng
func (p *PayPal) CreateApproval(ctx context.Context, order *model.Order, gatewayOrderId, successUrl, cancelUrl string) (*PayPalCreateResult, error) {
	body := model.PayPalCreateRequest{
		Intent: "sale",
		Payer:  model.PayPalPayer{PaymentMethod: "paypal"},
		Transactions: []model.PayPalTransaction{{
			Amount:      model.PayPalAmount{Total: p.FormatUSD(order.GrandTotal()), Currency: "USD"},
			Description: fmt.Sprintf("Thanh toán đơn hàng %s", order.PublicCode),
			InvoiceNum:  gatewayOrderId,
		}},
		RedirectUrls: model.PayPalRedirectUrls{ReturnUrl: successUrl, CancelUrl: cancelUrl},
	}

	var resp model.PayPalPaymentResponse
	if err := p.call(ctx, http.MethodPost, "/v1/payments/payment", "create", body, &resp); err != nil {
		return nil, err
	}

	approvalUrl := resp.ApprovalURL()
	if resp.ID == "" || approvalUrl == "" {
		return nil, fmt.Errorf("cổng thanh toán không trả về approval URL (state=%s)", resp.State)
	}

	return &PayPalCreateResult{
		ApprovalUrl:    approvalUrl,
		PaymentId:      resp.ID,
		GatewayOrderId: gatewayOrderId,
	}, nil
}

// Execute capture giao dịch sau khi người dùng đã duyệt.
// Trả về response thô để caller đối chiếu số tiền trước khi chốt trạng thái.
func (p *PayPal) Execute(ctx context.Context, paymentToken, payerToken string) (*model.PayPalPaymentResponse, error) {
	var resp model.PayPalPaymentResponse
	path := fmt.Sprintf("/v1/payments/payment/%s/execute", url.PathEscape(paymentToken))
	if err := p.call(ctx, http.MethodPost, path, "execute", model.PayPalExecuteRequest{PayerId: payerToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *PayPal) call(ctx context.Context, method, path, operation string, body, out interface{}) error {
	token, err := p.Creds.GetOAuthToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, p.Config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := p.Client.Do(req)
	utils.GatewayRequestDuration.WithLabelValues("paypal", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("gọi cổng thanh toán thất bại: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cổng thanh toán trả về HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
