package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// MoMoConfig cấu hình ví MoMo (ký HMAC trực tiếp)
type MoMoConfig struct {
	PartnerCode string        `env:"MOMO_PARTNER_CODE"`
	AccessKey   string        `env:"MOMO_ACCESS_KEY"`
	SecretKey   string        `env:"MOMO_SECRET_KEY"`
	Endpoint    string        `env:"MOMO_ENDPOINT" env-default:"https://test-payment.momo.vn/gw_payment/transactionProcessor"`
	ReturnURL   string        `env:"MOMO_RETURN_URL"`
	NotifyURL   string        `env:"MOMO_NOTIFY_URL"`
	RequestType string        `env:"MOMO_REQUEST_TYPE" env-default:"captureMoMoWallet"`
	MinAmount   int64         `env:"MOMO_MIN_AMOUNT" env-default:"1000"`
	MaxAmount   int64         `env:"MOMO_MAX_AMOUNT" env-default:"50000000"`
	Timeout     time.Duration `env:"MOMO_TIMEOUT" env-default:"15s"`
	PendingTTL  time.Duration `env:"MOMO_PENDING_TTL" env-default:"30m"`
}

// PayPalConfig cấu hình cổng duyệt-rồi-capture (OAuth)
type PayPalConfig struct {
	ClientID   string        `env:"PAYPAL_CLIENT_ID"`
	Secret     string        `env:"PAYPAL_SECRET"`
	BaseURL    string        `env:"PAYPAL_BASE_URL" env-default:"https://api.sandbox.paypal.com"`
	USDRate    int64         `env:"PAYPAL_USD_RATE" env-default:"24000"` // VND cho 1 USD
	Timeout    time.Duration `env:"PAYPAL_TIMEOUT" env-default:"20s"`
	TokenSlack time.Duration `env:"PAYPAL_TOKEN_SLACK" env-default:"60s"`
}

type GatewayConfig struct {
	MoMo   MoMoConfig
	PayPal PayPalConfig
	AppURL string `env:"APP_URL" env-default:"http://localhost:5173"`
}

// MustLoadGateways đọc cấu hình cổng thanh toán từ biến môi trường
func MustLoadGateways() *GatewayConfig {
	var cfg GatewayConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("không đọc được cấu hình cổng thanh toán: %v", err)
	}
	if cfg.MoMo.ReturnURL == "" {
		cfg.MoMo.ReturnURL = Config("APP_API_URL") + "/payments/wallet/return"
	}
	if cfg.MoMo.NotifyURL == "" {
		cfg.MoMo.NotifyURL = Config("APP_API_URL") + "/payments/wallet/notify"
	}
	if err := checkGatewayConfig(&cfg); err != nil {
		log.Fatalf("cấu hình cổng thanh toán không hợp lệ: %v", err)
	}
	return &cfg
}

// checkGatewayConfig bắt cấu hình hỏng ngay lúc khởi động thay vì lỗi
// giữa request
func checkGatewayConfig(cfg *GatewayConfig) error {
	// Tỷ giá là mẫu số khi quy đổi VND→USD, bằng 0 sẽ chia cho 0
	if cfg.PayPal.USDRate <= 0 {
		return fmt.Errorf("PAYPAL_USD_RATE phải là số dương, đang là %d", cfg.PayPal.USDRate)
	}
	if cfg.MoMo.MinAmount <= 0 || cfg.MoMo.MaxAmount < cfg.MoMo.MinAmount {
		return fmt.Errorf("khoảng số tiền MoMo không hợp lệ: min=%d max=%d", cfg.MoMo.MinAmount, cfg.MoMo.MaxAmount)
	}
	return nil
}
