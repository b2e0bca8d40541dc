package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		MoMo:   MoMoConfig{MinAmount: 1000, MaxAmount: 50000000},
		PayPal: PayPalConfig{USDRate: 24000},
	}
}

func TestCheckGatewayConfig(t *testing.T) {
	assert.NoError(t, checkGatewayConfig(validGatewayConfig()))

	// Tỷ giá 0 hoặc âm sẽ chia cho 0 ở lần quy đổi đầu tiên
	cfg := validGatewayConfig()
	cfg.PayPal.USDRate = 0
	assert.Error(t, checkGatewayConfig(cfg))

	cfg = validGatewayConfig()
	cfg.PayPal.USDRate = -1
	assert.Error(t, checkGatewayConfig(cfg))

	cfg = validGatewayConfig()
	cfg.MoMo.MaxAmount = 500 // nhỏ hơn min
	assert.Error(t, checkGatewayConfig(cfg))
}
