package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"marketplace_manager/config"
	"marketplace_manager/constants"
	"marketplace_manager/helper"
	"marketplace_manager/model"
	"marketplace_manager/utils"

	"github.com/google/uuid"
)

// MoMo adapter ví: ký HMAC trực tiếp rồi POST JSON sang endpoint của ví
type MoMo struct {
	Config config.MoMoConfig
	Client *http.Client
}

func NewMoMo(cfg config.MoMoConfig) *MoMo {
	return &MoMo{
		Config: cfg,
		Client: &http.Client{Timeout: cfg.Timeout},
	}
}

// MoMoCreateResult kết quả khởi tạo: URL chuyển hướng + mã tương quan
type MoMoCreateResult struct {
	PayUrl         string
	GatewayOrderId string
	RequestId      string
}

// CreatePayment khởi tạo thanh toán ví cho một đơn hàng.
// Kiểm tra hạn mức trước, chưa đạt thì trả lỗi domain, không gọi mạng.
func (m *MoMo) CreatePayment(ctx context.Context, order *model.Order) (*MoMoCreateResult, error) {
	amount := order.GrandTotal()
	if amount < m.Config.MinAmount || amount > m.Config.MaxAmount {
		return nil, &model.GatewayError{
			Code:     "local",
			Category: constants.GATEWAY_ERR_AMOUNT,
			Message: fmt.Sprintf("Số tiền %d ngoài hạn mức cho phép (%d - %d VND)",
				amount, m.Config.MinAmount, m.Config.MaxAmount),
		}
	}

	// Suffix theo millisecond: gateway từ chối orderId trùng nên mỗi lần
	// khởi tạo lại cho cùng đơn phải sinh mã mới
	gatewayOrderId := helper.EncodeOrderID(order.ID, strconv.FormatInt(time.Now().UnixMilli(), 10))

	req := model.MoMoCreateRequest{
		PartnerCode: m.Config.PartnerCode,
		AccessKey:   m.Config.AccessKey,
		RequestId:   uuid.NewString(),
		Amount:      strconv.FormatInt(amount, 10),
		OrderId:     gatewayOrderId,
		OrderInfo:   fmt.Sprintf("Thanh toán đơn hàng %s", order.PublicCode),
		ReturnUrl:   m.Config.ReturnURL,
		NotifyUrl:   m.Config.NotifyURL,
		ExtraData:   "",
		RequestType: m.Config.RequestType,
	}
	req.Signature = helper.SignHMAC(helper.BuildCanonicalString(req.CanonicalPairs()), m.Config.SecretKey)

	resp, err := m.post(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.ErrorCode != "0" {
		return nil, helper.MapMoMoError(resp.ErrorCode, resp.Message)
	}

	return &MoMoCreateResult{
		PayUrl:         resp.PayUrl,
		GatewayOrderId: gatewayOrderId,
		RequestId:      req.RequestId,
	}, nil
}

func (m *MoMo) post(ctx context.Context, body model.MoMoCreateRequest) (*model.MoMoCreateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := m.Client.Do(httpReq)
	utils.GatewayRequestDuration.WithLabelValues("momo", "create").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("gọi cổng ví thất bại: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cổng ví trả về HTTP %d", httpResp.StatusCode)
	}

	var resp model.MoMoCreateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("không đọc được phản hồi từ cổng ví: %w", err)
	}
	return &resp, nil
}
