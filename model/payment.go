package model

import (
	"fmt"
	"time"
)

type Payment struct {
	DTO
	OrderId       uint       `gorm:"not null;uniqueIndex" json:"orderId"` // 1 đơn - 1 thanh toán
	Amount        int64      `gorm:"not null" json:"amount"`              // = Order.GrandTotal() tại lúc tạo
	Method        string     `json:"method"`                              // COD, MOMO, PAYPAL
	Status        string     `gorm:"default:CREATED" json:"status"`       // CREATED, PENDING, COMPLETED, FAILED
	TransactionId *string    `gorm:"index" json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	PayerId       *string    `json:"payerId,omitempty"`   // PayPal
	CaptureId     *string    `json:"captureId,omitempty"` // PayPal

	Order Order `gorm:"foreignKey:OrderId" json:"-"`
}

// IsTerminal thanh toán đã chốt, không nhận chuyển trạng thái nữa
func (p *Payment) IsTerminal() bool {
	return p.Status == "COMPLETED" || p.Status == "FAILED"
}

// PaymentInfo DTO trả về cho client
type PaymentInfo struct {
	ID            uint       `json:"id"`
	OrderId       uint       `json:"orderId"`
	Amount        int64      `json:"amount"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionId *string    `json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

type ProcessPaymentInput struct {
	OrderId    uint   `json:"orderId" validate:"required,gt=0"`
	Method     string `json:"method" validate:"required,oneof=COD MOMO PAYPAL"`
	SuccessUrl string `json:"successUrl" validate:"omitempty,url"`
	CancelUrl  string `json:"cancelUrl" validate:"omitempty,url"`
}

type CreateWalletPaymentInput struct {
	OrderId uint `json:"orderId" validate:"required,gt=0"`
}

type ExecuteApprovalInput struct {
	PaymentToken string `json:"paymentToken" validate:"required"`
	PayerToken   string `json:"payerToken" validate:"required"`
}

// GatewayError lỗi có phân loại từ cổng thanh toán
type GatewayError struct {
	Code     string `json:"code"`     // mã gốc provider trả về
	Category string `json:"category"` // nhóm lỗi ổn định (constants.GATEWAY_ERR_*)
	Message  string `json:"message"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %s (%s): %s", e.Code, e.Category, e.Message)
}
