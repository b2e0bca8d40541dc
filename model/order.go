package model

import "time"

type Order struct {
	DTO
	PublicCode   string     `gorm:"unique;size:20" json:"publicCode"` // Mã đơn hàng công khai (ORD-XXXXXX)
	CustomerID   *uint      `json:"customerId,omitempty"`             // Null nếu khách vãng lai
	TotalAmount  int64      `json:"totalAmount"`                      // Tổng tiền hàng (VND)
	ShippingFee  int64      `json:"shippingFee"`                      // Phí vận chuyển (VND)
	Status       string     `json:"status"`                           // PENDING, PAID, SHIPPING, DELIVERED, CANCELLED
	PaidAt       *time.Time `json:"paidAt,omitempty"`
	CustomerName string     `json:"customerName"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
}

// GrandTotal tổng phải thanh toán = tiền hàng + phí ship, chốt tại lúc tạo thanh toán
func (o *Order) GrandTotal() int64 {
	return o.TotalAmount + o.ShippingFee
}

// OrderStatusHistory sổ ghi trạng thái đơn hàng, chỉ thêm không sửa
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderId   uint      `gorm:"not null;index" json:"orderId"`
	Status    string    `gorm:"not null" json:"status"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy *uint     `json:"createdBy,omitempty"` // Null nếu hệ thống tự ghi

	Order Order `gorm:"foreignKey:OrderId" json:"-"`
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required,oneof=PENDING PAID SHIPPING DELIVERED CANCELLED"`
	Note   string `json:"note"`
}
