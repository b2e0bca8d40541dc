package constants

// Trạng thái thanh toán
const (
	PAYMENT_CREATED   = "CREATED"
	PAYMENT_PENDING   = "PENDING"
	PAYMENT_COMPLETED = "COMPLETED"
	PAYMENT_FAILED    = "FAILED"
)

// Trạng thái đơn hàng
const (
	ORDER_PENDING   = "PENDING"
	ORDER_PAID      = "PAID"
	ORDER_SHIPPING  = "SHIPPING"
	ORDER_DELIVERED = "DELIVERED"
	ORDER_CANCELLED = "CANCELLED"
)

// Phương thức thanh toán
const (
	METHOD_COD    = "COD"
	METHOD_WALLET = "MOMO"
	METHOD_PAYPAL = "PAYPAL"
)

// Kênh xác nhận thanh toán
const (
	CHANNEL_RETURN   = "return"
	CHANNEL_IPN      = "ipn"
	CHANNEL_EXECUTE  = "execute"
	CHANNEL_DELIVERY = "delivery"
)

// Nhóm lỗi từ cổng thanh toán
const (
	GATEWAY_ERR_SYSTEM          = "SYSTEM_ERROR"
	GATEWAY_ERR_CONFIG          = "BAD_CONFIG"
	GATEWAY_ERR_AMOUNT          = "INVALID_AMOUNT"
	GATEWAY_ERR_SIGNATURE       = "BAD_SIGNATURE"
	GATEWAY_ERR_ORDER_NOT_FOUND = "ORDER_NOT_FOUND"
	GATEWAY_ERR_IP              = "IP_NOT_ALLOWED"
	GATEWAY_ERR_DUPLICATE       = "DUPLICATE_ORDER"
	GATEWAY_ERR_UNKNOWN         = "UNKNOWN"
)

const (
	ROLE_ADMIN = "admin"
	ROLE_STAFF = "staff"
)

const (
	NOT_ADMIN            = "Bạn không có quyền thực hiện thao tác này"
	ERROR_INTERNAL_ERROR = "Lỗi hệ thống, vui lòng thử lại sau"
)
