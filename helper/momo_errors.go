package helper

import (
	"marketplace_manager/constants"
	"marketplace_manager/model"
)

// Bảng mã lỗi của ví: mã số → nhóm lỗi ổn định + thông báo hiển thị.
// Nhóm lỗi dùng cho log/metric, thông báo chỉ để hiển thị cho người dùng.
var momoErrorTable = map[string]struct {
	Category string
	Message  string
}{
	"1":  {constants.GATEWAY_ERR_SYSTEM, "Hệ thống cổng thanh toán đang bận, vui lòng thử lại"},
	"2":  {constants.GATEWAY_ERR_CONFIG, "Cấu hình merchant không hợp lệ"},
	"3":  {constants.GATEWAY_ERR_CONFIG, "Loại request không được hỗ trợ"},
	"4":  {constants.GATEWAY_ERR_AMOUNT, "Số tiền không hợp lệ"},
	"5":  {constants.GATEWAY_ERR_SIGNATURE, "Chữ ký không hợp lệ"},
	"6":  {constants.GATEWAY_ERR_ORDER_NOT_FOUND, "Không tìm thấy giao dịch"},
	"7":  {constants.GATEWAY_ERR_IP, "Địa chỉ IP không được phép truy cập"},
	"8":  {constants.GATEWAY_ERR_DUPLICATE, "Mã đơn hàng đã tồn tại"},
	"41": {constants.GATEWAY_ERR_DUPLICATE, "Mã đơn hàng đã tồn tại"},
	"42": {constants.GATEWAY_ERR_AMOUNT, "Số tiền vượt hạn mức giao dịch"},
}

// MapMoMoError đổi mã lỗi provider thành GatewayError có phân loại
func MapMoMoError(code, providerMessage string) *model.GatewayError {
	if e, ok := momoErrorTable[code]; ok {
		return &model.GatewayError{Code: code, Category: e.Category, Message: e.Message}
	}
	msg := providerMessage
	if msg == "" {
		msg = "Lỗi không xác định từ cổng thanh toán"
	}
	return &model.GatewayError{Code: code, Category: constants.GATEWAY_ERR_UNKNOWN, Message: msg}
}
