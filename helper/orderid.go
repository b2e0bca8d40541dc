package helper

import (
	"fmt"
	"strconv"
	"strings"
)

const orderIdPrefix = "ORDER_"

// EncodeOrderID sinh mã đơn phía gateway: ORDER_<id>_<suffix>.
// Suffix để phân biệt các lần tạo thanh toán cho cùng một đơn
// (gateway từ chối trùng orderId).
func EncodeOrderID(orderId uint, suffix string) string {
	return fmt.Sprintf("%s%d_%s", orderIdPrefix, orderId, suffix)
}

// DecodeOrderID tách id đơn nội bộ từ mã gateway trả về.
// Phải chịu được cả dữ liệu legacy/bẩn: mã nhúng trong query string
// ("...orderId=ORDER_42_xxx&..."), mã thiếu suffix, hoặc chuỗi rác.
// ok=false nghĩa là không phân giải được, caller phải từ chối đối soát,
// tuyệt đối không được khớp nhầm sang đơn 0.
func DecodeOrderID(external string) (uint, bool) {
	if idx := strings.Index(external, orderIdPrefix); idx >= 0 {
		rest := external[idx+len(orderIdPrefix):]
		if sep := strings.IndexByte(rest, '_'); sep >= 0 {
			// Có suffix: phần trước dấu _ đầu tiên phải là số
			if id, ok := parseOrderId(rest[:sep]); ok {
				return id, true
			}
			// Dấu _ có thể thuộc phần đuôi URL ("ORDER_42&vnp_x=y"):
			// thử lại với dãy chữ số đầu. ORDER_abc_1 vẫn bị từ chối
			// vì không có chữ số nào đứng đầu.
		}
		// Legacy không suffix; cắt tại ký tự đầu tiên không phải chữ số
		// để chịu được dạng nhúng URL ("ORDER_42&vnp_x=y")
		return parseOrderId(leadingDigits(rest))
	}
	// Không có prefix: thử parse thẳng cả chuỗi
	return parseOrderId(external)
}

func parseOrderId(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func leadingDigits(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return s[:i]
		}
	}
	return s
}
