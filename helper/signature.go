package helper

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// BuildCanonicalString nối key=value bằng & theo ĐÚNG thứ tự caller truyền vào.
// Giao thức quy định thứ tự trường cố định và khác nhau giữa thao tác tạo và
// xác nhận, nên tuyệt đối không sort lại ở đây.
func BuildCanonicalString(pairs [][2]string) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p[0])
		sb.WriteByte('=')
		sb.WriteString(p[1])
	}
	return sb.String()
}

// SignHMAC ký HMAC-SHA256, trả về hex thường
func SignHMAC(canonical, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(canonical))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC kiểm chữ ký, so sánh constant-time.
// Input hỏng kiểu gì cũng chỉ trả false, không bao giờ panic.
func VerifyHMAC(canonical, secret, signature string) bool {
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(canonical))
	return hmac.Equal(h.Sum(nil), got)
}
