package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCanonicalString(t *testing.T) {
	pairs := [][2]string{
		{"partnerCode", "MOMO"},
		{"accessKey", "abc"},
		{"amount", "169900"},
	}
	assert.Equal(t, "partnerCode=MOMO&accessKey=abc&amount=169900", BuildCanonicalString(pairs))
	assert.Equal(t, "", BuildCanonicalString(nil))
	assert.Equal(t, "k=", BuildCanonicalString([][2]string{{"k", ""}}))
}

func TestBuildCanonicalStringKeepsCallerOrder(t *testing.T) {
	// Giao thức quy định thứ tự, codec không được sort lại
	a := BuildCanonicalString([][2]string{{"b", "2"}, {"a", "1"}})
	assert.Equal(t, "b=2&a=1", a)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	canonical := "partnerCode=MOMO&accessKey=abc&amount=169900"
	secret := "s3cret"

	sig := SignHMAC(canonical, secret)
	require.Len(t, sig, 64) // hex của SHA256
	assert.True(t, VerifyHMAC(canonical, secret, sig))
}

func TestVerifyFlipsOnAnyMutation(t *testing.T) {
	canonical := "partnerCode=MOMO&amount=169900"
	secret := "s3cret"
	sig := SignHMAC(canonical, secret)

	// Đổi một ký tự của canonical
	assert.False(t, VerifyHMAC("partnerCode=MOMO&amount=169901", secret, sig))
	// Đổi một ký tự của secret
	assert.False(t, VerifyHMAC(canonical, "s3creT", sig))
	// Đổi một ký tự của chữ ký
	mutated := []byte(sig)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	assert.False(t, VerifyHMAC(canonical, secret, string(mutated)))
}

func TestVerifyTamperedAmountWithOriginalSignature(t *testing.T) {
	// Chữ ký hợp lệ cho amount gốc không thể dùng lại sau khi sửa amount
	secret := "s3cret"
	original := "partnerCode=MOMO&amount=169900&errorCode=0"
	tampered := "partnerCode=MOMO&amount=1&errorCode=0"

	sig := SignHMAC(original, secret)
	assert.True(t, VerifyHMAC(original, secret, sig))
	assert.False(t, VerifyHMAC(tampered, secret, sig))
}

func TestVerifyNeverPanicsOnGarbage(t *testing.T) {
	assert.False(t, VerifyHMAC("x=1", "secret", ""))
	assert.False(t, VerifyHMAC("x=1", "secret", "không phải hex"))
	assert.False(t, VerifyHMAC("x=1", "secret", "zz"))
	assert.False(t, VerifyHMAC("", "", "00"))
	// Chữ ký hex hợp lệ nhưng sai độ dài
	assert.False(t, VerifyHMAC("x=1", "secret", "deadbeef"))
	// Hex viết hoa vẫn chấp nhận được
	canonical := "x=1"
	sig := SignHMAC(canonical, "secret")
	upper := []byte(sig)
	for i, ch := range upper {
		if ch >= 'a' && ch <= 'f' {
			upper[i] = ch - 32
		}
	}
	assert.True(t, VerifyHMAC(canonical, "secret", string(upper)))
}
