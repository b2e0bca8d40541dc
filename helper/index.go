package helper

import (
	"marketplace_manager/constants"
	"marketplace_manager/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// GetClaimFromToken đọc claim từ token đã parse ở middleware
func GetClaimFromToken(c *fiber.Ctx) (model.TokenClaim, bool) {
	u := c.Locals("user")
	if u == nil {
		return model.TokenClaim{}, false
	}

	userToken, ok := u.(*jwt.Token)
	if !ok || userToken == nil {
		return model.TokenClaim{}, false
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		return model.TokenClaim{}, false
	}

	userIdFloat, _ := claims["userId"].(float64)
	if userIdFloat == 0 {
		return model.TokenClaim{}, false
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	return model.TokenClaim{
		UserId:   uint(userIdFloat),
		Username: username,
		Role:     role,
	}, true
}

// GetActingUser id người thao tác cho sổ lịch sử; nil nếu là hệ thống/khách
func GetActingUser(c *fiber.Ctx) *uint {
	claim, ok := GetClaimFromToken(c)
	if !ok {
		return nil
	}
	id := claim.UserId
	return &id
}

// IsStaff quyền nhân viên trở lên
func IsStaff(c *fiber.Ctx) bool {
	claim, ok := GetClaimFromToken(c)
	if !ok {
		return false
	}
	return claim.Role == constants.ROLE_ADMIN || claim.Role == constants.ROLE_STAFF
}
