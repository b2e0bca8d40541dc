package validate

import (
	"fmt"
	"strconv"

	"marketplace_manager/model"

	"github.com/gofiber/fiber/v2"
)

func UpdateOrderStatus(paramName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params(paramName), 10, 32)
		if err != nil || id == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Mã đơn hàng không hợp lệ",
			})
		}

		var input model.UpdateOrderStatusInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Không thể phân tích yêu cầu: %s", err.Error()),
			})
		}

		if err := validate.Struct(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("orderId", uint(id))
		c.Locals("input", input)
		return c.Next()
	}
}
