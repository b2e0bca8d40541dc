package handler

import (
	"encoding/base64"
	"errors"
	"log"
	"time"

	"marketplace_manager/constants"
	"marketplace_manager/database"
	"marketplace_manager/helper"
	"marketplace_manager/model"
	"marketplace_manager/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetOrderDetail GET /orders/:orderCode: đơn + thanh toán + sổ lịch sử
func GetOrderDetail(c *fiber.Ctx) error {
	orderCode := c.Params("orderCode")

	var order model.Order
	if err := database.DB.Where("public_code = ?", orderCode).First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Không tìm thấy đơn hàng", err)
	}

	var payment model.Payment
	var paymentInfo *model.Payment
	if err := database.DB.Where("order_id = ?", order.ID).First(&payment).Error; err == nil {
		paymentInfo = &payment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	// Sổ lịch sử là nguồn sự thật "ai đổi gì, khi nào"; Order.Status chỉ là cache
	var history []model.OrderStatusHistory
	if err := database.DB.Where("order_id = ?", order.ID).
		Order("created_at asc").Find(&history).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Lỗi tải lịch sử đơn hàng", err)
	}

	qrBase64 := ""
	if qrBytes, err := utils.GenerateQRCode(order.PublicCode, 400); err != nil {
		log.Printf("Lỗi tạo QR cho đơn hàng %s: %v", order.PublicCode, err)
	} else {
		qrBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"order":   order,
		"payment": paymentInfo,
		"history": history,
		"qrCode":  qrBase64,
	})
}

// UpdateOrderStatus PATCH /orders/:orderId/status: nhân viên đổi trạng thái
// thủ công; mọi thay đổi đều ghi một dòng sổ kèm người thao tác.
func UpdateOrderStatus(c *fiber.Ctx) error {
	orderId := c.Locals("orderId").(uint)
	input := c.Locals("input").(model.UpdateOrderStatusInput)

	var order model.Order
	if err := database.DB.First(&order, orderId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Không tìm thấy đơn hàng", err)
	}

	// PAID chỉ được set qua reconciler, nhân viên không set tay để khỏi
	// lệch với bản ghi thanh toán
	if input.Status == constants.ORDER_PAID {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Trạng thái PAID do hệ thống đối soát quyết định", nil)
	}

	actingUser := helper.GetActingUser(c)

	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).
			Update("status", input.Status).Error; err != nil {
			return err
		}
		return tx.Create(&model.OrderStatusHistory{
			OrderId:   order.ID,
			Status:    input.Status,
			Note:      input.Note,
			CreatedBy: actingUser,
		}).Error
	}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Lỗi cập nhật trạng thái đơn hàng", err)
	}

	// Giao hàng thành công nghĩa là tiền COD đã thu: chốt luôn bản ghi thanh toán
	if input.Status == constants.ORDER_DELIVERED {
		if err := settleCODPayment(order.ID, actingUser); err != nil {
			log.Printf("Lỗi chốt thanh toán COD orderId=%d: %v", order.ID, err)
		}
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"orderId": order.ID,
		"status":  input.Status,
	})
}

// settleCODPayment chuyển thanh toán COD sang COMPLETED khi nhân viên xác
// nhận đã giao hàng; vẫn đi qua UPDATE có điều kiện và ghi sổ kèm người
// thao tác. Đơn thanh toán qua cổng không bị đụng tới.
func settleCODPayment(orderId uint, actingUser *uint) error {
	payment, err := reconciler.Payments.FindByOrderId(orderId)
	if err != nil {
		return err
	}
	if payment == nil || payment.Method != constants.METHOD_COD || payment.IsTerminal() {
		return nil
	}

	now := time.Now()
	updated, err := reconciler.Payments.UpdateStatusIfNotTerminal(orderId, constants.PAYMENT_COMPLETED, map[string]interface{}{
		"paid_at": now,
	})
	if err != nil || !updated {
		return err
	}

	reconciler.History.Append(&model.OrderStatusHistory{
		OrderId:   orderId,
		Status:    constants.ORDER_DELIVERED,
		Note:      "Đã thu tiền COD khi giao hàng, thanh toán chuyển COMPLETED",
		CreatedBy: actingUser,
	})
	utils.PaymentsConfirmedTotal.WithLabelValues(constants.METHOD_COD, constants.CHANNEL_DELIVERY).Inc()
	return nil
}
