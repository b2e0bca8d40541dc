package handler

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"marketplace_manager/config"
	"marketplace_manager/constants"
	"marketplace_manager/database"
	"marketplace_manager/helper"
	"marketplace_manager/model"
	"marketplace_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"github.com/redis/go-redis/v9"
)

var (
	gatewayCfg *config.GatewayConfig
	momo       *MoMo
	paypal     *PayPal
	reconciler *helper.Reconciler
)

// paymentMailer nối reconciler với utils.SendPaymentConfirmationEmail
type paymentMailer struct{}

func (paymentMailer) SendPaymentConfirmation(order model.Order, payment model.Payment) {
	transId := ""
	if payment.TransactionId != nil {
		transId = *payment.TransactionId
	}
	paidAt := ""
	if payment.PaidAt != nil {
		paidAt = payment.PaidAt.Format("02/01/2006 15:04")
	}
	utils.SendPaymentConfirmationEmail(order.Email, utils.PaymentConfirmationData{
		OrderCode:     order.PublicCode,
		CustomerName:  order.CustomerName,
		TotalAmount:   payment.Amount,
		PaymentMethod: payment.Method,
		TransactionId: transId,
		PaidAt:        paidAt,
		DetailLink:    fmt.Sprintf("%s/don-hang/%s", gatewayCfg.AppURL, order.PublicCode),
	})
}

// InitPayments khởi tạo adapter cổng thanh toán và reconciler, gọi từ main
func InitPayments(cfg *config.GatewayConfig, rdb *redis.Client) {
	gatewayCfg = cfg
	momo = NewMoMo(cfg.MoMo)
	paypal = NewPayPal(cfg.PayPal, rdb)
	reconciler = &helper.Reconciler{
		Payments: database.GormPaymentStore{},
		Orders:   database.GormOrderStore{},
		History:  database.GormHistoryStore{},
		Secret:   cfg.MoMo.SecretKey,
		Events:   &redisStatusPublisher{Client: rdb},
		Mailer:   paymentMailer{},
	}
}

// loadPayableOrder đơn phải tồn tại, còn PENDING và chưa có thanh toán chốt
func loadPayableOrder(orderId uint) (*model.Order, *model.Payment, error) {
	order, err := reconciler.Orders.FindById(orderId)
	if err != nil {
		return nil, nil, err
	}
	if order == nil || order.Status != constants.ORDER_PENDING {
		return nil, nil, fmt.Errorf("đơn hàng không hợp lệ hoặc không ở trạng thái chờ thanh toán")
	}
	payment, err := reconciler.Payments.FindByOrderId(orderId)
	if err != nil {
		return nil, nil, err
	}
	if payment != nil && payment.Status == constants.PAYMENT_COMPLETED {
		return nil, nil, fmt.Errorf("đơn hàng đã được thanh toán")
	}
	return order, payment, nil
}

// upsertPayment ghi bản ghi thanh toán cho đơn (1 đơn - 1 thanh toán).
// Số tiền chốt một lần tại đây = tổng đơn + phí ship; reconciler sẽ đối
// chiếu đúng con số này với bản tin xác nhận.
func upsertPayment(existing *model.Payment, order *model.Order, method string, transId *string) (*model.Payment, error) {
	payment := existing
	if payment == nil {
		payment = &model.Payment{OrderId: order.ID}
	}
	payment.Amount = order.GrandTotal()
	payment.Method = method
	payment.Status = constants.PAYMENT_PENDING
	payment.TransactionId = transId
	if err := reconciler.Payments.Save(payment); err != nil {
		return nil, err
	}
	utils.PaymentsCreatedTotal.WithLabelValues(method).Inc()
	return payment, nil
}

// ProcessPayment POST /payments/process: chọn phương thức rồi khởi tạo
func ProcessPayment(c *fiber.Ctx) error {
	input := c.Locals("input").(model.ProcessPaymentInput)

	order, existing, err := loadPayableOrder(input.OrderId)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	switch input.Method {
	case constants.METHOD_COD:
		payment, err := upsertPayment(existing, order, constants.METHOD_COD, nil)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		claim := helper.GetActingUser(c)
		reconciler.History.Append(&model.OrderStatusHistory{
			OrderId:   order.ID,
			Status:    order.Status,
			Note:      "Chọn thanh toán khi nhận hàng (COD)",
			CreatedBy: claim,
		})
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
			"paymentId": payment.ID,
			"status":    payment.Status,
		})

	case constants.METHOD_WALLET:
		result, err := momo.CreatePayment(c.UserContext(), order)
		if err != nil {
			if ge, ok := err.(*model.GatewayError); ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ge.Message, "error": ge})
			}
			return utils.ErrorResponse(c, fiber.StatusBadGateway, "Không khởi tạo được thanh toán ví", err)
		}
		payment, err := upsertPayment(existing, order, constants.METHOD_WALLET, nil)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
			"paymentId":   payment.ID,
			"status":      payment.Status,
			"redirectUrl": result.PayUrl,
		})

	case constants.METHOD_PAYPAL:
		successUrl := input.SuccessUrl
		if successUrl == "" {
			successUrl = gatewayCfg.AppURL + "/payment-result"
		}
		cancelUrl := input.CancelUrl
		if cancelUrl == "" {
			cancelUrl = gatewayCfg.AppURL + "/payment-cancelled"
		}
		gatewayOrderId := helper.EncodeOrderID(order.ID, strconv.FormatInt(time.Now().UnixMilli(), 10))
		result, err := paypal.CreateApproval(c.UserContext(), order, gatewayOrderId, successUrl, cancelUrl)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadGateway, "Không khởi tạo được thanh toán PayPal", err)
		}
		// PaymentId của cổng làm mã tương quan cho bước execute
		payment, err := upsertPayment(existing, order, constants.METHOD_PAYPAL, &result.PaymentId)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
			"paymentId":   payment.ID,
			"status":      payment.Status,
			"redirectUrl": result.ApprovalUrl,
		})
	}

	return utils.ErrorResponse(c, fiber.StatusBadRequest, "Phương thức thanh toán không được hỗ trợ", nil)
}

// CreateWalletPayment POST /payments/wallet/create: ví chọn sẵn, kèm QR
func CreateWalletPayment(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateWalletPaymentInput)

	order, existing, err := loadPayableOrder(input.OrderId)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	result, err := momo.CreatePayment(c.UserContext(), order)
	if err != nil {
		if ge, ok := err.(*model.GatewayError); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ge.Message, "error": ge})
		}
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Không khởi tạo được thanh toán ví", err)
	}

	payment, err := upsertPayment(existing, order, constants.METHOD_WALLET, nil)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	qrBase64 := ""
	if qrBytes, err := utils.GenerateQRCode(result.PayUrl, 400); err != nil {
		log.Printf("Lỗi tạo QR cho đơn hàng %s: %v", order.PublicCode, err)
	} else {
		qrBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"paymentId":   payment.ID,
		"status":      payment.Status,
		"redirectUrl": result.PayUrl,
		"qrCode":      qrBase64,
	})
}

// WalletReturn GET /payments/wallet/return: kênh redirect trình duyệt.
// Luôn trả về một redirect sang UI kèm thông điệp, không bao giờ là trang lỗi API.
func WalletReturn(c *fiber.Ctx) error {
	var conf model.MoMoConfirmation
	if err := c.QueryParser(&conf); err != nil {
		return redirectResult(c, helper.ReconcileResult{
			Outcome: helper.OutcomeRejected, Message: "Tham số xác nhận không hợp lệ",
		})
	}

	result := reconciler.Confirm(&conf, constants.CHANNEL_RETURN)
	return redirectResult(c, result)
}

func redirectResult(c *fiber.Ctx, result helper.ReconcileResult) error {
	status := "failed"
	switch result.Outcome {
	case helper.OutcomeCompleted:
		status = "success"
	case helper.OutcomeAlreadyDone:
		// Đã xử lý trước đó nhưng terminal có thể là FAILED (job quét
		// đã chuyển): chỉ báo thành công khi thật sự COMPLETED
		if result.Status == constants.PAYMENT_COMPLETED {
			status = "success"
		}
	}
	q := url.Values{}
	q.Set("status", status)
	if result.OrderId > 0 {
		q.Set("orderNumber", strconv.FormatUint(uint64(result.OrderId), 10))
	}
	if result.TransactionId != "" {
		q.Set("transactionId", result.TransactionId)
	}
	q.Set("message", result.Message)
	return c.Redirect(gatewayCfg.AppURL + "/payment-result?" + q.Encode())
}

// WalletNotify POST /payments/wallet/notify: kênh IPN server-to-server,
// kênh có thẩm quyền (trình duyệt có thể bị đóng giữa chừng).
func WalletNotify(c *fiber.Ctx) error {
	var conf model.MoMoConfirmation
	if err := c.BodyParser(&conf); err != nil {
		// Từ chối dứt khoát: trả 200 kèm body lỗi để provider khỏi retry vô ích
		return c.JSON(fiber.Map{"status": "failed", "message": "Không đọc được bản tin IPN", "paymentUpdated": false})
	}

	result := reconciler.Confirm(&conf, constants.CHANNEL_IPN)

	switch result.Outcome {
	case helper.OutcomeError:
		// Lỗi tạm thời phía mình: trả non-2xx để provider retry
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": result.Message, "paymentUpdated": false,
		})
	case helper.OutcomeCompleted:
		return c.JSON(fiber.Map{"status": "success", "message": result.Message, "paymentUpdated": true})
	case helper.OutcomeAlreadyDone:
		status := "failed"
		if result.Status == constants.PAYMENT_COMPLETED {
			status = "success"
		}
		return c.JSON(fiber.Map{"status": status, "message": result.Message, "paymentUpdated": false})
	default:
		// Declined hoặc từ chối an ninh: kết luận cuối cùng, 200 để dừng retry
		return c.JSON(fiber.Map{"status": "failed", "message": result.Message, "paymentUpdated": false})
	}
}

// ExecuteApproval POST /payments/approval/execute: capture sau khi người dùng duyệt
func ExecuteApproval(c *fiber.Ctx) error {
	input := c.Locals("input").(model.ExecuteApprovalInput)

	payment, err := reconciler.Payments.FindByTransactionId(input.PaymentToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if payment == nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Không tìm thấy thanh toán cho token này", nil)
	}
	if payment.IsTerminal() {
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
			"outcome": helper.OutcomeAlreadyDone,
			"status":  payment.Status,
		})
	}

	resp, err := paypal.Execute(c.UserContext(), input.PaymentToken, input.PayerToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Capture thanh toán thất bại", err)
	}

	if resp.State != "approved" {
		reconciler.Payments.UpdateStatusIfNotTerminal(payment.OrderId, constants.PAYMENT_FAILED, map[string]interface{}{})
		reconciler.History.Append(&model.OrderStatusHistory{
			OrderId: payment.OrderId,
			Status:  constants.ORDER_PENDING,
			Note:    "Capture PayPal thất bại, state=" + resp.State,
		})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"outcome": "FAILED",
			"message": "Giao dịch không được cổng thanh toán chấp nhận",
		})
	}

	// Đối chiếu số tiền trên wire với số đã chốt lúc tạo thanh toán
	if len(resp.Transactions) == 0 || resp.Transactions[0].Amount.Total != paypal.FormatUSD(payment.Amount) {
		log.Printf("⚠️ LỆCH SỐ TIỀN capture PayPal orderId=%d token=%s", payment.OrderId, input.PaymentToken)
		utils.PaymentsRejectedTotal.WithLabelValues(constants.CHANNEL_EXECUTE, "amount_mismatch").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"outcome": helper.OutcomeRejected,
			"message": "Số tiền capture không khớp",
		})
	}

	transId := resp.ID
	extra := map[string]interface{}{}
	if payerId := resp.Payer.PayerInfo.PayerId; payerId != "" {
		extra["payer_id"] = payerId
	}
	for _, rr := range resp.Transactions[0].RelatedResources {
		if rr.Sale != nil && rr.Sale.ID != "" {
			transId = rr.Sale.ID
			extra["capture_id"] = rr.Sale.ID
			break
		}
	}

	result := reconciler.Complete(payment.OrderId, transId, payment.Amount, constants.CHANNEL_EXECUTE, extra)
	if result.Outcome == helper.OutcomeError {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, result.Message, nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, result)
}

// GetPaymentByOrder GET /payments/order/:orderId
func GetPaymentByOrder(c *fiber.Ctx) error {
	orderId, err := strconv.ParseUint(c.Params("orderId"), 10, 32)
	if err != nil || orderId == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Mã đơn hàng không hợp lệ", err)
	}

	payment, err := reconciler.Payments.FindByOrderId(uint(orderId))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if payment == nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Đơn hàng chưa có thanh toán", nil)
	}

	var info model.PaymentInfo
	copier.Copy(&info, payment)
	return utils.SuccessResponse(c, fiber.StatusOK, info)
}
