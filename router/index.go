package router

import (
	"marketplace_manager/handler"
	"marketplace_manager/middleware"
	"marketplace_manager/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	// Thanh toán
	payments := v1.Group("/payments")
	payments.Post("/process", middleware.OptionalJWT(), validate.ProcessPayment(), handler.ProcessPayment)
	payments.Post("/wallet/create", middleware.OptionalJWT(), validate.CreateWalletPayment(), handler.CreateWalletPayment)
	payments.Post("/approval/execute", validate.ExecuteApproval(), handler.ExecuteApproval)
	payments.Get("/order/:orderId", handler.GetPaymentByOrder)

	// Callback từ cổng thanh toán: ngoài nhóm /api, không qua auth
	app.Get("/payments/wallet/return", handler.WalletReturn)  // Redirect trình duyệt
	app.Post("/payments/wallet/notify", handler.WalletNotify) // Server-to-Server

	// Đơn hàng
	orders := v1.Group("/orders", logger.New())
	orders.Get("/:orderCode", middleware.OptionalJWT(), handler.GetOrderDetail)
	orders.Patch("/:orderId/status", middleware.Protected(), middleware.StaffOnly(), validate.UpdateOrderStatus("orderId"), handler.UpdateOrderStatus)

	// Theo dõi trạng thái thanh toán realtime
	v1.Get("/payments/ws/:orderId", websocket.New(handler.PaymentWebsocket))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
