package main

import (
	"log"

	"marketplace_manager/config"
	"marketplace_manager/database"
	"marketplace_manager/handler"
	"marketplace_manager/helper"
	"marketplace_manager/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New(fiber.Config{})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173/",
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()

	gatewayCfg := config.MustLoadGateways()
	rdb := handler.InitRedis()
	handler.InitPayments(gatewayCfg, rdb)

	helper.StartPaymentScheduler(gatewayCfg.MoMo.PendingTTL)
	helper.StartReconcileSummaryScheduler()
	defer helper.StopPaymentSchedulers()

	router.SetupRoutes(app)
	log.Fatal(app.Listen(":8002"))
}
