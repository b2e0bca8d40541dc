package utils

import (
	"bytes"
	"html/template"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// PaymentConfirmationData dữ liệu cho template email
type PaymentConfirmationData struct {
	OrderCode     string
	CustomerName  string
	TotalAmount   int64
	PaymentMethod string
	TransactionId string
	PaidAt        string
	DetailLink    string
}

// SendPaymentConfirmationEmail gửi email xác nhận thanh toán (async)
func SendPaymentConfirmationEmail(to string, data PaymentConfirmationData) {
	go func() { // Async để không delay response
		tmplPath := "templates/payment_confirmation.html"
		tmpl, err := template.ParseFiles(tmplPath)
		if err != nil {
			log.Printf("Lỗi load template email: %v", err)
			return
		}

		var body bytes.Buffer
		if err := tmpl.Execute(&body, data); err != nil {
			log.Printf("Lỗi render template email: %v", err)
			return
		}

		host := os.Getenv("SMTP_HOST")
		portStr := os.Getenv("SMTP_PORT")
		username := os.Getenv("SMTP_USERNAME")
		password := os.Getenv("SMTP_PASSWORD")
		from := os.Getenv("SMTP_FROM")

		port, _ := strconv.Atoi(portStr)

		m := gomail.NewMessage()
		m.SetHeader("From", from)
		m.SetHeader("To", to)
		m.SetHeader("Subject", "Xác nhận thanh toán đơn hàng #"+data.OrderCode)
		m.SetBody("text/html", body.String())

		d := gomail.NewDialer(host, port, username, password)
		if err := d.DialAndSend(m); err != nil {
			log.Printf("Lỗi gửi email: %v", err)
		}
	}()
}
