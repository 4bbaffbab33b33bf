package utils

import (
	"bytes"
	"html/template"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// BookingConfirmationData dữ liệu cho template email
type BookingConfirmationData struct {
	OrderCode     string
	BranchName    string
	Services      string
	BookingTime   string
	TotalAmount   float64
	PaymentMethod string
	DetailLink    string
	CancelLink    string
}

// SendBookingConfirmationEmail gửi email xác nhận lịch hẹn (async)
func SendBookingConfirmationEmail(to string, data BookingConfirmationData) {
	go func() { // Async để không delay response
		tmplPath := "templates/booking_confirmation.html"
		tmpl, err := template.ParseFiles(tmplPath)
		if err != nil {
			Logger.Errorf("Lỗi load template email: %v", err)
			return
		}

		var body bytes.Buffer
		if err := tmpl.Execute(&body, data); err != nil {
			Logger.Errorf("Lỗi render template email: %v", err)
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
		m.SetHeader("Subject", "Xác nhận lịch hẹn #"+data.OrderCode)
		m.SetBody("text/html", body.String())

		d := gomail.NewDialer(host, port, username, password)
		if err := d.DialAndSend(m); err != nil {
			Logger.Errorf("Lỗi gửi email: %v", err)
		}
	}()
}
