package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"time"

	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends an HTML email via SendGrid when an API key is configured,
// otherwise falls back to plain SMTP
func SendEmail(to []string, subject string, htmlBody string) error {
	if config.AppConfig.SendgridApiKey != "" {
		return sendViaSendgrid(to, subject, htmlBody)
	}
	return sendViaSMTP(to, subject, htmlBody)
}

func sendViaSendgrid(to []string, subject string, htmlBody string) error {
	from := mail.NewEmail("LMS", config.AppConfig.EmailSender)
	for _, rcpt := range to {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail("", rcpt), "", htmlBody)
		client := sendgrid.NewSendClient(config.AppConfig.SendgridApiKey)
		resp, err := client.Send(message)
		if err != nil {
			log.Printf("Error sending email to %s: %v", rcpt, err)
			return err
		}
		if resp.StatusCode >= 400 {
			log.Printf("Failed to send email to %s, response code: %d", rcpt, resp.StatusCode)
			return fmt.Errorf("failed to send email, code: %d", resp.StatusCode)
		}
	}
	return nil
}

func sendViaSMTP(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	headers := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte("Subject: " + subject + "\n" + headers + htmlBody)

	auth := smtp.PlainAuth("", from, password, smtpHost)
	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, msg); err != nil {
		log.Printf("Error sending email: %v", err)
		return err
	}
	return nil
}

// SendEnrollmentWelcomeEmail notifies a student that their purchase landed
func SendEnrollmentWelcomeEmail(email, name, courseName string) {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2>Welcome aboard, %s!</h2>
					<p>Your enrollment in <strong>%s</strong> is active. All lessons are unlocked, learn at your own pace.</p>
					<p>Once every lesson is completed you can take the final exam. You have two included attempts.</p>
				</div>
			</body>
		</html>`, name, courseName)

	if err := SendEmail([]string{email}, "Your enrollment is confirmed", body); err != nil {
		log.Printf("Error sending enrollment email to %s: %v", email, err)
	}
}

// SendCertificateIssuedEmail congratulates a student on passing the exam
func SendCertificateIssuedEmail(email, name, courseName, verificationID string, issuedAt time.Time) {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2>Congratulations, %s!</h2>
					<p>You passed the final exam for <strong>%s</strong> and your certificate has been issued.</p>
					<p>Verification ID: <strong>%s</strong><br/>Issued: %s</p>
					<p>Anyone can verify this certificate with the ID above.</p>
				</div>
			</body>
		</html>`, name, courseName, verificationID, issuedAt.Format("02 Jan 2006"))

	if err := SendEmail([]string{email}, "Your certificate is ready", body); err != nil {
		log.Printf("Error sending certificate email to %s: %v", email, err)
	}
}

// SendExpiryReminderEmail warns about enrollments expiring soon
func SendExpiryReminderEmail(email, name, courseName string, expiresAt time.Time) {
	days := int(time.Until(expiresAt).Hours() / 24)
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; padding: 20px;">
				<p>Hi %s,</p>
				<p>Your access to <strong>%s</strong> expires on %s (%d day(s) left).</p>
			</body>
		</html>`, name, courseName, expiresAt.Format("02 Jan 2006"), days)

	if err := SendEmail([]string{email}, "Your course access expires soon", body); err != nil {
		log.Printf("Error sending expiry reminder to %s: %v", email, err)
	}
}
