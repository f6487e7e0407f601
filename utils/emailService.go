package utils

import (
	"fmt"
	"log"

	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends an HTML email through SendGrid.
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig.SendgridKey == "" {
		log.Printf("SendGrid key not configured, skipping email to %s", toEmail)
		return nil
	}

	from := mail.NewEmail("LMS Certificates", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendgridKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("SendGrid rejected email to %s: %d %s", toEmail, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

func getEmailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1A2B4C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; }
			.content { padding: 40px 30px; color: #1A2B4C; line-height: 1.6; }
			.code-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #d7b56d; margin: 20px 0; font-size: 20px; font-weight: bold; text-align: center; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">%s</div>
			<div class="footer">This is an automated message, please do not reply.</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}

// SendCertificateEmail notifies a user that their certificate was issued.
func SendCertificateEmail(toEmail, toName, courseTitle, fullCode string) {
	body := fmt.Sprintf(`
		<h2>Congratulations, %s!</h2>
		<p>You passed the exam for <strong>%s</strong> and your certificate has been issued.</p>
		<div class="code-box">%s</div>
		<p>Anyone can verify this certificate on the platform using the code above.</p>`,
		toName, courseTitle, fullCode)

	if err := SendEmail(toEmail, toName, "Your certificate is ready", getEmailTemplate("Certificate Issued", body)); err != nil {
		log.Printf("Error sending certificate email to %s: %v", toEmail, err)
	}
}

// SendExpiryReminder warns a user that a certificate enters its last month of
// validity.
func SendExpiryReminder(toEmail, toName, courseTitle, expiresOn string) {
	body := fmt.Sprintf(`
		<h2>Hello, %s</h2>
		<p>Your certificate for <strong>%s</strong> expires on <strong>%s</strong>.</p>
		<p>Retake the course exam before that date to renew it.</p>`,
		toName, courseTitle, expiresOn)

	if err := SendEmail(toEmail, toName, "Your certificate expires soon", getEmailTemplate("Certificate Expiring Soon", body)); err != nil {
		log.Printf("Error sending expiry reminder to %s: %v", toEmail, err)
	}
}
