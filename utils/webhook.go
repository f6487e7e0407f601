package utils

import (
	"log"
	"time"

	"lms/config"

	"github.com/go-resty/resty/v2"
)

// NotifyCertificateIssued pushes an issuance event to the configured external
// endpoint. Best effort: failures are logged, issuance never depends on it.
func NotifyCertificateIssued(fullCode string, userID, courseID uint) {
	url := config.AppConfig.CertWebhookURL
	if url == "" {
		return
	}

	client := resty.New().SetTimeout(10 * time.Second)
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"event":     "certificate.issued",
			"full_code": fullCode,
			"user_id":   userID,
			"course_id": courseID,
			"issued_at": time.Now().Format(time.RFC3339),
		}).
		Post(url)
	if err != nil {
		log.Printf("Error calling certificate webhook: %v", err)
		return
	}
	if resp.IsError() {
		log.Printf("Certificate webhook returned %d: %s", resp.StatusCode(), resp.String())
	}
}
