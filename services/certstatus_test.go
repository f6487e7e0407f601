package services

import (
	"testing"
	"time"

	quizModels "lms/models/quiz"

	"github.com/stretchr/testify/assert"
)

func sittingApprovedAt(approved time.Time) *quizModels.Sitting {
	return &quizModels.Sitting{ApprovedAt: &approved}
}

func TestClassifyAutomaticCertificate(t *testing.T) {
	today := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		approved time.Time
		want     string
	}{
		{"freshly approved", today.AddDate(0, 0, -1), StatusActive},
		{"expires in 31 days", today.AddDate(0, 0, -(ValidityDays - 31)), StatusActive},
		{"expires in 30 days", today.AddDate(0, 0, -(ValidityDays - 30)), StatusExpiringSoon},
		{"expires today", today.AddDate(0, 0, -ValidityDays), StatusExpiringSoon},
		{"expired yesterday", today.AddDate(0, 0, -(ValidityDays + 1)), StatusExpired},
		{"long expired", today.AddDate(0, 0, -(ValidityDays + 200)), StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := ClassifyCertificate(sittingApprovedAt(tt.approved), today)
			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, tt.want == StatusExpired, status.IsExpired)
			assert.Equal(t, tt.want == StatusActive || tt.want == StatusExpiringSoon, status.IsActive)
			assert.Equal(t, tt.want == StatusExpiringSoon, status.IsExpiringSoon)
		})
	}
}

func TestClassifyNeverApprovedIsInvalid(t *testing.T) {
	status := ClassifyCertificate(&quizModels.Sitting{}, time.Now())
	assert.Equal(t, StatusInvalid, status.Status)
	assert.Nil(t, status.ExpiresAt)
	assert.Nil(t, status.DaysUntilExpiry)
}

func TestClassifyManualCertificate(t *testing.T) {
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	expires := today.AddDate(0, 0, 90)
	active := &quizModels.ManualCertificate{
		ApprovedAt: today.AddDate(0, -6, 0),
		ExpiresAt:  &expires,
		Active:     true,
	}
	assert.Equal(t, StatusActive, ClassifyCertificate(active, today).Status)

	deactivated := &quizModels.ManualCertificate{
		ApprovedAt: active.ApprovedAt,
		ExpiresAt:  &expires,
		Active:     false,
	}
	assert.Equal(t, StatusInactive, ClassifyCertificate(deactivated, today).Status)

	// expiry beats the deactivation switch
	pastExpiry := today.AddDate(0, 0, -1)
	expired := &quizModels.ManualCertificate{
		ApprovedAt: today.AddDate(-2, 0, 0),
		ExpiresAt:  &pastExpiry,
		Active:     false,
	}
	assert.Equal(t, StatusExpired, ClassifyCertificate(expired, today).Status)

	noExpiry := &quizModels.ManualCertificate{ApprovedAt: today, Active: true}
	assert.Equal(t, StatusInvalid, ClassifyCertificate(noExpiry, today).Status)
}

func TestClassifyDaysUntilExpiry(t *testing.T) {
	today := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)

	approved := today.AddDate(0, 0, -(ValidityDays - 10))
	status := ClassifyCertificate(sittingApprovedAt(approved), today)
	if assert.NotNil(t, status.DaysUntilExpiry) {
		assert.Equal(t, 10, *status.DaysUntilExpiry)
	}

	// day granularity: an expiring-today certificate is not expired yet
	status = ClassifyCertificate(sittingApprovedAt(today.AddDate(0, 0, -ValidityDays)), today)
	if assert.NotNil(t, status.DaysUntilExpiry) {
		assert.Equal(t, 0, *status.DaysUntilExpiry)
	}
	assert.Equal(t, StatusExpiringSoon, status.Status)
}
