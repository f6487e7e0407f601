package services

import "time"

// Certificate lifecycle statuses, in precedence order: an expired certificate
// is never reported as expiring soon, and an expiring one never as plain
// active.
const (
	StatusActive       = "active"
	StatusExpiringSoon = "expiring_soon"
	StatusExpired      = "expired"
	StatusInactive     = "inactive"
	StatusInvalid      = "invalid"
)

const (
	// ValidityDays is how long an automatic certificate stays valid after
	// approval.
	ValidityDays = 365

	// ExpiryWindowDays is the look-ahead for the expiring_soon warning.
	ExpiryWindowDays = 30
)

// Certificate is anything with a lifecycle: automatic certificates (passed
// quiz sittings) and manually registered ones both implement it.
type Certificate interface {
	// ApprovalDate is the canonical approval instant; nil when never approved.
	ApprovalDate() *time.Time
	// ExpirationDate is when the certificate stops being valid; nil when it
	// cannot be determined.
	ExpirationDate() *time.Time
	// ActiveFlag is the manual deactivation switch; always true for
	// automatic certificates.
	ActiveFlag() bool
}

// CertificateStatus is the classified lifecycle state of one certificate.
type CertificateStatus struct {
	Status          string     `json:"status"`
	IsActive        bool       `json:"is_active"`
	IsExpired       bool       `json:"is_expired"`
	IsExpiringSoon  bool       `json:"is_expiring_soon"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
	DaysUntilExpiry *int       `json:"days_until_expiry"`
}

// ClassifyCertificate derives the lifecycle status of a certificate as of the
// given day. Dates are compared at day granularity: a certificate expiring
// today is still expiring_soon, not expired. Pure, no I/O.
func ClassifyCertificate(cert Certificate, today time.Time) CertificateStatus {
	status := CertificateStatus{ApprovedAt: cert.ApprovalDate()}

	exp := cert.ExpirationDate()
	if exp == nil {
		// never approved / no determinable expiration
		status.Status = StatusInvalid
		status.IsExpired = true
		return status
	}
	status.ExpiresAt = exp

	day := truncateToDay(today)
	expDay := truncateToDay(*exp)

	days := int(expDay.Sub(day).Hours() / 24)
	status.DaysUntilExpiry = &days

	switch {
	case expDay.Before(day):
		status.Status = StatusExpired
		status.IsExpired = true
	case !cert.ActiveFlag():
		status.Status = StatusInactive
	case days <= ExpiryWindowDays:
		status.Status = StatusExpiringSoon
		status.IsActive = true
		status.IsExpiringSoon = true
	default:
		status.Status = StatusActive
		status.IsActive = true
	}
	return status
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
