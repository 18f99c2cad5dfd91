package event

const (
	MFAEnrolledDestination  string = "mfa_enrolled"
	MFAConfirmedDestination string = "mfa_confirmed"
	MFAVerifiedDestination  string = "mfa_verified"
)

// MFAMessage is the body of every MFA lifecycle event.
type MFAMessage struct {
	EnrollmentID int64  `json:"enrollment_id"`
	UserID       string `json:"user_id"`
	OccurredAt   int64  `json:"occurred_at"`
}
