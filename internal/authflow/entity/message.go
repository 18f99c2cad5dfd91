package entity

// User-facing messages shown by the flows.
const (
	MsgBootstrapFailed   = "Connection failed. Please restart enrollment."
	MsgConfirmRejected   = "Invalid verification code."
	MsgVerifyRejected    = "Authentication failed. Verify token."
	MsgTransportFailed   = "Verification failed"
	MsgCodeIncomplete    = "Please enter the 6-digit verification code."
	MsgEnrollmentSuccess = "Two-factor authentication is now enabled."
	MsgVerifySuccess     = "Identity verified."
)
