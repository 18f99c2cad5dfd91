package mfa

// Purpose identifies the MFA encryption purpose.
type Purpose string

// PurposeOTPSeed scopes encryption to TOTP seeds.
const PurposeOTPSeed Purpose = "otp_seed"

// Scope binds encryption to MFA-specific identifiers.
// This is used as AAD (Additional Authenticated Data) in AES-GCM.
type Scope struct {
	// Subject is the opaque identity the secret belongs to.
	Subject string
	// Purpose is the encryption purpose.
	Purpose Purpose
}
