package entity

// Event drives a flow state machine.
type Event int

const (
	// EventProvisioned: the provisioning artifact arrived.
	EventProvisioned Event = iota + 1
	// EventProvisionFailed: the provisioning request failed.
	EventProvisionFailed
	// EventSubmit: the user submitted a complete code.
	EventSubmit
	// EventAccepted: the identity service accepted the code.
	EventAccepted
	// EventRejected: the identity service rejected the code or was unreachable.
	EventRejected
	// EventRestart: the flow is restarted from scratch.
	EventRestart
)

func (e Event) String() string {
	switch e {
	case EventProvisioned:
		return "provisioned"
	case EventProvisionFailed:
		return "provision_failed"
	case EventSubmit:
		return "submit"
	case EventAccepted:
		return "accepted"
	case EventRejected:
		return "rejected"
	case EventRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// EnrollmentState is the state of the enrollment flow.
type EnrollmentState int

const (
	EnrollmentBootstrapping EnrollmentState = iota
	EnrollmentReady
	EnrollmentSubmitting
	EnrollmentSucceeded
	EnrollmentFailed
)

func (s EnrollmentState) String() string {
	switch s {
	case EnrollmentBootstrapping:
		return "bootstrapping"
	case EnrollmentReady:
		return "ready"
	case EnrollmentSubmitting:
		return "submitting"
	case EnrollmentSucceeded:
		return "succeeded"
	case EnrollmentFailed:
		return "error"
	default:
		return "unknown"
	}
}

// Next returns the state reached from s on ev. ok is false when ev is not
// accepted in s, in which case s is returned unchanged.
func (s EnrollmentState) Next(ev Event) (next EnrollmentState, ok bool) {
	if ev == EventRestart {
		return EnrollmentBootstrapping, true
	}

	switch {
	case s == EnrollmentBootstrapping && ev == EventProvisioned:
		return EnrollmentReady, true
	case s == EnrollmentBootstrapping && ev == EventProvisionFailed:
		return EnrollmentFailed, true
	case s == EnrollmentReady && ev == EventSubmit:
		return EnrollmentSubmitting, true
	case s == EnrollmentSubmitting && ev == EventAccepted:
		return EnrollmentSucceeded, true
	case s == EnrollmentSubmitting && ev == EventRejected:
		return EnrollmentReady, true
	default:
		return s, false
	}
}

// Terminal reports whether no further event except restart applies.
func (s EnrollmentState) Terminal() bool {
	return s == EnrollmentSucceeded || s == EnrollmentFailed
}

// VerificationState is the state of the verification flow.
type VerificationState int

const (
	VerificationIdle VerificationState = iota
	VerificationVerifying
	VerificationSucceeded
)

func (s VerificationState) String() string {
	switch s {
	case VerificationIdle:
		return "idle"
	case VerificationVerifying:
		return "verifying"
	case VerificationSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Next returns the state reached from s on ev, see EnrollmentState.Next.
func (s VerificationState) Next(ev Event) (next VerificationState, ok bool) {
	if ev == EventRestart {
		return VerificationIdle, true
	}

	switch {
	case s == VerificationIdle && ev == EventSubmit:
		return VerificationVerifying, true
	case s == VerificationVerifying && ev == EventAccepted:
		return VerificationSucceeded, true
	case s == VerificationVerifying && ev == EventRejected:
		return VerificationIdle, true
	default:
		return s, false
	}
}

// Terminal reports whether no further event except restart applies.
func (s VerificationState) Terminal() bool {
	return s == VerificationSucceeded
}
