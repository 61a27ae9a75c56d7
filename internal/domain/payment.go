package domain

// VerificationOutcome classifies the result of reconciling a payment-gateway
// callback against backend subscription state.
type VerificationOutcome int

const (
	// VerificationVerified means the backend applied the authority during
	// this call.
	VerificationVerified VerificationOutcome = iota
	// VerificationAlreadyVerified means a prior, possibly-retried call
	// already applied the same authority. Treated as success.
	VerificationAlreadyVerified
	// VerificationRejected means the callback or the authority is invalid
	// and retrying can never succeed.
	VerificationRejected
	// VerificationFailed means the backend outcome is unknown and the
	// fallback subscription probe did not show an active subscription.
	VerificationFailed
)

// Succeeded reports whether the outcome should redirect to the success page.
func (o VerificationOutcome) Succeeded() bool {
	return o == VerificationVerified || o == VerificationAlreadyVerified
}

func (o VerificationOutcome) String() string {
	switch o {
	case VerificationVerified:
		return "verified"
	case VerificationAlreadyVerified:
		return "already_verified"
	case VerificationRejected:
		return "rejected"
	case VerificationFailed:
		return "failed"
	default:
		return "unknown"
	}
}
