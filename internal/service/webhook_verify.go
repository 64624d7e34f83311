package service

const hubModeSubscribe = "subscribe"

// VerificationResult is the response to Strava's subscription handshake.
type VerificationResult struct {
	OK        bool
	Challenge string
}

// VerifySubscription accepts the handshake only when mode is "subscribe", the
// token matches exactly and a challenge is present.
func VerifySubscription(mode, token, challenge, expectedToken string) VerificationResult {
	if mode != hubModeSubscribe || expectedToken == "" || token != expectedToken || challenge == "" {
		return VerificationResult{}
	}
	return VerificationResult{OK: true, Challenge: challenge}
}
