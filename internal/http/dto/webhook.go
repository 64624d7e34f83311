package dto

// VerificationQuery is Strava's subscription handshake.
type VerificationQuery struct {
	Mode        string `form:"hub.mode"`
	VerifyToken string `form:"hub.verify_token"`
	Challenge   string `form:"hub.challenge"`
}

type VerificationResponse struct {
	Challenge string `json:"hub.challenge"`
}

type WebhookAck struct {
	OK bool `json:"ok"`
}
