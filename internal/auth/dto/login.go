package dto

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	Fingerprint string `json:"-"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}

// LoginOutcome is either a token pair or a new-device challenge signal; a
// required challenge is a distinct outcome, not a failure.
type LoginOutcome struct {
	ChallengeRequired bool           `json:"challenge_required"`
	UserID            string         `json:"user_id,omitempty"`
	Tokens            *TokenResponse `json:"tokens,omitempty"`
}
