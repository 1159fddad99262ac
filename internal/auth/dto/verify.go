package dto

type VerifyEmailInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResendOtpInput struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyDeviceInput struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	OtpCode string `json:"otp_code" validate:"required,len=6,numeric"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
