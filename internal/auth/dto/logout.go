package dto

type LogoutInput struct {
	RefreshToken string `json:"refresh_token"`

	AccessToken string `json:"-"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}
