package auth

// User is the credential record of a tenant user.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
}

// Token is the bearer token response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
