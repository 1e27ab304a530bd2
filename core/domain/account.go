package domain

import "time"

// Account is a Gmail mailbox connected through the OAuth flow. Tokens are
// plaintext on this struct; they only ever exist decrypted in memory, the
// persistence layer stores ciphertext.
type Account struct {
	ID           int64     `json:"id"`
	UserEmail    string    `json:"user_email"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenExpired reports whether the stored access token needs a refresh.
func (a *Account) TokenExpired(now time.Time) bool {
	return !a.TokenExpiry.After(now)
}
