package auth

import "time"

const purposeConfirm = "confirm"

// MakeConfirmToken issues an email confirmation token for a user id.
func (a *AuthService) MakeConfirmToken(userID string, ttl time.Duration) (string, error) {
	return a.issue(Claims{Sub: userID, Purpose: purposeConfirm}, ttl)
}

// VerifyConfirmToken returns the user id carried by a confirmation token.
func (a *AuthService) VerifyConfirmToken(tok string) (string, error) {
	c, err := a.Parse(tok)
	if err != nil {
		return "", err
	}
	if c.Purpose != purposeConfirm || c.Sub == "" {
		return "", ErrInvalidToken
	}
	return c.Sub, nil
}
