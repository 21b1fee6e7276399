package service

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TokenLength is the length of every registration verification token. The
// public listing endpoint refuses anything shorter.
const TokenLength = 128

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// TokenFunc produces the verification token for a newly created happening.
type TokenFunc func(slug string) (string, error)

// RandomToken returns an unpredictable alphanumeric token.
func RandomToken(string) (string, error) {
	return gonanoid.Generate(tokenAlphabet, TokenLength)
}

// PredictableToken derives the token from the slug so development fixtures
// can reach the listing without looking the token up. The slug is kept
// whole and followed by "-" and padding, so distinct slugs never share a
// token. Slugs of TokenLength characters or more give longer tokens.
func PredictableToken(slug string) (string, error) {
	token := slug + "-"
	if pad := TokenLength - len(token); pad > 0 {
		token += strings.Repeat("x", pad)
	}
	return token, nil
}

// NewTokenFunc picks the generator for the environment.
func NewTokenFunc(dev bool) TokenFunc {
	if dev {
		return PredictableToken
	}
	return RandomToken
}
