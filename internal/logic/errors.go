package logic

import "errors"

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrRewardsNotFound    = errors.New("rewards not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidAddress     = errors.New("invalid wallet address")
	ErrMissingTxHash      = errors.New("transaction hash is required")
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNonceNotFound      = errors.New("login nonce not found or expired")
	ErrInvalidSignature   = errors.New("signature does not match address")
)
