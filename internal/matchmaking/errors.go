package matchmaking

import "errors"

var (
	ErrAlreadyQueued      = errors.New("user already queued")
	ErrNotQueued          = errors.New("user not queued")
	ErrInvalidInput       = errors.New("invalid matchmaking request")
	ErrDuelCreationFailed = errors.New("duel creation failed")
	ErrLockTimeout        = errors.New("bucket lock timeout")
)
