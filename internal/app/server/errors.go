package server

var (
	ErrStatusUnauthorized   string = "UNAUTHORIZED"
	ErrStatusInvalidRequest string = "INVALID_REQUEST"
	ErrStatusAlreadyQueued  string = "ALREADY_QUEUED"
	ErrStatusNotQueued      string = "NOT_QUEUED"
	ErrStatusQueueBusy      string = "QUEUE_BUSY"
	ErrStatusDuelNotFound   string = "DUEL_NOT_FOUND"
	ErrStatusInternal       string = "INTERNAL_ERROR"
)
