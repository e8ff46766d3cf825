package probe

import "errors"

var (
	ErrUnhealthy        = errors.New("service not ready")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrJobFailed        = errors.New("sync job failed")
	ErrNothingToDo      = errors.New("neither games file nor steam id given")
)
