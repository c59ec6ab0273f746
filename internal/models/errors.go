package models

import "errors"

var (
	ErrInvitationNotFound  = errors.New("no vote invitation found")
	ErrTokenNotFound       = errors.New("vote token is not found or expired")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnknownTaskKind     = errors.New("unknown task kind")
	ErrInvalidTaskData     = errors.New("invalid task data")
	ErrFailedToProcessData = errors.New("failed to process data")
)
