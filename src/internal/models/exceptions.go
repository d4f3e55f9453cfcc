package models

import (
	"errors"
	"fmt"
)

var (
	ErrRedisGet    = errors.New("redis get error")
	ErrRedisSet    = errors.New("redis set error")
	ErrRedisDelete = errors.New("redis delete error")
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionCreating = errors.New("error creating session")
	ErrSessionUpdating = errors.New("error updating session")
)

var (
	ErrDatabaseQuery  = errors.New("database query error")
	ErrDatabaseInsert = errors.New("database insert error")
)

var (
	ErrBackendUnreachable = errors.New("cannot reach server")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidParams      = errors.New("invalid parameters")
	ErrOfficialNotFound   = errors.New("structural official not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrInvalidRank        = errors.New("rank must be between 1 and 5")
)

// BackendError is a non-2xx answer from the SIKep backend other than 401.
// Message carries the backend's text verbatim.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// IsClientError reports whether the backend rejected the request itself.
func (e *BackendError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}
