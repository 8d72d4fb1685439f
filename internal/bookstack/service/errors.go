package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrAccountInactive     = errors.New("account_inactive")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrSessionCreation     = errors.New("session_creation_failed")
	ErrNotFound            = errors.New("not_found")
	ErrConflict            = errors.New("conflict")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidQuery        = errors.New("invalid_query")
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")
)
