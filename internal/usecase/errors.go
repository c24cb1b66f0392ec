package usecase

import "errors"

var (
	ErrSiteNotFound = errors.New("site not found")
	ErrNoActiveSite = errors.New("no active site")
	ErrInvalidInput = errors.New("invalid input")
)
