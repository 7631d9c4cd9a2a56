package service

import (
	"errors"
	"fmt"

	"github.com/shinyyama/zaposlitev-backend/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// storeErr maps repository failures onto the service taxonomy.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
