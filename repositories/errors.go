package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrIntegrity reports a unique or foreign-key constraint violation.
	ErrIntegrity = errors.New("store integrity violation")
	// ErrUnavailable reports a store connectivity fault.
	ErrUnavailable = errors.New("store unavailable")
)

// translate maps a gorm error onto the repository error taxonomy. Callers
// handle gorm.ErrRecordNotFound themselves; everything that is not a
// constraint breach is treated as unavailability, matching the store's two
// distinguishable failure signals.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
