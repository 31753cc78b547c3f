package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether err is the store's record-missing signal.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a uniqueness-constraint
// violation. The gorm postgres driver translates these when the dialector
// is opened with TranslateError.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
