package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotCSV             = errors.New("file must be a CSV")
	ErrPayloadTooLarge    = errors.New("file size exceeds the maximum allowed size")
	ErrInvalidEncoding    = errors.New("invalid file encoding, please use UTF-8")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}
