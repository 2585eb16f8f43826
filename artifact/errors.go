package artifact

import "fmt"

var (
	// ErrNotFound is returned when no artifact with the given name exists.
	ErrNotFound = fmt.Errorf("artifact not found")

	// ErrInvalidName is returned for names that are empty or contain a path
	// component.
	ErrInvalidName = fmt.Errorf("invalid artifact name")
)
