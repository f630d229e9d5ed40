package utils

import "github.com/google/uuid"

func NewID() string { return uuid.NewString() }

// ValidID reports whether s looks like an id produced by NewID.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
