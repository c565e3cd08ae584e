package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{ErrUserNotFound, ErrDuplicateUser, ErrStoreUnavailable, ErrInvalidStoreInput}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("expected %v and %v to be distinct", a, b)
			}
		}
	}
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("saving user alice: %w", ErrDuplicateUser)
	if !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("wrapped error lost its sentinel: %v", err)
	}
}
