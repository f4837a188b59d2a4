package core

import "fmt"

// ValidateQuery checks that a query vector is non-empty and contains only
// finite values. The caching facade itself does not pre-validate queries;
// backends call this to reject malformed input before a network round-trip.
func ValidateQuery(query []float32) error {
	if len(query) == 0 {
		return ErrEmptyQuery
	}

	for i, val := range query {
		if isNaN(val) {
			return fmt.Errorf("%w: NaN at index %d", ErrInvalidQuery, i)
		}
		if isInf(val) {
			return fmt.Errorf("%w: infinite value at index %d", ErrInvalidQuery, i)
		}
	}

	return nil
}

// Helper functions for NaN and Inf detection
func isNaN(f float32) bool {
	return f != f
}

func isInf(f float32) bool {
	return f > 3.4e38 || f < -3.4e38
}
