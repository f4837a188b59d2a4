package core

import "fmt"

// DistanceMetric names a distance calculation method supported by the
// search backend. The facade never computes distances itself - the metric
// only participates in cache-key derivation and backend delegation.
type DistanceMetric string

const (
	DistanceCosine    DistanceMetric = "cosine"
	DistanceL2        DistanceMetric = "l2"
	DistanceEuclidean DistanceMetric = "l2" // Alias for L2
	DistanceDot       DistanceMetric = "dot"
)

// ParseDistanceMetric converts a metric name into a DistanceMetric,
// accepting "euclidean" as an alias for "l2".
func ParseDistanceMetric(name string) (DistanceMetric, error) {
	switch name {
	case "cosine":
		return DistanceCosine, nil
	case "l2", "euclidean":
		return DistanceL2, nil
	case "dot":
		return DistanceDot, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDistance, name)
	}
}

// IsValid reports whether the metric is one of the supported names.
func (m DistanceMetric) IsValid() bool {
	switch m {
	case DistanceCosine, DistanceL2, DistanceDot:
		return true
	}
	return false
}
