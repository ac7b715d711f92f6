package datastructure

import (
	"github.com/paulmach/orb"
)

const (
	EPS = 1e-9
)

// less than operator
func Lt(a, b float64) bool {
	return a+EPS < b
}

// Segment splits a line of k vertices into its k-1 two point segments. consecutive segments share
// an endpoint.
func Segment(line orb.LineString) []orb.LineString {
	if len(line) < 2 {
		return nil
	}
	segments := make([]orb.LineString, 0, len(line)-1)
	for i := 0; i+1 < len(line); i++ {
		segments = append(segments, orb.LineString{line[i], line[i+1]})
	}
	return segments
}
