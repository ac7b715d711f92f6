package routing

import (
	"errors"
	"fmt"

	da "github.com/lintang-b-s/niceroute/pkg/datastructure"
	"github.com/paulmach/orb"
)

var (
	ErrPathNotFound = errors.New("path not found")
	ErrEmptyGraph   = errors.New("graph has no nodes")
)

// PathNotFoundError is returned when the snapped endpoints lie in different components.
type PathNotFoundError struct {
	Start, End         orb.Point
	StartNode, EndNode da.Index
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("cannot find a path between %v and %v, search nodes are %d and %d",
		e.Start, e.End, e.StartNode, e.EndNode)
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}
