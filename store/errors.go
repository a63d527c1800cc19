package store

import "fmt"

// DimensionMismatchError reports a vector whose length disagrees with the
// index's configured dimension. The operation that produced it is not
// retried.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index expects %d, got %d", e.Want, e.Got)
}

// PersistenceError reports a failure reading or writing the durable
// index/metadata artifacts. For writes, the in-memory state is kept; the
// caller should treat the store as ahead of disk until the next successful
// save.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
