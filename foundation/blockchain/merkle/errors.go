package merkle

import "errors"

// ErrIndexOutOfRange is returned when a proof is requested for a value that
// is not part of the tree.
var ErrIndexOutOfRange = errors.New("index out of range")
