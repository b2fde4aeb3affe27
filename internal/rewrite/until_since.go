package rewrite

import (
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/timeline"
)

// Until rewrites a binary "targets hold until pre-targets are reached"
// constraint. The reference encoder carries this branch commented out, and
// spec §9 leaves its exact clone/reset semantics an open question; this
// module declares the operator on the driver surface but does not guess an
// implementation.
func Until(st *timeline.Store, b constraint.Binary) error {
	return ErrNotImplemented
}

// Since is the backward counterpart of Until, left unimplemented for the
// same reason.
func Since(st *timeline.Store, b constraint.Binary) error {
	return ErrNotImplemented
}
