package framegraph

import "errors"

// Frame graph errors.
//
// Stale handles passed to the declaration API are reported by returning an
// invalid handle. The remaining conditions are programmer errors and are
// raised as panics wrapping one of these sentinels, except for allocation
// failures, which Execute returns.
var (
	// ErrInvalidHandle is raised when a handle that was never valid is used.
	ErrInvalidHandle = errors.New("framegraph: invalid handle")

	// ErrStaleHandle is raised when a handle's version no longer matches the
	// live version of its resource.
	ErrStaleHandle = errors.New("framegraph: stale handle")

	// ErrKindMismatch is raised when a handle is used as a resource kind it
	// does not refer to.
	ErrKindMismatch = errors.New("framegraph: resource kind mismatch")

	// ErrPassDataTooLarge is raised by AddPass when the per-pass data exceeds
	// MaxPassDataSize.
	ErrPassDataTooLarge = errors.New("framegraph: pass data exceeds size limit")

	// ErrUndeclaredResource is raised when a pass accesses a resource at
	// execute time that it did not declare during setup.
	ErrUndeclaredResource = errors.New("framegraph: resource not declared by pass")

	// ErrBuilderDone is raised when a Builder is used after its setup
	// callback returned.
	ErrBuilderDone = errors.New("framegraph: builder used outside of setup")

	// ErrNotCompiled is returned by Execute when Compile has not run.
	ErrNotCompiled = errors.New("framegraph: graph not compiled")

	// ErrAlreadyExecuted is returned by Execute when the frame already ran.
	ErrAlreadyExecuted = errors.New("framegraph: frame already executed")

	// ErrAllocationFailed is returned by Execute when the allocator cannot
	// realize a resource.
	ErrAllocationFailed = errors.New("framegraph: resource allocation failed")
)
