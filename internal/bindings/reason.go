// Package bindings implements the FFI-style boundary layer:
// create/process/advance/destroy/get_state/channel_count over the
// slab-backed channel store, byte-oriented sample buffers in place of a
// host language's native arrays, and a typed Reason enum in place of Go
// error values at the boundary itself.
package bindings

// Reason is the boundary-visible error taxonomy: internal sentinel
// errors (slab.ErrFull, slab.ErrNotFound, ...) are mapped onto one of
// these four terms before crossing the boundary, so that a host caller
// never needs to inspect a Go error value or wrapped error chain.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSlabFull
	ReasonChannelNotFound
	ReasonInvalidSampleSize
	ReasonBinaryAllocFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSlabFull:
		return "slab_full"
	case ReasonChannelNotFound:
		return "channel_not_found"
	case ReasonInvalidSampleSize:
		return "invalid_sample_size"
	case ReasonBinaryAllocFailed:
		return "binary_alloc_failed"
	default:
		return "unknown"
	}
}

// Status is the (status, reason) pair every boundary operation returns
// in place of a bare Go error.
type Status struct {
	OK     bool
	Reason Reason
}

func ok() Status { return Status{OK: true} }

func failed(reason Reason) Status { return Status{OK: false, Reason: reason} }
