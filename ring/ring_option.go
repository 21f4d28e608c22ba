//go:build linux
// +build linux

package ring

// RingOption is an option for configuring a Ring.
type RingOption func(*Ring) error

// WithID is used to set the starting id for the monotonically increasing ID
// method.
func WithID(id uint64) RingOption {
	return func(r *Ring) error {
		r.idx = &id
		return nil
	}
}

// WithEnterErrHandler is used to handle errors on ring enter.
func WithEnterErrHandler(f func(error)) RingOption {
	return func(r *Ring) error {
		r.enterErrHandler = f
		return nil
	}
}
