package transfer

import "time"

// Field is a best-effort display value. A failed fetch keeps Set false
// and records Err so the failure stays inspectable without reaching the user.
type Field[T any] struct {
	Value     T
	Set       bool
	Err       error
	UpdatedAt time.Time
}

func (f *Field[T]) store(v T, err error, now time.Time) {
	f.UpdatedAt = now
	if err != nil {
		var zero T
		f.Value = zero
		f.Set = false
		f.Err = err
		return
	}
	f.Value = v
	f.Set = true
	f.Err = nil
}

// Get returns the value and whether it is set.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set
}
