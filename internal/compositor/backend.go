package compositor

import (
	"errors"
	"fmt"

	"github.com/gogpu/vcompare/internal/layout"
	"github.com/gogpu/vcompare/internal/texture"
)

// Target is the surface a tick draws into.
type Target interface {
	// Size returns the current size in physical pixels.
	Size() (width, height int)
	// Reconfigure rebuilds the target at the given size.
	Reconfigure(width, height int) error
}

// Draw is one instance of the shared unit quad.
type Draw struct {
	Index     int
	Resource  *texture.Resource
	Transform layout.Matrix
}

// TargetErrorKind classifies render failures.
type TargetErrorKind int

const (
	// TargetErrorOther is logged and the tick is skipped.
	TargetErrorOther TargetErrorKind = iota
	// TargetErrorTransient means the target is temporarily unusable; it is
	// reconfigured and the next tick retries.
	TargetErrorTransient
	// TargetErrorFatal ends the session.
	TargetErrorFatal
)

// String returns the kind name used in logs and metrics.
func (k TargetErrorKind) String() string {
	switch k {
	case TargetErrorTransient:
		return "transient"
	case TargetErrorFatal:
		return "fatal"
	default:
		return "other"
	}
}

// Backend uploads images and draws them.
type Backend interface {
	texture.Uploader
	// Render records and submits one pass drawing every Draw into target,
	// in order, with one indexed draw of the unit quad each.
	Render(target Target, draws []Draw) error
	// ClassifyError maps a backend error onto the failure policy.
	ClassifyError(err error) TargetErrorKind
}

// FatalError ends the session.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("compositor: fatal %s error: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err ends the session.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
