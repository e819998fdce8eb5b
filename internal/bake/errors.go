package bake

import (
	"errors"
	"fmt"
)

// Precondition and host errors. All precondition errors are returned
// before the source object is modified.
var (
	ErrNoActiveObject = errors.New("no active object")
	ErrNotMesh        = errors.New("object is not a mesh")
	ErrNoReference    = errors.New("no collapsed object designated as reference")
	ErrInvalidMesh    = errors.New("invalid source mesh")
	ErrHostInvariant  = errors.New("host broke shape key index correspondence")
)

// WarningCode identifies a non-fatal condition.
type WarningCode int

const (
	WarnBevelAngle   WarningCode = iota + 1 // Bevel limited by angle
	WarnDecimateMode                        // Decimate not in collapse mode
	WarnWeldDistance                        // Weld baked into shape keys
)

// String returns a short code name.
func (c WarningCode) String() string {
	switch c {
	case WarnBevelAngle:
		return "bevel-angle"
	case WarnDecimateMode:
		return "decimate-mode"
	case WarnWeldDistance:
		return "weld-distance"
	default:
		return fmt.Sprintf("WarningCode(%d)", int(c))
	}
}

// Warning is an informational report for the caller to surface.
type Warning struct {
	Code     WarningCode
	Object   string
	Modifier string
	Message  string
}

// String returns "object: message".
func (w Warning) String() string {
	return w.Object + ": " + w.Message
}
