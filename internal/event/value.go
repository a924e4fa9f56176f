package event

import (
	"fmt"

	"github.com/golobby/cast"
)

// TypeTag names the runtime's declared static type for a memory access, as
// passed alongside a location to the read/write entry points.
type TypeTag string

const (
	TypeInt    TypeTag = "int"
	TypeInt64  TypeTag = "int64"
	TypeBool   TypeTag = "bool"
	TypeString TypeTag = "string"
	TypeFloat  TypeTag = "float64"
)

// CoerceValue converts a dynamically-typed value observed by the runtime
// (e.g. read out of an instrumented field via reflection) into the Go type
// its static typeTag declares, the way a Read/Write label's Value field
// expects it. The runtime's instrumentation layer is out of scope here, but
// the values it hands the engine arrive loosely typed, so this is the
// label-construction boundary's one legitimate use of a casting helper
// rather than a hand-rolled type switch per call site.
func CoerceValue(v any, tag TypeTag) (any, error) {
	switch tag {
	case TypeInt:
		return cast.ToInt(v)
	case TypeInt64:
		return cast.ToInt64(v)
	case TypeBool:
		return cast.ToBool(v)
	case TypeString:
		return cast.ToString(v)
	case TypeFloat:
		return cast.ToFloat64(v)
	default:
		return nil, fmt.Errorf("event: unsupported type tag %q", tag)
	}
}

// DefaultValue returns the zero value for tag, used when a Read
// synchronizes with the Initialization label or an allocation that never
// received a write.
func DefaultValue(tag TypeTag) any {
	switch tag {
	case TypeInt:
		return 0
	case TypeInt64:
		return int64(0)
	case TypeBool:
		return false
	case TypeString:
		return ""
	case TypeFloat:
		return float64(0)
	default:
		return nil
	}
}
