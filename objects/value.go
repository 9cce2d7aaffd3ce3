package objects

import (
	"github.com/smnsjas/go-wbem/types"
)

// EqualValues compares two CIM property/keybinding/qualifier values deeply.
// Scalars compare by value, arrays element-wise, references and embedded
// objects structurally with case-insensitive names.
func EqualValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case *types.CIMDateTime:
		bv, ok := b.(*types.CIMDateTime)
		return ok && av.Equal(bv)

	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualValues(av[i], bv[i]) {
				return false
			}
		}
		return true

	case *CIMInstanceName:
		bv, ok := b.(*CIMInstanceName)
		return ok && av.Equal(bv)

	case *CIMClassName:
		bv, ok := b.(*CIMClassName)
		return ok && av.Equal(bv)

	case *CIMInstance:
		bv, ok := b.(*CIMInstance)
		return ok && av.Equal(bv)

	case *CIMClass:
		bv, ok := b.(*CIMClass)
		return ok && av.Equal(bv)
	}

	// Typed scalars and native string/bool are comparable.
	return a == b
}

func equalFold(a, b string) bool {
	return foldName(a) == foldName(b)
}

// equalTristate compares optional boolean flags (nil means "not stated").
func equalTristate(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Bool returns a pointer to b, for populating optional flavor flags.
func Bool(b bool) *bool {
	v := b
	return &v
}
