package objects

import "github.com/smnsjas/go-wbem/types"

// EmbeddedObjectKind tags a string property that carries a serialized CIM
// object, per the DSP0201 EmbeddedObject attribute.
type EmbeddedObjectKind string

const (
	// EmbeddedNone marks an ordinary property.
	EmbeddedNone EmbeddedObjectKind = ""
	// EmbeddedObject marks a property embedding a class or instance.
	EmbeddedObject EmbeddedObjectKind = "object"
	// EmbeddedInstance marks a property embedding an instance.
	EmbeddedInstance EmbeddedObjectKind = "instance"
)

// CIMProperty is a property of a class or instance: a declared CIM type, a
// scalar-or-array flag, an optional current value and optional qualifiers.
//
// A property of reference type has Type == types.TypeReference and carries
// the referenced class in ReferenceClass; its value, if any, is a
// ReferencePath (scalar) or []interface{} of ReferencePath (array).
//
// Value being nil means the property is NULL, which is distinct from an
// empty string value.
type CIMProperty struct {
	Name    string
	Type    types.CIMType
	Value   interface{}
	IsArray bool
	// ArraySize is the declared fixed array size, 0 if unbounded.
	ArraySize int

	ReferenceClass string
	ClassOrigin    string
	Propagated     bool
	Embedded       EmbeddedObjectKind

	Qualifiers *NamedMap[*CIMQualifier]
}

// NewProperty creates a scalar property. The array flag is inferred when
// value is a []interface{}.
func NewProperty(name string, t types.CIMType, value interface{}) *CIMProperty {
	_, isArray := value.([]interface{})
	return &CIMProperty{
		Name:       name,
		Type:       t,
		Value:      value,
		IsArray:    isArray,
		Qualifiers: NewNamedMap[*CIMQualifier](),
	}
}

// NewReferenceProperty creates a property of reference type.
func NewReferenceProperty(name, referenceClass string, value interface{}) *CIMProperty {
	p := NewProperty(name, types.TypeReference, value)
	p.ReferenceClass = referenceClass
	return p
}

// Qualifier returns the named qualifier, folding case.
func (p *CIMProperty) Qualifier(name string) (*CIMQualifier, bool) {
	return p.Qualifiers.Get(name)
}

// SetQualifier attaches q, replacing a case-insensitive match in place.
func (p *CIMProperty) SetQualifier(q *CIMQualifier) {
	if p.Qualifiers == nil {
		p.Qualifiers = NewNamedMap[*CIMQualifier]()
	}
	p.Qualifiers.Set(q.Name, q)
}

// Equal compares all fields; names fold case, values compare deeply.
func (p *CIMProperty) Equal(other *CIMProperty) bool {
	if p == nil || other == nil {
		return p == other
	}
	return equalFold(p.Name, other.Name) &&
		p.Type == other.Type &&
		p.IsArray == other.IsArray &&
		p.ArraySize == other.ArraySize &&
		equalFold(p.ReferenceClass, other.ReferenceClass) &&
		equalFold(p.ClassOrigin, other.ClassOrigin) &&
		p.Propagated == other.Propagated &&
		p.Embedded == other.Embedded &&
		equalNamedMap(p.Qualifiers, other.Qualifiers, (*CIMQualifier).Equal) &&
		EqualValues(p.Value, other.Value)
}

// Copy returns a deep copy of the property. Qualifier pointers are copied
// shallowly into a fresh collection.
func (p *CIMProperty) Copy() *CIMProperty {
	out := *p
	out.Qualifiers = NewNamedMap[*CIMQualifier]()
	p.Qualifiers.Each(func(name string, q *CIMQualifier) bool {
		out.Qualifiers.Set(name, q)
		return true
	})
	return &out
}
