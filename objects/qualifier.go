package objects

import "github.com/smnsjas/go-wbem/types"

// CIMQualifier is a qualifier value attached to a class, instance, property,
// method or parameter.
//
// The flavor flags are tri-state: nil means the flag was not stated on the
// wire and the DMTF default applies (overridable and tosubclass default to
// true, toinstance and translatable to false).
type CIMQualifier struct {
	Name    string
	Type    types.CIMType
	Value   interface{}
	IsArray bool

	Propagated bool

	Overridable  *bool
	ToSubclass   *bool
	ToInstance   *bool
	Translatable *bool
}

// NewQualifier creates a scalar qualifier with default flavors.
func NewQualifier(name string, t types.CIMType, value interface{}) *CIMQualifier {
	_, isArray := value.([]interface{})
	return &CIMQualifier{Name: name, Type: t, Value: value, IsArray: isArray}
}

// EffectiveFlavors resolves the tri-state flags against the DMTF defaults.
func (q *CIMQualifier) EffectiveFlavors() (overridable, tosubclass, toinstance, translatable bool) {
	return flavor(q.Overridable, true), flavor(q.ToSubclass, true),
		flavor(q.ToInstance, false), flavor(q.Translatable, false)
}

func flavor(f *bool, def bool) bool {
	if f == nil {
		return def
	}
	return *f
}

// Equal compares names case-insensitively, values deeply, and flavors by
// their effective (default-resolved) settings.
func (q *CIMQualifier) Equal(other *CIMQualifier) bool {
	if q == nil || other == nil {
		return q == other
	}
	if !equalFold(q.Name, other.Name) || q.Type != other.Type ||
		q.IsArray != other.IsArray || q.Propagated != other.Propagated {
		return false
	}
	qo, qs, qi, qt := q.EffectiveFlavors()
	oo, os, oi, ot := other.EffectiveFlavors()
	if qo != oo || qs != os || qi != oi || qt != ot {
		return false
	}
	return EqualValues(q.Value, other.Value)
}

// QualifierScopes is the set of meta elements a qualifier declaration
// applies to.
type QualifierScopes struct {
	Class       bool
	Association bool
	Reference   bool
	Property    bool
	Method      bool
	Parameter   bool
	Indication  bool
}

// CIMQualifierDeclaration declares a qualifier type: its name, CIM type,
// default value, array-ness, applicable scopes and flavor defaults.
type CIMQualifierDeclaration struct {
	Name      string
	Type      types.CIMType
	Value     interface{}
	IsArray   bool
	ArraySize int

	Scopes QualifierScopes

	Overridable  *bool
	ToSubclass   *bool
	ToInstance   *bool
	Translatable *bool
}

// Equal compares names case-insensitively and all remaining fields
// structurally.
func (qd *CIMQualifierDeclaration) Equal(other *CIMQualifierDeclaration) bool {
	if qd == nil || other == nil {
		return qd == other
	}
	return equalFold(qd.Name, other.Name) &&
		qd.Type == other.Type &&
		qd.IsArray == other.IsArray &&
		qd.ArraySize == other.ArraySize &&
		qd.Scopes == other.Scopes &&
		equalTristate(qd.Overridable, other.Overridable) &&
		equalTristate(qd.ToSubclass, other.ToSubclass) &&
		equalTristate(qd.ToInstance, other.ToInstance) &&
		equalTristate(qd.Translatable, other.Translatable) &&
		EqualValues(qd.Value, other.Value)
}
