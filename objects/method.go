package objects

import "github.com/smnsjas/go-wbem/types"

// CIMMethod is a method declaration of a class.
type CIMMethod struct {
	Name string
	// ReturnType is empty for methods declared without a return value.
	ReturnType  types.CIMType
	Parameters  *NamedMap[*CIMParameter]
	ClassOrigin string
	Propagated  bool
	Qualifiers  *NamedMap[*CIMQualifier]
}

// NewMethod creates a method declaration with no parameters.
func NewMethod(name string, returnType types.CIMType) *CIMMethod {
	return &CIMMethod{
		Name:       name,
		ReturnType: returnType,
		Parameters: NewNamedMap[*CIMParameter](),
		Qualifiers: NewNamedMap[*CIMQualifier](),
	}
}

// SetParameter attaches p, replacing a case-insensitive match in place.
func (m *CIMMethod) SetParameter(p *CIMParameter) {
	if m.Parameters == nil {
		m.Parameters = NewNamedMap[*CIMParameter]()
	}
	m.Parameters.Set(p.Name, p)
}

// Equal compares names case-insensitively and all collections in order.
func (m *CIMMethod) Equal(other *CIMMethod) bool {
	if m == nil || other == nil {
		return m == other
	}
	return equalFold(m.Name, other.Name) &&
		m.ReturnType == other.ReturnType &&
		equalFold(m.ClassOrigin, other.ClassOrigin) &&
		m.Propagated == other.Propagated &&
		equalNamedMap(m.Qualifiers, other.Qualifiers, (*CIMQualifier).Equal) &&
		equalNamedMap(m.Parameters, other.Parameters, (*CIMParameter).Equal)
}

// CIMParameter is a parameter declaration of a method. Parameters of
// reference type carry ReferenceClass and Type == types.TypeReference.
type CIMParameter struct {
	Name           string
	Type           types.CIMType
	ReferenceClass string
	IsArray        bool
	ArraySize      int
	Qualifiers     *NamedMap[*CIMQualifier]
}

// NewParameter creates a parameter declaration.
func NewParameter(name string, t types.CIMType) *CIMParameter {
	return &CIMParameter{
		Name:       name,
		Type:       t,
		Qualifiers: NewNamedMap[*CIMQualifier](),
	}
}

// Equal compares names case-insensitively and all fields structurally.
func (p *CIMParameter) Equal(other *CIMParameter) bool {
	if p == nil || other == nil {
		return p == other
	}
	return equalFold(p.Name, other.Name) &&
		p.Type == other.Type &&
		equalFold(p.ReferenceClass, other.ReferenceClass) &&
		p.IsArray == other.IsArray &&
		p.ArraySize == other.ArraySize &&
		equalNamedMap(p.Qualifiers, other.Qualifiers, (*CIMQualifier).Equal)
}
