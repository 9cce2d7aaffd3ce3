package objects

// CIMClass is a CIM class definition: name, optional superclass, and the
// property, method and qualifier collections.
type CIMClass struct {
	ClassName  string
	SuperClass string
	Properties *NamedMap[*CIMProperty]
	Methods    *NamedMap[*CIMMethod]
	Qualifiers *NamedMap[*CIMQualifier]
}

// NewClass creates an empty class definition.
func NewClass(className string) *CIMClass {
	return &CIMClass{
		ClassName:  className,
		Properties: NewNamedMap[*CIMProperty](),
		Methods:    NewNamedMap[*CIMMethod](),
		Qualifiers: NewNamedMap[*CIMQualifier](),
	}
}

// Property returns the named property, folding case.
func (c *CIMClass) Property(name string) (*CIMProperty, bool) {
	return c.Properties.Get(name)
}

// Method returns the named method, folding case.
func (c *CIMClass) Method(name string) (*CIMMethod, bool) {
	return c.Methods.Get(name)
}

// SetProperty attaches p, replacing a case-insensitive match in place.
func (c *CIMClass) SetProperty(p *CIMProperty) {
	if c.Properties == nil {
		c.Properties = NewNamedMap[*CIMProperty]()
	}
	c.Properties.Set(p.Name, p)
}

// SetMethod attaches m, replacing a case-insensitive match in place.
func (c *CIMClass) SetMethod(m *CIMMethod) {
	if c.Methods == nil {
		c.Methods = NewNamedMap[*CIMMethod]()
	}
	c.Methods.Set(m.Name, m)
}

// SetQualifier attaches q, replacing a case-insensitive match in place.
func (c *CIMClass) SetQualifier(q *CIMQualifier) {
	if c.Qualifiers == nil {
		c.Qualifiers = NewNamedMap[*CIMQualifier]()
	}
	c.Qualifiers.Set(q.Name, q)
}

// Equal compares names case-insensitively and all collections in order.
func (c *CIMClass) Equal(other *CIMClass) bool {
	if c == nil || other == nil {
		return c == other
	}
	return equalFold(c.ClassName, other.ClassName) &&
		equalFold(c.SuperClass, other.SuperClass) &&
		equalNamedMap(c.Qualifiers, other.Qualifiers, (*CIMQualifier).Equal) &&
		equalNamedMap(c.Properties, other.Properties, (*CIMProperty).Equal) &&
		equalNamedMap(c.Methods, other.Methods, (*CIMMethod).Equal)
}
