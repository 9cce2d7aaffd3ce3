package objects

import "fmt"

// CIMInstance is an instance of a CIM class: named properties, optional
// qualifiers and an optional owning instance path.
//
// The path is a one-directional back-reference: an instance may hold its own
// path, a path never holds the instance.
type CIMInstance struct {
	ClassName  string
	Properties *NamedMap[*CIMProperty]
	Qualifiers *NamedMap[*CIMQualifier]
	Path       *CIMInstanceName
}

// NewInstance creates an empty instance of className.
func NewInstance(className string) *CIMInstance {
	return &CIMInstance{
		ClassName:  className,
		Properties: NewNamedMap[*CIMProperty](),
		Qualifiers: NewNamedMap[*CIMQualifier](),
	}
}

// Property returns the named property, folding case.
func (inst *CIMInstance) Property(name string) (*CIMProperty, bool) {
	return inst.Properties.Get(name)
}

// PropertyValue returns the current value of the named property.
func (inst *CIMInstance) PropertyValue(name string) (interface{}, bool) {
	p, ok := inst.Properties.Get(name)
	if !ok {
		return nil, false
	}
	return p.Value, true
}

// SetProperty attaches p, replacing a case-insensitive match in place.
func (inst *CIMInstance) SetProperty(p *CIMProperty) {
	if inst.Properties == nil {
		inst.Properties = NewNamedMap[*CIMProperty]()
	}
	inst.Properties.Set(p.Name, p)
}

// SetQualifier attaches q, replacing a case-insensitive match in place.
func (inst *CIMInstance) SetQualifier(q *CIMQualifier) {
	if inst.Qualifiers == nil {
		inst.Qualifiers = NewNamedMap[*CIMQualifier]()
	}
	inst.Qualifiers.Set(q.Name, q)
}

// ValidatePath checks the invariant between an instance and its path: every
// keybinding of the path must name a property present in the instance with
// an equal value. Instances without a path validate trivially.
func (inst *CIMInstance) ValidatePath() error {
	if inst.Path == nil {
		return nil
	}
	var err error
	inst.Path.KeyBindings.Each(func(name string, value interface{}) bool {
		p, ok := inst.Properties.Get(name)
		if !ok {
			err = fmt.Errorf("path key %q has no matching property in instance of %s",
				name, inst.ClassName)
			return false
		}
		if !EqualValues(p.Value, value) {
			err = fmt.Errorf("path key %q disagrees with property value in instance of %s",
				name, inst.ClassName)
			return false
		}
		return true
	})
	return err
}

// Equal compares class name, qualifiers, properties and path; names fold
// case, collections compare in order.
func (inst *CIMInstance) Equal(other *CIMInstance) bool {
	if inst == nil || other == nil {
		return inst == other
	}
	return equalFold(inst.ClassName, other.ClassName) &&
		equalNamedMap(inst.Qualifiers, other.Qualifiers, (*CIMQualifier).Equal) &&
		equalNamedMap(inst.Properties, other.Properties, (*CIMProperty).Equal) &&
		inst.Path.Equal(other.Path)
}

// Copy returns a deep copy of the instance, including its path.
func (inst *CIMInstance) Copy() *CIMInstance {
	out := NewInstance(inst.ClassName)
	inst.Properties.Each(func(name string, p *CIMProperty) bool {
		out.Properties.Set(name, p.Copy())
		return true
	})
	inst.Qualifiers.Each(func(name string, q *CIMQualifier) bool {
		out.Qualifiers.Set(name, q)
		return true
	})
	if inst.Path != nil {
		out.Path = inst.Path.Copy()
	}
	return out
}
