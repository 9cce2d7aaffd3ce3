package serialization

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/types"
)

// The encoder builds the request-side element trees. Every function here is
// a pure tree constructor; nothing is written until Element.WriteTo.

func boolText(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// valueTypeOf maps a keybinding value to the KEYVALUE VALUETYPE attribute.
func valueTypeOf(t types.CIMType) string {
	switch {
	case t == types.TypeBoolean:
		return "boolean"
	case types.IsIntType(t) || types.IsRealType(t):
		return "numeric"
	default:
		return "string"
	}
}

// ValueElement renders a scalar as a VALUE element.
func ValueElement(v interface{}) (*Element, error) {
	text, err := types.ToWireText(v)
	if err != nil {
		return nil, err
	}
	return TextElement("VALUE", text), nil
}

// ValueArrayElement renders an array value as VALUE.ARRAY. Nil entries
// become VALUE.NULL.
func ValueArrayElement(vals []interface{}) (*Element, error) {
	arr := NewElement("VALUE.ARRAY")
	for _, v := range vals {
		if v == nil {
			arr.Add(NewElement("VALUE.NULL"))
			continue
		}
		ve, err := ValueElement(v)
		if err != nil {
			return nil, err
		}
		arr.Add(ve)
	}
	return arr, nil
}

// ValueReferenceElement renders a reference value as VALUE.REFERENCE. The
// child element family is chosen by how far the path is qualified: host and
// namespace give the full path form, namespace alone the local form, and an
// unqualified name the bare CLASSNAME/INSTANCENAME form. A host without a
// namespace has no wire form and is an error.
func ValueReferenceElement(ref objects.ReferencePath) (*Element, error) {
	vr := NewElement("VALUE.REFERENCE")
	switch p := ref.(type) {
	case *objects.CIMClassName:
		switch {
		case p.Host != "" && p.Namespace == "":
			return nil, fmt.Errorf("class path %q has host %q but no namespace", p.Name, p.Host)
		case p.Host != "":
			vr.Add(NewElement("CLASSPATH").Add(
				NamespacePathElement(p.Host, p.Namespace),
				ClassNameElement(p.Name)))
		case p.Namespace != "":
			vr.Add(NewElement("LOCALCLASSPATH").Add(
				LocalNamespacePathElement(p.Namespace),
				ClassNameElement(p.Name)))
		default:
			vr.Add(ClassNameElement(p.Name))
		}
	case *objects.CIMInstanceName:
		in, err := InstanceNameElement(p)
		if err != nil {
			return nil, err
		}
		switch {
		case p.Host != "" && p.Namespace == "":
			return nil, fmt.Errorf("instance path %q has host %q but no namespace", p.ClassName, p.Host)
		case p.Host != "":
			vr.Add(NewElement("INSTANCEPATH").Add(
				NamespacePathElement(p.Host, p.Namespace), in))
		case p.Namespace != "":
			vr.Add(NewElement("LOCALINSTANCEPATH").Add(
				LocalNamespacePathElement(p.Namespace), in))
		default:
			vr.Add(in)
		}
	default:
		return nil, fmt.Errorf("unsupported reference value %T", ref)
	}
	return vr, nil
}

// ValueRefArrayElement renders an array of references as VALUE.REFARRAY.
func ValueRefArrayElement(vals []interface{}) (*Element, error) {
	arr := NewElement("VALUE.REFARRAY")
	for _, v := range vals {
		ref, ok := v.(objects.ReferencePath)
		if !ok {
			return nil, fmt.Errorf("reference array element is %T, not a path", v)
		}
		vr, err := ValueReferenceElement(ref)
		if err != nil {
			return nil, err
		}
		arr.Add(vr)
	}
	return arr, nil
}

// ClassNameElement renders a CLASSNAME element.
func ClassNameElement(name string) *Element {
	return NewElement("CLASSNAME", Attr{Name: "NAME", Value: name})
}

// LocalNamespacePathElement renders LOCALNAMESPACEPATH, splitting the
// namespace on "/" into NAMESPACE elements.
func LocalNamespacePathElement(namespace string) *Element {
	lp := NewElement("LOCALNAMESPACEPATH")
	for _, seg := range strings.Split(namespace, "/") {
		lp.Add(NewElement("NAMESPACE", Attr{Name: "NAME", Value: seg}))
	}
	return lp
}

// NamespacePathElement renders NAMESPACEPATH (HOST + LOCALNAMESPACEPATH).
func NamespacePathElement(host, namespace string) *Element {
	return NewElement("NAMESPACEPATH").Add(
		TextElement("HOST", host),
		LocalNamespacePathElement(namespace))
}

// InstanceNameElement renders INSTANCENAME with its KEYBINDING children.
func InstanceNameElement(in *objects.CIMInstanceName) (*Element, error) {
	if in.ClassName == "" {
		return nil, fmt.Errorf("instance name has empty class name")
	}
	el := NewElement("INSTANCENAME", Attr{Name: "CLASSNAME", Value: in.ClassName})
	var err error
	in.KeyBindings.Each(func(name string, value interface{}) bool {
		kb := NewElement("KEYBINDING", Attr{Name: "NAME", Value: name})
		if ref, ok := value.(objects.ReferencePath); ok {
			var vr *Element
			vr, err = ValueReferenceElement(ref)
			if err != nil {
				return false
			}
			kb.Add(vr)
		} else {
			var kv *Element
			kv, err = KeyValueElement(value)
			if err != nil {
				return false
			}
			kb.Add(kv)
		}
		el.Add(kb)
		return true
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// KeyValueElement renders a non-reference keybinding value as KEYVALUE,
// carrying both the coarse VALUETYPE and the precise TYPE attribute.
func KeyValueElement(value interface{}) (*Element, error) {
	t, err := types.TypeOf(value)
	if err != nil {
		return nil, err
	}
	text, err := types.ToWireText(value)
	if err != nil {
		return nil, err
	}
	return TextElement("KEYVALUE", text,
		Attr{Name: "VALUETYPE", Value: valueTypeOf(t)},
		Attr{Name: "TYPE", Value: string(t)}), nil
}

// InstancePathElement renders INSTANCEPATH or LOCALINSTANCEPATH depending on
// whether the path carries a host. Both forms require a namespace.
func InstancePathElement(in *objects.CIMInstanceName) (*Element, error) {
	ine, err := InstanceNameElement(in)
	if err != nil {
		return nil, err
	}
	if in.Namespace == "" {
		return nil, fmt.Errorf("instance path %q has no namespace", in.ClassName)
	}
	if in.Host != "" {
		return NewElement("INSTANCEPATH").Add(
			NamespacePathElement(in.Host, in.Namespace), ine), nil
	}
	return NewElement("LOCALINSTANCEPATH").Add(
		LocalNamespacePathElement(in.Namespace), ine), nil
}

// QualifierElement renders a QUALIFIER with its value payload. Flavor
// attributes are written only when explicitly stated; absent flags rely on
// the DMTF defaults, so the round trip is semantic rather than textual.
func QualifierElement(q *objects.CIMQualifier) (*Element, error) {
	el := NewElement("QUALIFIER",
		Attr{Name: "NAME", Value: q.Name},
		Attr{Name: "TYPE", Value: string(q.Type)})
	if q.Propagated {
		el.SetAttr("PROPAGATED", "true")
	}
	addFlavorAttrs(el, q.Overridable, q.ToSubclass, q.ToInstance, q.Translatable)

	if q.Value != nil {
		payload, err := valuePayload(q.Value, q.IsArray)
		if err != nil {
			return nil, fmt.Errorf("qualifier %s: %w", q.Name, err)
		}
		el.Add(payload)
	}
	return el, nil
}

func addFlavorAttrs(el *Element, overridable, tosubclass, toinstance, translatable *bool) {
	if overridable != nil {
		el.SetAttr("OVERRIDABLE", boolText(*overridable))
	}
	if tosubclass != nil {
		el.SetAttr("TOSUBCLASS", boolText(*tosubclass))
	}
	if toinstance != nil {
		el.SetAttr("TOINSTANCE", boolText(*toinstance))
	}
	if translatable != nil {
		el.SetAttr("TRANSLATABLE", boolText(*translatable))
	}
}

func valuePayload(value interface{}, isArray bool) (*Element, error) {
	if arr, ok := value.([]interface{}); ok || isArray {
		if !ok {
			return nil, fmt.Errorf("array-flagged value is %T, not a slice", value)
		}
		return ValueArrayElement(arr)
	}
	return ValueElement(value)
}

// PropertyElement renders a property as PROPERTY, PROPERTY.ARRAY,
// PROPERTY.REFERENCE or PROPERTY.REFARRAY. A value that is itself a
// CIMInstance or CIMClass is carried as a string-typed property with the
// serialized object as text and an EmbeddedObject attribute.
func PropertyElement(p *objects.CIMProperty) (*Element, error) {
	var el *Element
	switch {
	case p.Type == types.TypeReference && p.IsArray:
		el = NewElement("PROPERTY.REFARRAY", Attr{Name: "NAME", Value: p.Name})
		if p.ReferenceClass != "" {
			el.SetAttr("REFERENCECLASS", p.ReferenceClass)
		}
	case p.Type == types.TypeReference:
		el = NewElement("PROPERTY.REFERENCE", Attr{Name: "NAME", Value: p.Name})
		if p.ReferenceClass != "" {
			el.SetAttr("REFERENCECLASS", p.ReferenceClass)
		}
	case p.IsArray:
		el = NewElement("PROPERTY.ARRAY",
			Attr{Name: "NAME", Value: p.Name},
			Attr{Name: "TYPE", Value: string(propertyWireType(p))})
		if p.ArraySize > 0 {
			el.SetAttr("ARRAYSIZE", strconv.Itoa(p.ArraySize))
		}
	default:
		el = NewElement("PROPERTY",
			Attr{Name: "NAME", Value: p.Name},
			Attr{Name: "TYPE", Value: string(propertyWireType(p))})
	}
	if p.ClassOrigin != "" {
		el.SetAttr("CLASSORIGIN", p.ClassOrigin)
	}
	if p.Propagated {
		el.SetAttr("PROPAGATED", "true")
	}
	if kind := embeddedKind(p); kind != objects.EmbeddedNone {
		el.SetAttr("EmbeddedObject", string(kind))
	}

	if err := addQualifiers(el, p.Qualifiers); err != nil {
		return nil, err
	}

	if p.Value == nil {
		return el, nil
	}
	payload, err := propertyValuePayload(p)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p.Name, err)
	}
	el.Add(payload)
	return el, nil
}

// propertyWireType is the TYPE attribute: embedded objects are typed as
// string on the wire.
func propertyWireType(p *objects.CIMProperty) types.CIMType {
	if embeddedKind(p) != objects.EmbeddedNone {
		return types.TypeString
	}
	return p.Type
}

func embeddedKind(p *objects.CIMProperty) objects.EmbeddedObjectKind {
	if p.Embedded != objects.EmbeddedNone {
		return p.Embedded
	}
	probe := p.Value
	if arr, ok := probe.([]interface{}); ok {
		if len(arr) == 0 {
			return objects.EmbeddedNone
		}
		probe = arr[0]
	}
	switch probe.(type) {
	case *objects.CIMInstance:
		return objects.EmbeddedInstance
	case *objects.CIMClass:
		return objects.EmbeddedObject
	}
	return objects.EmbeddedNone
}

func propertyValuePayload(p *objects.CIMProperty) (*Element, error) {
	if p.Type == types.TypeReference {
		if p.IsArray {
			arr, ok := p.Value.([]interface{})
			if !ok {
				return nil, fmt.Errorf("reference array value is %T", p.Value)
			}
			return ValueRefArrayElement(arr)
		}
		ref, ok := p.Value.(objects.ReferencePath)
		if !ok {
			return nil, fmt.Errorf("reference value is %T", p.Value)
		}
		return ValueReferenceElement(ref)
	}

	if embeddedKind(p) != objects.EmbeddedNone {
		if arr, ok := p.Value.([]interface{}); ok {
			va := NewElement("VALUE.ARRAY")
			for _, v := range arr {
				text, err := embeddedObjectText(v)
				if err != nil {
					return nil, err
				}
				va.Add(TextElement("VALUE", text))
			}
			return va, nil
		}
		text, err := embeddedObjectText(p.Value)
		if err != nil {
			return nil, err
		}
		return TextElement("VALUE", text), nil
	}

	return valuePayload(p.Value, p.IsArray)
}

func embeddedObjectText(v interface{}) (string, error) {
	switch obj := v.(type) {
	case *objects.CIMInstance:
		el, err := InstanceElement(obj)
		if err != nil {
			return "", err
		}
		return el.String(), nil
	case *objects.CIMClass:
		el, err := ClassElement(obj)
		if err != nil {
			return "", err
		}
		return el.String(), nil
	}
	return "", fmt.Errorf("embedded object value is %T", v)
}

func addQualifiers(el *Element, qs *objects.NamedMap[*objects.CIMQualifier]) error {
	var err error
	qs.Each(func(_ string, q *objects.CIMQualifier) bool {
		var qe *Element
		qe, err = QualifierElement(q)
		if err != nil {
			return false
		}
		el.Add(qe)
		return true
	})
	return err
}

// InstanceElement renders INSTANCE: qualifiers first, then properties in
// insertion order.
func InstanceElement(inst *objects.CIMInstance) (*Element, error) {
	el := NewElement("INSTANCE", Attr{Name: "CLASSNAME", Value: inst.ClassName})
	if err := addQualifiers(el, inst.Qualifiers); err != nil {
		return nil, err
	}
	var err error
	inst.Properties.Each(func(_ string, p *objects.CIMProperty) bool {
		var pe *Element
		pe, err = PropertyElement(p)
		if err != nil {
			return false
		}
		el.Add(pe)
		return true
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// NamedInstanceElement renders VALUE.NAMEDINSTANCE (the instance's own path
// followed by the instance), used by ModifyInstance and enumeration
// responses.
func NamedInstanceElement(inst *objects.CIMInstance) (*Element, error) {
	if inst.Path == nil {
		return nil, fmt.Errorf("named instance of %s has no path", inst.ClassName)
	}
	ine, err := InstanceNameElement(inst.Path)
	if err != nil {
		return nil, err
	}
	ie, err := InstanceElement(inst)
	if err != nil {
		return nil, err
	}
	return NewElement("VALUE.NAMEDINSTANCE").Add(ine, ie), nil
}

// ClassElement renders CLASS: qualifiers, then properties, then methods.
func ClassElement(cls *objects.CIMClass) (*Element, error) {
	el := NewElement("CLASS", Attr{Name: "NAME", Value: cls.ClassName})
	if cls.SuperClass != "" {
		el.SetAttr("SUPERCLASS", cls.SuperClass)
	}
	if err := addQualifiers(el, cls.Qualifiers); err != nil {
		return nil, err
	}
	var err error
	cls.Properties.Each(func(_ string, p *objects.CIMProperty) bool {
		var pe *Element
		pe, err = PropertyElement(p)
		if err != nil {
			return false
		}
		el.Add(pe)
		return true
	})
	if err != nil {
		return nil, err
	}
	cls.Methods.Each(func(_ string, m *objects.CIMMethod) bool {
		var me *Element
		me, err = MethodElement(m)
		if err != nil {
			return false
		}
		el.Add(me)
		return true
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// MethodElement renders METHOD with its qualifiers and parameters.
func MethodElement(m *objects.CIMMethod) (*Element, error) {
	el := NewElement("METHOD", Attr{Name: "NAME", Value: m.Name})
	if m.ReturnType != "" {
		el.SetAttr("TYPE", string(m.ReturnType))
	}
	if m.ClassOrigin != "" {
		el.SetAttr("CLASSORIGIN", m.ClassOrigin)
	}
	if m.Propagated {
		el.SetAttr("PROPAGATED", "true")
	}
	if err := addQualifiers(el, m.Qualifiers); err != nil {
		return nil, err
	}
	var err error
	m.Parameters.Each(func(_ string, p *objects.CIMParameter) bool {
		var pe *Element
		pe, err = ParameterElement(p)
		if err != nil {
			return false
		}
		el.Add(pe)
		return true
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// ParameterElement renders one of the four PARAMETER element families.
func ParameterElement(p *objects.CIMParameter) (*Element, error) {
	var el *Element
	switch {
	case p.Type == types.TypeReference && p.IsArray:
		el = NewElement("PARAMETER.REFARRAY", Attr{Name: "NAME", Value: p.Name})
		if p.ReferenceClass != "" {
			el.SetAttr("REFERENCECLASS", p.ReferenceClass)
		}
		if p.ArraySize > 0 {
			el.SetAttr("ARRAYSIZE", strconv.Itoa(p.ArraySize))
		}
	case p.Type == types.TypeReference:
		el = NewElement("PARAMETER.REFERENCE", Attr{Name: "NAME", Value: p.Name})
		if p.ReferenceClass != "" {
			el.SetAttr("REFERENCECLASS", p.ReferenceClass)
		}
	case p.IsArray:
		el = NewElement("PARAMETER.ARRAY",
			Attr{Name: "NAME", Value: p.Name},
			Attr{Name: "TYPE", Value: string(p.Type)})
		if p.ArraySize > 0 {
			el.SetAttr("ARRAYSIZE", strconv.Itoa(p.ArraySize))
		}
	default:
		el = NewElement("PARAMETER",
			Attr{Name: "NAME", Value: p.Name},
			Attr{Name: "TYPE", Value: string(p.Type)})
	}
	if err := addQualifiers(el, p.Qualifiers); err != nil {
		return nil, err
	}
	return el, nil
}

// QualifierDeclarationElement renders QUALIFIER.DECLARATION with its SCOPE
// child and default value payload.
func QualifierDeclarationElement(qd *objects.CIMQualifierDeclaration) (*Element, error) {
	el := NewElement("QUALIFIER.DECLARATION",
		Attr{Name: "NAME", Value: qd.Name},
		Attr{Name: "TYPE", Value: string(qd.Type)})
	if qd.IsArray {
		el.SetAttr("ISARRAY", "true")
		if qd.ArraySize > 0 {
			el.SetAttr("ARRAYSIZE", strconv.Itoa(qd.ArraySize))
		}
	}
	addFlavorAttrs(el, qd.Overridable, qd.ToSubclass, qd.ToInstance, qd.Translatable)

	if s := qd.Scopes; s != (objects.QualifierScopes{}) {
		scope := NewElement("SCOPE")
		if s.Class {
			scope.SetAttr("CLASS", "true")
		}
		if s.Association {
			scope.SetAttr("ASSOCIATION", "true")
		}
		if s.Reference {
			scope.SetAttr("REFERENCE", "true")
		}
		if s.Property {
			scope.SetAttr("PROPERTY", "true")
		}
		if s.Method {
			scope.SetAttr("METHOD", "true")
		}
		if s.Parameter {
			scope.SetAttr("PARAMETER", "true")
		}
		if s.Indication {
			scope.SetAttr("INDICATION", "true")
		}
		el.Add(scope)
	}

	if qd.Value != nil {
		payload, err := valuePayload(qd.Value, qd.IsArray)
		if err != nil {
			return nil, fmt.Errorf("qualifier declaration %s: %w", qd.Name, err)
		}
		el.Add(payload)
	}
	return el, nil
}

// ObjectElement dispatches on the object-model kind, for callers that hold
// an untyped value (parameter payloads, return values).
func ObjectElement(v interface{}) (*Element, error) {
	switch obj := v.(type) {
	case *objects.CIMInstance:
		return InstanceElement(obj)
	case *objects.CIMClass:
		return ClassElement(obj)
	case *objects.CIMInstanceName:
		return InstanceNameElement(obj)
	case *objects.CIMClassName:
		return ClassNameElement(obj.Name), nil
	case *objects.CIMQualifierDeclaration:
		return QualifierDeclarationElement(obj)
	case []interface{}:
		if len(obj) > 0 {
			if _, ok := obj[0].(objects.ReferencePath); ok {
				return ValueRefArrayElement(obj)
			}
		}
		return ValueArrayElement(obj)
	}
	if ref, ok := v.(objects.ReferencePath); ok {
		return ValueReferenceElement(ref)
	}
	return ValueElement(v)
}
