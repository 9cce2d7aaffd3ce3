package objects

import (
	"fmt"
	"strings"

	"github.com/smnsjas/go-wbem/types"
)

// ReferencePath is implemented by the value kinds a VALUE.REFERENCE element
// can carry: a class path (CIMClassName) or an instance path
// (CIMInstanceName), each optionally qualified by namespace and host.
type ReferencePath interface {
	fmt.Stringer
	refPath()
}

func (*CIMClassName) refPath()    {}
func (*CIMInstanceName) refPath() {}

// CIMClassName names a class, optionally qualified into a full class path by
// namespace and host. It covers the CLASSNAME, LOCALCLASSPATH and CLASSPATH
// wire forms, chosen by which of the optional fields are set.
type CIMClassName struct {
	Name      string
	Namespace string
	Host      string
}

// NewClassName creates an unqualified class name.
func NewClassName(name string) *CIMClassName {
	return &CIMClassName{Name: name}
}

// Equal compares name, namespace and host case-insensitively.
func (cn *CIMClassName) Equal(other *CIMClassName) bool {
	if cn == nil || other == nil {
		return cn == other
	}
	return equalFold(cn.Name, other.Name) &&
		equalFold(cn.Namespace, other.Namespace) &&
		equalFold(cn.Host, other.Host)
}

func (cn *CIMClassName) String() string {
	var b strings.Builder
	if cn.Host != "" {
		b.WriteString("//")
		b.WriteString(cn.Host)
		b.WriteString("/")
	}
	if cn.Namespace != "" {
		b.WriteString(cn.Namespace)
		b.WriteString(":")
	}
	b.WriteString(cn.Name)
	return b.String()
}

// CIMInstanceName is an instance path: class name plus ordered keybindings,
// optionally qualified by namespace and host.
//
// Keybinding values are one of: string, bool, a typed integer/real
// (types.Uint8 ... types.Real64), *types.CIMDateTime, or a nested
// ReferencePath for keys of reference type.
type CIMInstanceName struct {
	ClassName   string
	KeyBindings *NamedMap[interface{}]
	Namespace   string
	Host        string
}

// NewInstanceName creates an instance path for className with the given
// keybindings applied in order.
func NewInstanceName(className string, keys ...KeyBinding) *CIMInstanceName {
	in := &CIMInstanceName{
		ClassName:   className,
		KeyBindings: NewNamedMap[interface{}](),
	}
	for _, k := range keys {
		in.KeyBindings.Set(k.Name, k.Value)
	}
	return in
}

// KeyBinding is one key-property name/value pair of an instance path.
type KeyBinding struct {
	Name  string
	Value interface{}
}

// Key returns the keybinding value stored under name, folding case.
func (in *CIMInstanceName) Key(name string) (interface{}, bool) {
	return in.KeyBindings.Get(name)
}

// SetKey stores a keybinding, replacing a case-insensitive match in place.
func (in *CIMInstanceName) SetKey(name string, value interface{}) {
	if in.KeyBindings == nil {
		in.KeyBindings = NewNamedMap[interface{}]()
	}
	in.KeyBindings.Set(name, value)
}

// Equal compares class name, keybindings, namespace and host, all
// case-insensitively on names.
func (in *CIMInstanceName) Equal(other *CIMInstanceName) bool {
	if in == nil || other == nil {
		return in == other
	}
	if !equalFold(in.ClassName, other.ClassName) ||
		!equalFold(in.Namespace, other.Namespace) ||
		!equalFold(in.Host, other.Host) {
		return false
	}
	return equalNamedMap(in.KeyBindings, other.KeyBindings, EqualValues)
}

// Copy returns a deep copy of the path. Keybinding values are shared; they
// are scalars or immutable-by-convention references.
func (in *CIMInstanceName) Copy() *CIMInstanceName {
	out := &CIMInstanceName{
		ClassName:   in.ClassName,
		Namespace:   in.Namespace,
		Host:        in.Host,
		KeyBindings: NewNamedMap[interface{}](),
	}
	in.KeyBindings.Each(func(name string, value interface{}) bool {
		out.KeyBindings.Set(name, value)
		return true
	})
	return out
}

// String renders the instance-path form used in logs and WBEM URIs:
//
//	[//host/][namespace:]ClassName.key1="v1",key2=v2
//
// Keybindings appear in insertion order; string and datetime values are
// double-quoted with backslash escaping, numeric and boolean values are
// unquoted.
func (in *CIMInstanceName) String() string {
	var b strings.Builder
	if in.Host != "" {
		b.WriteString("//")
		b.WriteString(in.Host)
		b.WriteString("/")
	}
	if in.Namespace != "" {
		b.WriteString(in.Namespace)
		b.WriteString(":")
	}
	b.WriteString(in.ClassName)
	sep := "."
	in.KeyBindings.Each(func(name string, value interface{}) bool {
		b.WriteString(sep)
		sep = ","
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(keyValueString(value))
		return true
	})
	return b.String()
}

func keyValueString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return quoteKeyString(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case *types.CIMDateTime:
		return quoteKeyString(v.String())
	case types.Char16:
		return quoteKeyString(string(rune(v)))
	case *CIMInstanceName:
		return quoteKeyString(v.String())
	case *CIMClassName:
		return quoteKeyString(v.String())
	}
	if text, err := types.ToWireText(value); err == nil {
		return text
	}
	return fmt.Sprintf("%v", value)
}

func quoteKeyString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
