package serialization

import (
	"strings"
	"testing"

	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/types"
)

func TestElementWriting(t *testing.T) {
	el := NewElement("CLASSNAME", Attr{Name: "NAME", Value: "CIM_Foo"})
	if out := el.String(); out != `<CLASSNAME NAME="CIM_Foo"/>` {
		t.Errorf("empty element: %s", out)
	}

	el = TextElement("HOST", "server.example.com")
	if out := el.String(); out != `<HOST>server.example.com</HOST>` {
		t.Errorf("text element: %s", out)
	}

	el = TextElement("VALUE", `a<b>&"c`)
	out := el.String()
	if !strings.Contains(out, "a&lt;b&gt;&amp;&#34;c") {
		t.Errorf("text escaping: %s", out)
	}

	el = NewElement("KEYBINDING", Attr{Name: "NAME", Value: `say "hi" <now>`})
	out = el.String()
	if !strings.Contains(out, `NAME="say &#34;hi&#34; &lt;now&gt;"`) {
		t.Errorf("attribute escaping: %s", out)
	}
}

func TestElementDocument(t *testing.T) {
	doc := string(TextElement("VALUE", "x").Document())
	if !strings.HasPrefix(doc, `<?xml version="1.0" encoding="utf-8" ?>`) {
		t.Errorf("missing declaration: %s", doc)
	}
}

func TestValueElement(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{true, "<VALUE>TRUE</VALUE>"},
		{false, "<VALUE>FALSE</VALUE>"},
		{types.Uint32(42), "<VALUE>42</VALUE>"},
		{types.Sint8(-3), "<VALUE>-3</VALUE>"},
		{"hello", "<VALUE>hello</VALUE>"},
		{"", "<VALUE/>"},
	}
	for _, tt := range tests {
		el, err := ValueElement(tt.value)
		if err != nil {
			t.Errorf("ValueElement(%v): %v", tt.value, err)
			continue
		}
		if out := el.String(); out != tt.want {
			t.Errorf("ValueElement(%v) = %s, want %s", tt.value, out, tt.want)
		}
	}
}

func TestValueArrayElementNulls(t *testing.T) {
	el, err := ValueArrayElement([]interface{}{types.Uint8(1), nil, types.Uint8(3)})
	if err != nil {
		t.Fatal(err)
	}
	out := el.String()
	for _, want := range []string{"<VALUE>1</VALUE>", "<VALUE.NULL/>", "<VALUE>3</VALUE>"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
	if strings.Index(out, "<VALUE.NULL/>") < strings.Index(out, "<VALUE>1</VALUE>") {
		t.Errorf("element order lost: %s", out)
	}
}

func TestValueReferenceForms(t *testing.T) {
	in := objects.NewInstanceName("CIM_Disk", objects.KeyBinding{Name: "ID", Value: "d0"})
	tests := []struct {
		name string
		ref  objects.ReferencePath
		want []string
	}{
		{
			"bare classname",
			objects.NewClassName("CIM_Disk"),
			[]string{`<CLASSNAME NAME="CIM_Disk"/>`},
		},
		{
			"local classpath",
			&objects.CIMClassName{Name: "CIM_Disk", Namespace: "root/cimv2"},
			[]string{"<LOCALCLASSPATH>", `<NAMESPACE NAME="root"/>`, `<NAMESPACE NAME="cimv2"/>`},
		},
		{
			"full classpath",
			&objects.CIMClassName{Name: "CIM_Disk", Namespace: "root/cimv2", Host: "srv1"},
			[]string{"<CLASSPATH>", "<HOST>srv1</HOST>"},
		},
		{
			"bare instancename",
			in,
			[]string{`<INSTANCENAME CLASSNAME="CIM_Disk">`, `<KEYBINDING NAME="ID">`},
		},
		{
			"local instancepath",
			&objects.CIMInstanceName{ClassName: "CIM_Disk", KeyBindings: in.KeyBindings, Namespace: "root/cimv2"},
			[]string{"<LOCALINSTANCEPATH>", "<LOCALNAMESPACEPATH>"},
		},
		{
			"full instancepath",
			&objects.CIMInstanceName{ClassName: "CIM_Disk", KeyBindings: in.KeyBindings, Namespace: "root/cimv2", Host: "srv1"},
			[]string{"<INSTANCEPATH>", "<NAMESPACEPATH>", "<HOST>srv1</HOST>"},
		},
	}
	for _, tt := range tests {
		el, err := ValueReferenceElement(tt.ref)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		out := el.String()
		if !strings.HasPrefix(out, "<VALUE.REFERENCE>") {
			t.Errorf("%s: not wrapped: %s", tt.name, out)
		}
		for _, want := range tt.want {
			if !strings.Contains(out, want) {
				t.Errorf("%s: missing %s in %s", tt.name, want, out)
			}
		}
	}
}

func TestValueReferenceHostWithoutNamespace(t *testing.T) {
	in := objects.NewInstanceName("CIM_Disk", objects.KeyBinding{Name: "ID", Value: "d0"})
	refs := []objects.ReferencePath{
		&objects.CIMClassName{Name: "CIM_Disk", Host: "srv1"},
		&objects.CIMInstanceName{ClassName: "CIM_Disk", KeyBindings: in.KeyBindings, Host: "srv1"},
	}
	for _, ref := range refs {
		if _, err := ValueReferenceElement(ref); err == nil {
			t.Errorf("%T with host but no namespace should not encode", ref)
		}
	}
}

func TestInstancePathElementRequiresNamespace(t *testing.T) {
	in := objects.NewInstanceName("CIM_Disk", objects.KeyBinding{Name: "ID", Value: "d0"})
	if _, err := InstancePathElement(in); err == nil {
		t.Error("instance path without namespace should not encode")
	}
}

func TestKeyValueElementAttributes(t *testing.T) {
	tests := []struct {
		value     interface{}
		valueType string
		cimType   string
	}{
		{"vol0", "string", "string"},
		{true, "boolean", "boolean"},
		{types.Uint32(7), "numeric", "uint32"},
		{types.Real64(1.5), "numeric", "real64"},
	}
	for _, tt := range tests {
		el, err := KeyValueElement(tt.value)
		if err != nil {
			t.Errorf("KeyValueElement(%v): %v", tt.value, err)
			continue
		}
		out := el.String()
		if !strings.Contains(out, `VALUETYPE="`+tt.valueType+`"`) {
			t.Errorf("VALUETYPE missing for %v: %s", tt.value, out)
		}
		if !strings.Contains(out, `TYPE="`+tt.cimType+`"`) {
			t.Errorf("TYPE missing for %v: %s", tt.value, out)
		}
	}
}

func TestInstanceNameElementEmptyClass(t *testing.T) {
	if _, err := InstanceNameElement(objects.NewInstanceName("")); err == nil {
		t.Error("expected error for empty class name")
	}
}

func TestPropertyElementFamilies(t *testing.T) {
	ref := objects.NewInstanceName("CIM_System", objects.KeyBinding{Name: "Name", Value: "s1"})
	tests := []struct {
		name string
		prop *objects.CIMProperty
		want []string
	}{
		{
			"scalar",
			objects.NewProperty("Size", types.TypeUint64, types.Uint64(1024)),
			[]string{`<PROPERTY NAME="Size" TYPE="uint64">`, "<VALUE>1024</VALUE>"},
		},
		{
			"null scalar keeps element without VALUE",
			objects.NewProperty("Size", types.TypeUint64, nil),
			[]string{`<PROPERTY NAME="Size" TYPE="uint64"/>`},
		},
		{
			"array",
			objects.NewProperty("IDs", types.TypeUint16,
				[]interface{}{types.Uint16(1), types.Uint16(2)}),
			[]string{"<PROPERTY.ARRAY", "<VALUE.ARRAY>", "<VALUE>2</VALUE>"},
		},
		{
			"reference",
			objects.NewReferenceProperty("System", "CIM_System", ref),
			[]string{`<PROPERTY.REFERENCE NAME="System" REFERENCECLASS="CIM_System">`,
				"<VALUE.REFERENCE>"},
		},
	}
	for _, tt := range tests {
		el, err := PropertyElement(tt.prop)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		out := el.String()
		for _, want := range tt.want {
			if !strings.Contains(out, want) {
				t.Errorf("%s: missing %s in %s", tt.name, want, out)
			}
		}
	}
}

func TestPropertyElementEmbeddedInstance(t *testing.T) {
	inner := objects.NewInstance("CIM_Error")
	inner.SetProperty(objects.NewProperty("Message", types.TypeString, "disk failed"))

	p := objects.NewProperty("LastError", types.TypeString, inner)
	p.Embedded = objects.EmbeddedInstance

	el, err := PropertyElement(p)
	if err != nil {
		t.Fatal(err)
	}
	out := el.String()
	if !strings.Contains(out, `EmbeddedObject="instance"`) {
		t.Errorf("missing EmbeddedObject attribute: %s", out)
	}
	if !strings.Contains(out, `TYPE="string"`) {
		t.Errorf("embedded payload must be string typed: %s", out)
	}
	// The nested markup travels escaped inside the VALUE text.
	if !strings.Contains(out, "&lt;INSTANCE CLASSNAME=") {
		t.Errorf("nested instance not escaped: %s", out)
	}
	if strings.Contains(out, `<INSTANCE CLASSNAME="CIM_Error"`) {
		t.Errorf("nested instance leaked as markup: %s", out)
	}
}

func TestQualifierElementFlavors(t *testing.T) {
	q := objects.NewQualifier("Key", types.TypeBoolean, true)
	el, err := QualifierElement(q)
	if err != nil {
		t.Fatal(err)
	}
	out := el.String()
	if strings.Contains(out, "OVERRIDABLE") || strings.Contains(out, "TOSUBCLASS") {
		t.Errorf("default flavors must stay implicit: %s", out)
	}

	q.Overridable = objects.Bool(false)
	q.Translatable = objects.Bool(true)
	el, err = QualifierElement(q)
	if err != nil {
		t.Fatal(err)
	}
	out = el.String()
	if !strings.Contains(out, `OVERRIDABLE="false"`) {
		t.Errorf("missing OVERRIDABLE: %s", out)
	}
	if !strings.Contains(out, `TRANSLATABLE="true"`) {
		t.Errorf("missing TRANSLATABLE: %s", out)
	}
}

func TestInstanceElementOrder(t *testing.T) {
	inst := objects.NewInstance("CIM_Disk")
	inst.SetQualifier(objects.NewQualifier("Description", types.TypeString, "a disk"))
	inst.SetProperty(objects.NewProperty("ID", types.TypeString, "d0"))
	inst.SetProperty(objects.NewProperty("Size", types.TypeUint64, types.Uint64(500)))

	el, err := InstanceElement(inst)
	if err != nil {
		t.Fatal(err)
	}
	out := el.String()
	qIdx := strings.Index(out, "<QUALIFIER")
	pIdx := strings.Index(out, "<PROPERTY")
	if qIdx < 0 || pIdx < 0 || qIdx > pIdx {
		t.Errorf("qualifiers must precede properties: %s", out)
	}
	if strings.Index(out, `NAME="ID"`) > strings.Index(out, `NAME="Size"`) {
		t.Errorf("property order lost: %s", out)
	}
}

func TestNamedInstanceElementRequiresPath(t *testing.T) {
	inst := objects.NewInstance("CIM_Disk")
	if _, err := NamedInstanceElement(inst); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestClassElement(t *testing.T) {
	cls := objects.NewClass("CIM_Disk")
	cls.SuperClass = "CIM_StorageExtent"
	cls.SetProperty(objects.NewProperty("ID", types.TypeString, nil))
	m := objects.NewMethod("Reset", types.TypeUint32)
	m.SetParameter(objects.NewParameter("Force", types.TypeBoolean))
	cls.SetMethod(m)

	el, err := ClassElement(cls)
	if err != nil {
		t.Fatal(err)
	}
	out := el.String()
	for _, want := range []string{
		`<CLASS NAME="CIM_Disk" SUPERCLASS="CIM_StorageExtent">`,
		`<METHOD NAME="Reset" TYPE="uint32">`,
		`<PARAMETER NAME="Force" TYPE="boolean"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestQualifierDeclarationElement(t *testing.T) {
	qd := &objects.CIMQualifierDeclaration{
		Name:   "Key",
		Type:   types.TypeBoolean,
		Value:  false,
		Scopes: objects.QualifierScopes{Property: true, Reference: true},
	}
	el, err := QualifierDeclarationElement(qd)
	if err != nil {
		t.Fatal(err)
	}
	out := el.String()
	if !strings.Contains(out, `PROPERTY="true"`) || !strings.Contains(out, `REFERENCE="true"`) {
		t.Errorf("missing scopes: %s", out)
	}
	if !strings.Contains(out, "<VALUE>FALSE</VALUE>") {
		t.Errorf("missing default value: %s", out)
	}
}
