package serialization

import (
	"errors"
	"strings"
	"testing"

	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/types"
)

func mustParse(t *testing.T, xml string) interface{} {
	t.Helper()
	v, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse(%s): %v", xml, err)
	}
	return v
}

func TestParseInstance(t *testing.T) {
	const doc = `<INSTANCE CLASSNAME="CIM_Disk">
		<QUALIFIER NAME="Description" TYPE="string"><VALUE>a disk</VALUE></QUALIFIER>
		<PROPERTY NAME="ID" TYPE="string"><VALUE>disk0</VALUE></PROPERTY>
		<PROPERTY NAME="Size" TYPE="uint64"><VALUE>1024</VALUE></PROPERTY>
		<PROPERTY NAME="Caption" TYPE="string"/>
		<PROPERTY.ARRAY NAME="BlockSizes" TYPE="uint16">
			<VALUE.ARRAY><VALUE>512</VALUE><VALUE.NULL/><VALUE>4096</VALUE></VALUE.ARRAY>
		</PROPERTY.ARRAY>
	</INSTANCE>`

	inst, ok := mustParse(t, doc).(*objects.CIMInstance)
	if !ok {
		t.Fatal("not a CIMInstance")
	}
	if inst.ClassName != "CIM_Disk" {
		t.Errorf("class name: %s", inst.ClassName)
	}
	if inst.Properties.Len() != 4 {
		t.Fatalf("property count: %d", inst.Properties.Len())
	}

	id, _ := inst.Properties.Get("id")
	if id == nil || id.Value != "disk0" {
		t.Errorf("ID lookup (case folded): %+v", id)
	}
	size, _ := inst.Properties.Get("Size")
	if size.Value != types.Uint64(1024) {
		t.Errorf("Size: %v (%T)", size.Value, size.Value)
	}
	caption, _ := inst.Properties.Get("Caption")
	if caption.Value != nil {
		t.Errorf("missing VALUE must decode to nil, got %v", caption.Value)
	}
	blocks, _ := inst.Properties.Get("BlockSizes")
	want := []interface{}{types.Uint16(512), nil, types.Uint16(4096)}
	if !objects.EqualValues(blocks.Value, want) {
		t.Errorf("BlockSizes: %v", blocks.Value)
	}

	q, _ := inst.Qualifiers.Get("Description")
	if q == nil || q.Value != "a disk" {
		t.Errorf("qualifier: %+v", q)
	}
}

func TestParseInstanceNullVersusEmpty(t *testing.T) {
	inst := mustParse(t, `<INSTANCE CLASSNAME="X">
		<PROPERTY NAME="A" TYPE="string"><VALUE></VALUE></PROPERTY>
		<PROPERTY NAME="B" TYPE="string"/>
	</INSTANCE>`).(*objects.CIMInstance)

	a, _ := inst.Properties.Get("A")
	if a.Value != "" {
		t.Errorf("empty VALUE: %v (%T)", a.Value, a.Value)
	}
	b, _ := inst.Properties.Get("B")
	if b.Value != nil {
		t.Errorf("absent VALUE: %v", b.Value)
	}
}

func TestParseInstanceQualifierAfterProperty(t *testing.T) {
	_, err := Parse([]byte(`<INSTANCE CLASSNAME="X">
		<PROPERTY NAME="A" TYPE="string"/>
		<QUALIFIER NAME="Q" TYPE="boolean"><VALUE>TRUE</VALUE></QUALIFIER>
	</INSTANCE>`))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(pe.Found, "QUALIFIER") {
		t.Errorf("error should name the stray element: %v", pe)
	}
}

func TestParseInstanceNameForms(t *testing.T) {
	in := mustParse(t, `<INSTANCENAME CLASSNAME="CIM_Disk">
		<KEYBINDING NAME="SystemName"><KEYVALUE VALUETYPE="string">srv1</KEYVALUE></KEYBINDING>
		<KEYBINDING NAME="DeviceID"><KEYVALUE VALUETYPE="numeric" TYPE="uint32">7</KEYVALUE></KEYBINDING>
	</INSTANCENAME>`).(*objects.CIMInstanceName)

	if v, _ := in.Key("SystemName"); v != "srv1" {
		t.Errorf("SystemName: %v", v)
	}
	if v, _ := in.Key("DeviceID"); v != types.Uint32(7) {
		t.Errorf("TYPE attribute must win: %v (%T)", v, v)
	}

	// Singleton key classes may carry a bare KEYVALUE.
	in = mustParse(t, `<INSTANCENAME CLASSNAME="CIM_Singleton">
		<KEYVALUE VALUETYPE="numeric">-5</KEYVALUE>
	</INSTANCENAME>`).(*objects.CIMInstanceName)
	if v, _ := in.Key(""); v != types.Sint64(-5) {
		t.Errorf("bare keyvalue: %v (%T)", v, v)
	}
}

func TestParseInstanceNameMissingClassName(t *testing.T) {
	_, err := Parse([]byte(`<INSTANCENAME><KEYVALUE VALUETYPE="string">x</KEYVALUE></INSTANCENAME>`))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(pe.Expected, "CLASSNAME") {
		t.Errorf("error should name the missing attribute: %v", pe)
	}
}

func TestParseKeyValueTyping(t *testing.T) {
	tests := []struct {
		xml  string
		want interface{}
	}{
		{`<KEYVALUE VALUETYPE="string">hello</KEYVALUE>`, "hello"},
		{`<KEYVALUE VALUETYPE="boolean">true</KEYVALUE>`, true},
		{`<KEYVALUE VALUETYPE="numeric">42</KEYVALUE>`, types.Sint64(42)},
		{`<KEYVALUE VALUETYPE="numeric">18446744073709551615</KEYVALUE>`, types.Uint64(18446744073709551615)},
		{`<KEYVALUE VALUETYPE="numeric">2.5</KEYVALUE>`, types.Real64(2.5)},
		{`<KEYVALUE VALUETYPE="numeric" TYPE="sint8">-4</KEYVALUE>`, types.Sint8(-4)},
	}
	for _, tt := range tests {
		got := mustParse(t, tt.xml)
		if got != tt.want {
			t.Errorf("%s = %v (%T), want %v (%T)", tt.xml, got, got, tt.want, tt.want)
		}
	}
}

func TestParseKeyValueBadNumeric(t *testing.T) {
	_, err := Parse([]byte(`<KEYVALUE VALUETYPE="numeric">abc</KEYVALUE>`))
	var fe *types.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestParseValueReference(t *testing.T) {
	ref := mustParse(t, `<VALUE.REFERENCE>
		<INSTANCEPATH>
			<NAMESPACEPATH>
				<HOST>srv1</HOST>
				<LOCALNAMESPACEPATH>
					<NAMESPACE NAME="root"/><NAMESPACE NAME="cimv2"/>
				</LOCALNAMESPACEPATH>
			</NAMESPACEPATH>
			<INSTANCENAME CLASSNAME="CIM_Disk">
				<KEYBINDING NAME="ID"><KEYVALUE VALUETYPE="string">d0</KEYVALUE></KEYBINDING>
			</INSTANCENAME>
		</INSTANCEPATH>
	</VALUE.REFERENCE>`)

	in, ok := ref.(*objects.CIMInstanceName)
	if !ok {
		t.Fatalf("not an instance name: %T", ref)
	}
	if in.Host != "srv1" || in.Namespace != "root/cimv2" || in.ClassName != "CIM_Disk" {
		t.Errorf("path fields: %+v", in)
	}
}

func TestParseClass(t *testing.T) {
	cls := mustParse(t, `<CLASS NAME="CIM_Disk" SUPERCLASS="CIM_StorageExtent">
		<QUALIFIER NAME="Version" TYPE="string" TRANSLATABLE="true"><VALUE>2.6.0</VALUE></QUALIFIER>
		<PROPERTY NAME="ID" TYPE="string">
			<QUALIFIER NAME="Key" TYPE="boolean" OVERRIDABLE="false"><VALUE>TRUE</VALUE></QUALIFIER>
		</PROPERTY>
		<METHOD NAME="Reset" TYPE="uint32">
			<PARAMETER NAME="Force" TYPE="boolean"/>
			<PARAMETER.REFERENCE NAME="Target" REFERENCECLASS="CIM_System"/>
		</METHOD>
	</CLASS>`).(*objects.CIMClass)

	if cls.SuperClass != "CIM_StorageExtent" {
		t.Errorf("superclass: %s", cls.SuperClass)
	}
	q, _ := cls.Qualifiers.Get("Version")
	if q.Translatable == nil || !*q.Translatable {
		t.Errorf("translatable flavor: %+v", q)
	}
	id, _ := cls.Properties.Get("ID")
	key, _ := id.Qualifiers.Get("Key")
	if key.Overridable == nil || *key.Overridable {
		t.Errorf("overridable flavor: %+v", key)
	}
	m, _ := cls.Methods.Get("Reset")
	if m.ReturnType != types.TypeUint32 || m.Parameters.Len() != 2 {
		t.Errorf("method: %+v", m)
	}
	target, _ := m.Parameters.Get("Target")
	if target.Type != types.TypeReference || target.ReferenceClass != "CIM_System" {
		t.Errorf("reference parameter: %+v", target)
	}
}

func TestParseQualifierDeclaration(t *testing.T) {
	qd := mustParse(t, `<QUALIFIER.DECLARATION NAME="Key" TYPE="boolean" OVERRIDABLE="false">
		<SCOPE PROPERTY="true" REFERENCE="true"/>
		<VALUE>FALSE</VALUE>
	</QUALIFIER.DECLARATION>`).(*objects.CIMQualifierDeclaration)

	if !qd.Scopes.Property || !qd.Scopes.Reference || qd.Scopes.Class {
		t.Errorf("scopes: %+v", qd.Scopes)
	}
	if qd.Value != false {
		t.Errorf("value: %v", qd.Value)
	}
	if qd.Overridable == nil || *qd.Overridable {
		t.Errorf("flavor: %+v", qd.Overridable)
	}
}

func TestParseNamedInstancePathSync(t *testing.T) {
	const good = `<VALUE.NAMEDINSTANCE>
		<INSTANCENAME CLASSNAME="CIM_Disk">
			<KEYBINDING NAME="ID"><KEYVALUE VALUETYPE="string">d0</KEYVALUE></KEYBINDING>
		</INSTANCENAME>
		<INSTANCE CLASSNAME="CIM_Disk">
			<PROPERTY NAME="ID" TYPE="string"><VALUE>d0</VALUE></PROPERTY>
		</INSTANCE>
	</VALUE.NAMEDINSTANCE>`
	inst := mustParse(t, good).(*objects.CIMInstance)
	if inst.Path == nil || inst.Path.ClassName != "CIM_Disk" {
		t.Fatalf("path not attached: %+v", inst.Path)
	}

	const mismatched = `<VALUE.NAMEDINSTANCE>
		<INSTANCENAME CLASSNAME="CIM_Disk">
			<KEYBINDING NAME="ID"><KEYVALUE VALUETYPE="string">other</KEYVALUE></KEYBINDING>
		</INSTANCENAME>
		<INSTANCE CLASSNAME="CIM_Disk">
			<PROPERTY NAME="ID" TYPE="string"><VALUE>d0</VALUE></PROPERTY>
		</INSTANCE>
	</VALUE.NAMEDINSTANCE>`
	var pe *ParseError
	if _, err := Parse([]byte(mismatched)); !errors.As(err, &pe) {
		t.Errorf("expected ParseError on key mismatch, got %v", err)
	}
}

func TestParseNamedInstanceUntypedKey(t *testing.T) {
	// Keyvalues without a TYPE attribute decode to the widest integer type;
	// the path check must still accept them against a narrower property.
	const doc = `<VALUE.NAMEDINSTANCE>
		<INSTANCENAME CLASSNAME="CIM_Fan">
			<KEYBINDING NAME="Index"><KEYVALUE VALUETYPE="numeric">3</KEYVALUE></KEYBINDING>
		</INSTANCENAME>
		<INSTANCE CLASSNAME="CIM_Fan">
			<PROPERTY NAME="Index" TYPE="uint16"><VALUE>3</VALUE></PROPERTY>
		</INSTANCE>
	</VALUE.NAMEDINSTANCE>`
	inst := mustParse(t, doc).(*objects.CIMInstance)
	if inst.Path == nil {
		t.Fatal("path not attached")
	}
}

func TestParseEmbeddedInstanceProperty(t *testing.T) {
	inner := objects.NewInstance("CIM_Error")
	inner.SetProperty(objects.NewProperty("Message", types.TypeString, "disk failed"))

	outer := objects.NewInstance("CIM_Disk")
	p := objects.NewProperty("LastError", types.TypeString, inner)
	p.Embedded = objects.EmbeddedInstance
	outer.SetProperty(p)

	el, err := InstanceElement(outer)
	if err != nil {
		t.Fatal(err)
	}
	decoded := mustParse(t, el.String()).(*objects.CIMInstance)
	got, _ := decoded.Properties.Get("LastError")
	gotInner, ok := got.Value.(*objects.CIMInstance)
	if !ok {
		t.Fatalf("embedded value: %T", got.Value)
	}
	if !gotInner.Equal(inner) {
		t.Errorf("embedded instance mismatch: %+v", gotInner)
	}
}

func TestParseUnknownRoot(t *testing.T) {
	var pe *ParseError
	if _, err := Parse([]byte(`<BOGUS/>`)); !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestParseSkipsPrologAndComments(t *testing.T) {
	v := mustParse(t, `<?xml version="1.0" encoding="utf-8" ?>
	<!-- a comment -->
	<CLASSNAME NAME="CIM_Disk"/>`)
	cn, ok := v.(*objects.CIMClassName)
	if !ok || cn.Name != "CIM_Disk" {
		t.Errorf("got %v (%T)", v, v)
	}
}

func TestRoundTripInstance(t *testing.T) {
	inst := objects.NewInstance("CIM_Disk")
	inst.SetQualifier(objects.NewQualifier("Description", types.TypeString, "a disk"))
	inst.SetProperty(objects.NewProperty("ID", types.TypeString, "d<0>&"))
	inst.SetProperty(objects.NewProperty("Size", types.TypeUint64, types.Uint64(1024)))
	inst.SetProperty(objects.NewProperty("Online", types.TypeBoolean, true))
	inst.SetProperty(objects.NewProperty("Missing", types.TypeString, nil))
	inst.SetProperty(objects.NewProperty("Temps", types.TypeReal32,
		[]interface{}{types.Real32(35.5), nil, types.Real32(40)}))

	dt, err := types.ParseDateTime("20140924193040.654321+120")
	if err != nil {
		t.Fatal(err)
	}
	inst.SetProperty(objects.NewProperty("InstallDate", types.TypeDateTime, dt))

	el, err := InstanceElement(inst)
	if err != nil {
		t.Fatal(err)
	}
	decoded := mustParse(t, el.String()).(*objects.CIMInstance)
	if !decoded.Equal(inst) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", inst, decoded)
	}
}

func TestRoundTripNamedInstance(t *testing.T) {
	inst := objects.NewInstance("CIM_Disk")
	inst.SetProperty(objects.NewProperty("ID", types.TypeString, "d0"))
	inst.Path = objects.NewInstanceName("CIM_Disk",
		objects.KeyBinding{Name: "ID", Value: "d0"})

	el, err := NamedInstanceElement(inst)
	if err != nil {
		t.Fatal(err)
	}
	decoded := mustParse(t, el.String()).(*objects.CIMInstance)
	if !decoded.Equal(inst) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", inst, decoded)
	}
}

func TestRoundTripClass(t *testing.T) {
	cls := objects.NewClass("CIM_Disk")
	cls.SuperClass = "CIM_StorageExtent"
	key := objects.NewQualifier("Key", types.TypeBoolean, true)
	key.Overridable = objects.Bool(false)
	id := objects.NewProperty("ID", types.TypeString, nil)
	id.SetQualifier(key)
	cls.SetProperty(id)
	cls.SetProperty(objects.NewProperty("Size", types.TypeUint64, nil))

	m := objects.NewMethod("Reset", types.TypeUint32)
	m.SetParameter(objects.NewParameter("Force", types.TypeBoolean))
	ref := objects.NewParameter("Target", types.TypeReference)
	ref.ReferenceClass = "CIM_System"
	m.SetParameter(ref)
	cls.SetMethod(m)

	el, err := ClassElement(cls)
	if err != nil {
		t.Fatal(err)
	}
	decoded := mustParse(t, el.String()).(*objects.CIMClass)
	if !decoded.Equal(cls) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", cls, decoded)
	}
}

func TestRoundTripQualifierDeclaration(t *testing.T) {
	qd := &objects.CIMQualifierDeclaration{
		Name:        "Key",
		Type:        types.TypeBoolean,
		Value:       false,
		Scopes:      objects.QualifierScopes{Property: true, Reference: true},
		Overridable: objects.Bool(false),
	}
	el, err := QualifierDeclarationElement(qd)
	if err != nil {
		t.Fatal(err)
	}
	decoded := mustParse(t, el.String()).(*objects.CIMQualifierDeclaration)
	if !decoded.Equal(qd) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", qd, decoded)
	}
}

func TestRoundTripReferenceProperty(t *testing.T) {
	target := objects.NewInstanceName("CIM_System",
		objects.KeyBinding{Name: "Name", Value: "srv1"})
	target.Namespace = "root/cimv2"

	inst := objects.NewInstance("CIM_Mount")
	inst.SetProperty(objects.NewReferenceProperty("System", "CIM_System", target))

	el, err := InstanceElement(inst)
	if err != nil {
		t.Fatal(err)
	}
	decoded := mustParse(t, el.String()).(*objects.CIMInstance)
	if !decoded.Equal(inst) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", inst, decoded)
	}
}
