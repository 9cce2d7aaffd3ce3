package objects

import (
	"strings"
	"testing"

	"github.com/smnsjas/go-wbem/types"
)

func TestInstanceNameString(t *testing.T) {
	in := NewInstanceName("CIM_Foo",
		KeyBinding{Name: "Name", Value: "disk0"},
		KeyBinding{Name: "Index", Value: types.Uint32(3)},
		KeyBinding{Name: "Primary", Value: true},
	)

	if got := in.String(); got != `CIM_Foo.Name="disk0",Index=3,Primary=true` {
		t.Errorf("String() = %q", got)
	}

	in.Namespace = "root/cimv2"
	in.Host = "server1"
	want := `//server1/root/cimv2:CIM_Foo.Name="disk0",Index=3,Primary=true`
	if got := in.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInstanceNameStringEscaping(t *testing.T) {
	in := NewInstanceName("CIM_Foo",
		KeyBinding{Name: "Path", Value: `C:\tmp\"x"`},
	)
	got := in.String()
	if !strings.Contains(got, `Path="C:\\tmp\\\"x\""`) {
		t.Errorf("backslashes and quotes not escaped: %q", got)
	}
}

func TestReferencePathString(t *testing.T) {
	paths := []ReferencePath{
		&CIMClassName{Name: "CIM_Disk", Namespace: "root/cimv2"},
		NewInstanceName("CIM_Disk", KeyBinding{Name: "Name", Value: "disk0"}),
	}
	want := []string{
		"root/cimv2:CIM_Disk",
		`CIM_Disk.Name="disk0"`,
	}
	for i, p := range paths {
		if got := p.String(); got != want[i] {
			t.Errorf("String() = %q, want %q", got, want[i])
		}
	}
}

func TestInstanceNameEqual(t *testing.T) {
	a := NewInstanceName("CIM_Foo", KeyBinding{Name: "Name", Value: "a"})
	b := NewInstanceName("cim_foo", KeyBinding{Name: "NAME", Value: "a"})
	c := NewInstanceName("CIM_Foo", KeyBinding{Name: "Name", Value: "b"})

	if !a.Equal(b) {
		t.Error("names differing only in case should be equal")
	}
	if a.Equal(c) {
		t.Error("different key values should not be equal")
	}

	b.Namespace = "root/cimv2"
	if a.Equal(b) {
		t.Error("namespace-qualified path should not equal unqualified one")
	}
}

func TestInstancePathValidation(t *testing.T) {
	inst := NewInstance("CIM_Foo")
	inst.SetProperty(NewProperty("Name", types.TypeString, "a"))
	inst.Path = NewInstanceName("CIM_Foo", KeyBinding{Name: "NAME", Value: "a"})

	if err := inst.ValidatePath(); err != nil {
		t.Errorf("matching path should validate: %v", err)
	}

	inst.Path.SetKey("NAME", "b")
	if err := inst.ValidatePath(); err == nil {
		t.Error("disagreeing key value should fail validation")
	}

	inst.Path = NewInstanceName("CIM_Foo", KeyBinding{Name: "Other", Value: "x"})
	if err := inst.ValidatePath(); err == nil {
		t.Error("key without matching property should fail validation")
	}

	inst.Path = nil
	if err := inst.ValidatePath(); err != nil {
		t.Errorf("pathless instance should validate: %v", err)
	}
}

func TestInstanceEqual(t *testing.T) {
	build := func() *CIMInstance {
		inst := NewInstance("CIM_Foo")
		p := NewProperty("Count", types.TypeUint32, types.Uint32(7))
		p.SetQualifier(NewQualifier("Key", types.TypeBoolean, true))
		inst.SetProperty(p)
		inst.SetProperty(NewProperty("Name", types.TypeString, "a"))
		return inst
	}

	a, b := build(), build()
	if !a.Equal(b) {
		t.Error("identically built instances should be equal")
	}

	// Property order matters.
	c := NewInstance("CIM_Foo")
	c.SetProperty(NewProperty("Name", types.TypeString, "a"))
	p := NewProperty("Count", types.TypeUint32, types.Uint32(7))
	p.SetQualifier(NewQualifier("Key", types.TypeBoolean, true))
	c.SetProperty(p)
	if a.Equal(c) {
		t.Error("different property order should not be equal")
	}

	// NULL value vs empty string.
	d, e := build(), build()
	dn, _ := d.Property("Name")
	dn.Value = nil
	en, _ := e.Property("Name")
	en.Value = ""
	if d.Equal(e) {
		t.Error("NULL property must differ from empty string property")
	}
}

func TestQualifierFlavorDefaults(t *testing.T) {
	q := NewQualifier("Description", types.TypeString, "text")
	o, s, i, tr := q.EffectiveFlavors()
	if !o || !s || i || tr {
		t.Errorf("default flavors: %v %v %v %v, want true true false false", o, s, i, tr)
	}

	// Stating a flag at its default keeps equality with the unstated form.
	stated := NewQualifier("Description", types.TypeString, "text")
	stated.Overridable = Bool(true)
	if !q.Equal(stated) {
		t.Error("explicitly stated default flavor should compare equal")
	}

	stated.Overridable = Bool(false)
	if q.Equal(stated) {
		t.Error("non-default flavor should not compare equal")
	}
}

func TestClassEqual(t *testing.T) {
	build := func() *CIMClass {
		cls := NewClass("CIM_Foo")
		cls.SuperClass = "CIM_Base"
		cls.SetProperty(NewProperty("Name", types.TypeString, nil))
		m := NewMethod("Reset", types.TypeUint32)
		m.SetParameter(NewParameter("Force", types.TypeBoolean))
		cls.SetMethod(m)
		return cls
	}

	a, b := build(), build()
	if !a.Equal(b) {
		t.Error("identically built classes should be equal")
	}

	b.SuperClass = "Other"
	if a.Equal(b) {
		t.Error("different superclass should not be equal")
	}
}

func TestEqualValuesArraysAndReferences(t *testing.T) {
	a := []interface{}{types.Uint8(1), types.Uint8(2)}
	b := []interface{}{types.Uint8(1), types.Uint8(2)}
	if !EqualValues(a, b) {
		t.Error("equal arrays should compare equal")
	}
	if EqualValues(a, []interface{}{types.Uint8(1)}) {
		t.Error("different lengths should not compare equal")
	}

	r1 := NewInstanceName("CIM_Foo", KeyBinding{Name: "Name", Value: "a"})
	r2 := NewInstanceName("cim_foo", KeyBinding{Name: "name", Value: "a"})
	if !EqualValues(r1, r2) {
		t.Error("case-insensitively equal references should compare equal")
	}

	dt1, _ := types.ParseDateTime("20140924193040.654321+120")
	dt2, _ := types.ParseDateTime("20140924193040.654321+120")
	if !EqualValues(dt1, dt2) {
		t.Error("equal datetimes should compare equal")
	}
}
