package serialization

import (
	"testing"
	"unicode/utf8"

	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/types"
)

func FuzzParse(f *testing.F) {
	// Seed corpus with valid fragments of each grammar family
	f.Add(`<CLASSNAME NAME="CIM_Disk"/>`)
	f.Add(`<KEYVALUE VALUETYPE="numeric" TYPE="uint32">7</KEYVALUE>`)
	f.Add(`<VALUE.ARRAY><VALUE>1</VALUE><VALUE.NULL/></VALUE.ARRAY>`)
	f.Add(`<INSTANCE CLASSNAME="X"><PROPERTY NAME="A" TYPE="string"><VALUE>v</VALUE></PROPERTY></INSTANCE>`)
	f.Add(`<INSTANCENAME CLASSNAME="X"><KEYBINDING NAME="K"><KEYVALUE VALUETYPE="string">v</KEYVALUE></KEYBINDING></INSTANCENAME>`)
	f.Add(`<VALUE.REFERENCE><CLASSNAME NAME="X"/></VALUE.REFERENCE>`)
	f.Add(`<QUALIFIER.DECLARATION NAME="Key" TYPE="boolean"><SCOPE PROPERTY="true"/><VALUE>FALSE</VALUE></QUALIFIER.DECLARATION>`)

	// Edge cases
	f.Add(``)
	f.Add(`<`)
	f.Add(`<INSTANCE>`)
	f.Add(`<INSTANCE CLASSNAME="X"><QUALIFIER NAME="Q"/></INSTANCE>`)

	f.Fuzz(func(t *testing.T, data string) {
		// Must never panic; errors are fine
		_, _ = Parse([]byte(data))
	})
}

func FuzzInstanceRoundTrip(f *testing.F) {
	f.Add("CIM_Disk", "ID", "d0")
	f.Add("X", "weird prop", `a<b>&"c`)
	f.Add("Y", "", "")

	f.Fuzz(func(t *testing.T, className, propName, value string) {
		if className == "" || propName == "" {
			return // Skip names the encoder rejects by contract
		}
		// Skip inputs the XML escaper would rewrite (invalid UTF-8 and
		// characters outside the XML character range come back changed)
		if !xmlClean(className) || !xmlClean(propName) || !xmlClean(value) {
			return
		}
		inst := objects.NewInstance(className)
		inst.SetProperty(objects.NewProperty(propName, types.TypeString, value))

		el, err := InstanceElement(inst)
		if err != nil {
			return
		}
		decoded, err := Parse(el.Document())
		if err != nil {
			t.Fatalf("re-parse of encoded instance: %v", err)
		}
		got, ok := decoded.(*objects.CIMInstance)
		if !ok {
			t.Fatalf("decoded %T", decoded)
		}
		if !got.Equal(inst) {
			t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", inst, got)
		}
	})
}

func xmlClean(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		ok := r == 0x09 || r == 0x0A || r == 0x0D ||
			(r >= 0x20 && r <= 0xD7FF) ||
			(r >= 0xE000 && r <= 0xFFFD) ||
			(r >= 0x10000 && r <= 0x10FFFF)
		if !ok {
			return false
		}
	}
	return true
}
