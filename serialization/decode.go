package serialization

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/types"
)

// ParseError reports a CIM-XML grammar violation: an unexpected element or
// event at a decision point, or a missing required attribute. A ParseError
// aborts the decode of the whole document.
type ParseError struct {
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cim-xml parse error: expected %s, found %s", e.Expected, e.Found)
}

func parseErr(expected, found string) error {
	return &ParseError{Expected: expected, Found: found}
}

// Decoder is a pull parser over the CIM-XML element grammar.
//
// Every parse method observes the same cursor contract: it is entered
// exactly at the start tag of its element and returns with that element's
// end tag consumed, never more and never less. Callers chain siblings by
// calling NextStart again after a nested parse returns.
//
// A Decoder holds no state besides the cursor; construct one per document.
type Decoder struct {
	d *xml.Decoder
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{d: xml.NewDecoder(r)}
}

// Parse decodes a self-contained CIM-XML fragment: the root element's tag
// selects the parser, and the resulting object-model value is returned.
// Unrecognized root tags and grammar violations yield a *ParseError.
func Parse(data []byte) (interface{}, error) {
	// Strip a UTF-8 BOM if present.
	data = bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})
	d := NewDecoder(bytes.NewReader(data))
	se, err := d.ExpectStart()
	if err != nil {
		return nil, err
	}
	return d.ParseElement(se)
}

// next returns the next structural token, skipping comments, processing
// instructions, directives and whitespace-only character data.
func (d *Decoder) next() (xml.Token, error) {
	for {
		tok, err := d.d.Token()
		if err != nil {
			if err == io.EOF {
				return nil, parseErr("more content", "end of document")
			}
			return nil, fmt.Errorf("cim-xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst, xml.Directive:
			continue
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			return tok, nil
		default:
			return tok, nil
		}
	}
}

// ExpectStart consumes the next token, which must be a start tag. With
// names given, the tag must match one of them (tag matching folds case).
func (d *Decoder) ExpectStart(names ...string) (xml.StartElement, error) {
	tok, err := d.next()
	if err != nil {
		return xml.StartElement{}, err
	}
	se, ok := tok.(xml.StartElement)
	if !ok {
		return xml.StartElement{}, parseErr(expectNames(names), tokenDesc(tok))
	}
	if len(names) == 0 {
		return se, nil
	}
	for _, n := range names {
		if tagIs(se, n) {
			return se, nil
		}
	}
	return xml.StartElement{}, parseErr(expectNames(names), "element "+se.Name.Local)
}

// ExpectEnd consumes the next token, which must be the end tag of name.
func (d *Decoder) ExpectEnd(name string) error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	ee, ok := tok.(xml.EndElement)
	if !ok || !strings.EqualFold(ee.Name.Local, name) {
		return parseErr("end of "+name, tokenDesc(tok))
	}
	return nil
}

// NextStart returns the next child start tag of the element whose end tag
// is parentEnd. It reports false with the end tag consumed when the parent
// closes. Any other event is a grammar violation.
func (d *Decoder) NextStart(parentEnd string) (xml.StartElement, bool, error) {
	tok, err := d.next()
	if err != nil {
		return xml.StartElement{}, false, err
	}
	switch t := tok.(type) {
	case xml.StartElement:
		return t, true, nil
	case xml.EndElement:
		if strings.EqualFold(t.Name.Local, parentEnd) {
			return xml.StartElement{}, false, nil
		}
		return xml.StartElement{}, false, parseErr("end of "+parentEnd, "end of "+t.Name.Local)
	}
	return xml.StartElement{}, false, parseErr("child element or end of "+parentEnd, tokenDesc(tok))
}

// Text consumes character data up to and including the end tag of endName.
// Child elements inside text content are grammar violations.
func (d *Decoder) Text(endName string) (string, error) {
	var b strings.Builder
	for {
		tok, err := d.d.Token()
		if err != nil {
			if err == io.EOF {
				return "", parseErr("end of "+endName, "end of document")
			}
			return "", fmt.Errorf("cim-xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if !strings.EqualFold(t.Name.Local, endName) {
				return "", parseErr("end of "+endName, "end of "+t.Name.Local)
			}
			return b.String(), nil
		case xml.StartElement:
			return "", parseErr("character data in "+endName, "element "+t.Name.Local)
		case xml.Comment, xml.ProcInst, xml.Directive:
			continue
		}
	}
}

func tagIs(se xml.StartElement, name string) bool {
	return strings.EqualFold(se.Name.Local, name)
}

func tokenDesc(tok xml.Token) string {
	switch t := tok.(type) {
	case xml.StartElement:
		return "element " + t.Name.Local
	case xml.EndElement:
		return "end of " + t.Name.Local
	case xml.CharData:
		return fmt.Sprintf("character data %.20q", string(t))
	}
	return fmt.Sprintf("%T", tok)
}

func expectNames(names []string) string {
	if len(names) == 0 {
		return "an element"
	}
	return "element " + strings.Join(names, " or ")
}

// AttrValue returns the value of an attribute of se, folding case on the
// attribute name.
func AttrValue(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

// RequiredAttr is AttrValue turning absence into a *ParseError.
func RequiredAttr(se xml.StartElement, name string) (string, error) {
	v, ok := AttrValue(se, name)
	if !ok {
		return "", parseErr(name+" attribute on "+se.Name.Local, "no such attribute")
	}
	return v, nil
}

func boolAttr(se xml.StartElement, name string) (*bool, error) {
	v, ok := AttrValue(se, name)
	if !ok {
		return nil, nil
	}
	switch strings.ToLower(v) {
	case "true":
		return objects.Bool(true), nil
	case "false":
		return objects.Bool(false), nil
	}
	return nil, parseErr("true or false in "+name+" attribute", strconv.Quote(v))
}

func flagAttr(se xml.StartElement, name string) (bool, error) {
	b, err := boolAttr(se, name)
	if err != nil {
		return false, err
	}
	return b != nil && *b, nil
}

type parseFunc func(d *Decoder, se xml.StartElement) (interface{}, error)

// parsers maps an element tag to its parse function. Built once; tags are
// looked up case-insensitively via ToUpper.
var parsers map[string]parseFunc

func init() {
	parsers = map[string]parseFunc{
		"VALUE":                 (*Decoder).parseValueAny,
		"VALUE.ARRAY":           (*Decoder).parseValueArrayAny,
		"VALUE.REFERENCE":       (*Decoder).parseValueReferenceAny,
		"VALUE.REFARRAY":        (*Decoder).parseValueRefArrayAny,
		"VALUE.NAMEDINSTANCE":   (*Decoder).parseValueNamedInstanceAny,
		"VALUE.OBJECTWITHPATH":  (*Decoder).parseValueObjectWithPathAny,
		"CLASSNAME":             (*Decoder).parseClassNameAny,
		"INSTANCENAME":          (*Decoder).parseInstanceNameAny,
		"INSTANCE":              (*Decoder).parseInstanceAny,
		"CLASS":                 (*Decoder).parseClassAny,
		"QUALIFIER":             (*Decoder).parseQualifierAny,
		"QUALIFIER.DECLARATION": (*Decoder).parseQualifierDeclarationAny,
		"PROPERTY":              (*Decoder).parsePropertyAny,
		"PROPERTY.ARRAY":        (*Decoder).parsePropertyAny,
		"PROPERTY.REFERENCE":    (*Decoder).parsePropertyAny,
		"PROPERTY.REFARRAY":     (*Decoder).parsePropertyAny,
		"METHOD":                (*Decoder).parseMethodAny,
		"PARAMETER":             (*Decoder).parseParameterAny,
		"PARAMETER.ARRAY":       (*Decoder).parseParameterAny,
		"PARAMETER.REFERENCE":   (*Decoder).parseParameterAny,
		"PARAMETER.REFARRAY":    (*Decoder).parseParameterAny,
		"INSTANCEPATH":          (*Decoder).parseInstancePathAny,
		"LOCALINSTANCEPATH":     (*Decoder).parseLocalInstancePathAny,
		"CLASSPATH":             (*Decoder).parseClassPathAny,
		"LOCALCLASSPATH":        (*Decoder).parseLocalClassPathAny,
		"OBJECTPATH":            (*Decoder).parseObjectPathAny,
		"KEYVALUE":              (*Decoder).parseKeyValueAny,
	}
}

// ParseElement dispatches se to the parser registered for its tag. The
// cursor contract applies: se's subtree is consumed exactly.
func (d *Decoder) ParseElement(se xml.StartElement) (interface{}, error) {
	fn, ok := parsers[strings.ToUpper(se.Name.Local)]
	if !ok {
		return nil, parseErr("a CIM-XML element", "element "+se.Name.Local)
	}
	return fn(d, se)
}

// ---- VALUE family ----

func (d *Decoder) parseValueAny(se xml.StartElement) (interface{}, error) {
	return d.Text("VALUE")
}

func (d *Decoder) parseValueArrayAny(se xml.StartElement) (interface{}, error) {
	return d.parseValueArrayRaw()
}

// parseValueArrayRaw returns the raw texts of a VALUE.ARRAY; VALUE.NULL
// entries decode to nil.
func (d *Decoder) parseValueArrayRaw() ([]interface{}, error) {
	vals := []interface{}{}
	for {
		child, ok, err := d.NextStart("VALUE.ARRAY")
		if err != nil {
			return nil, err
		}
		if !ok {
			return vals, nil
		}
		switch {
		case tagIs(child, "VALUE"):
			text, err := d.Text("VALUE")
			if err != nil {
				return nil, err
			}
			vals = append(vals, text)
		case tagIs(child, "VALUE.NULL"):
			if err := d.skipEmpty(child); err != nil {
				return nil, err
			}
			vals = append(vals, nil)
		default:
			return nil, parseErr("element VALUE or VALUE.NULL", "element "+child.Name.Local)
		}
	}
}

// skipEmpty consumes the end tag of an element that must have no content.
func (d *Decoder) skipEmpty(se xml.StartElement) error {
	return d.ExpectEnd(se.Name.Local)
}

func (d *Decoder) parseValueReferenceAny(se xml.StartElement) (interface{}, error) {
	return d.parseValueReference()
}

// parseValueReference consumes VALUE.REFERENCE content: exactly one of the
// six path-bearing alternatives.
func (d *Decoder) parseValueReference() (objects.ReferencePath, error) {
	child, err := d.ExpectStart("CLASSPATH", "LOCALCLASSPATH", "CLASSNAME",
		"INSTANCEPATH", "LOCALINSTANCEPATH", "INSTANCENAME")
	if err != nil {
		return nil, err
	}
	ref, err := d.parseReferenceTarget(child)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("VALUE.REFERENCE"); err != nil {
		return nil, err
	}
	return ref, nil
}

func (d *Decoder) parseReferenceTarget(se xml.StartElement) (objects.ReferencePath, error) {
	switch {
	case tagIs(se, "CLASSPATH"):
		return d.parseClassPath(se)
	case tagIs(se, "LOCALCLASSPATH"):
		return d.parseLocalClassPath(se)
	case tagIs(se, "CLASSNAME"):
		return d.parseClassName(se)
	case tagIs(se, "INSTANCEPATH"):
		return d.parseInstancePath(se)
	case tagIs(se, "LOCALINSTANCEPATH"):
		return d.parseLocalInstancePath(se)
	case tagIs(se, "INSTANCENAME"):
		return d.parseInstanceName(se)
	}
	return nil, parseErr("a path element", "element "+se.Name.Local)
}

func (d *Decoder) parseValueRefArrayAny(se xml.StartElement) (interface{}, error) {
	return d.parseValueRefArray()
}

func (d *Decoder) parseValueRefArray() ([]interface{}, error) {
	vals := []interface{}{}
	for {
		child, ok, err := d.NextStart("VALUE.REFARRAY")
		if err != nil {
			return nil, err
		}
		if !ok {
			return vals, nil
		}
		if !tagIs(child, "VALUE.REFERENCE") {
			return nil, parseErr("element VALUE.REFERENCE", "element "+child.Name.Local)
		}
		ref, err := d.parseValueReference()
		if err != nil {
			return nil, err
		}
		vals = append(vals, ref)
	}
}

// ---- paths ----

func (d *Decoder) parseClassNameAny(se xml.StartElement) (interface{}, error) {
	return d.parseClassName(se)
}

func (d *Decoder) parseClassName(se xml.StartElement) (*objects.CIMClassName, error) {
	name, err := RequiredAttr(se, "NAME")
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("CLASSNAME"); err != nil {
		return nil, err
	}
	return objects.NewClassName(name), nil
}

// parseLocalNamespacePath joins the NAMESPACE segments with "/".
func (d *Decoder) parseLocalNamespacePath(se xml.StartElement) (string, error) {
	var segs []string
	for {
		child, ok, err := d.NextStart("LOCALNAMESPACEPATH")
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		if !tagIs(child, "NAMESPACE") {
			return "", parseErr("element NAMESPACE", "element "+child.Name.Local)
		}
		name, err := RequiredAttr(child, "NAME")
		if err != nil {
			return "", err
		}
		if err := d.skipEmpty(child); err != nil {
			return "", err
		}
		segs = append(segs, name)
	}
	if len(segs) == 0 {
		return "", parseErr("at least one NAMESPACE", "empty LOCALNAMESPACEPATH")
	}
	return strings.Join(segs, "/"), nil
}

// parseNamespacePath consumes NAMESPACEPATH (HOST + LOCALNAMESPACEPATH).
func (d *Decoder) parseNamespacePath(se xml.StartElement) (host, namespace string, err error) {
	if _, err := d.ExpectStart("HOST"); err != nil {
		return "", "", err
	}
	host, err = d.Text("HOST")
	if err != nil {
		return "", "", err
	}
	lnp, err := d.ExpectStart("LOCALNAMESPACEPATH")
	if err != nil {
		return "", "", err
	}
	namespace, err = d.parseLocalNamespacePath(lnp)
	if err != nil {
		return "", "", err
	}
	if err := d.ExpectEnd("NAMESPACEPATH"); err != nil {
		return "", "", err
	}
	return host, namespace, nil
}

func (d *Decoder) parseClassPathAny(se xml.StartElement) (interface{}, error) {
	return d.parseClassPath(se)
}

func (d *Decoder) parseClassPath(se xml.StartElement) (*objects.CIMClassName, error) {
	np, err := d.ExpectStart("NAMESPACEPATH")
	if err != nil {
		return nil, err
	}
	host, ns, err := d.parseNamespacePath(np)
	if err != nil {
		return nil, err
	}
	cnSE, err := d.ExpectStart("CLASSNAME")
	if err != nil {
		return nil, err
	}
	cn, err := d.parseClassName(cnSE)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("CLASSPATH"); err != nil {
		return nil, err
	}
	cn.Host, cn.Namespace = host, ns
	return cn, nil
}

func (d *Decoder) parseLocalClassPathAny(se xml.StartElement) (interface{}, error) {
	return d.parseLocalClassPath(se)
}

func (d *Decoder) parseLocalClassPath(se xml.StartElement) (*objects.CIMClassName, error) {
	lnp, err := d.ExpectStart("LOCALNAMESPACEPATH")
	if err != nil {
		return nil, err
	}
	ns, err := d.parseLocalNamespacePath(lnp)
	if err != nil {
		return nil, err
	}
	cnSE, err := d.ExpectStart("CLASSNAME")
	if err != nil {
		return nil, err
	}
	cn, err := d.parseClassName(cnSE)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("LOCALCLASSPATH"); err != nil {
		return nil, err
	}
	cn.Namespace = ns
	return cn, nil
}

func (d *Decoder) parseInstancePathAny(se xml.StartElement) (interface{}, error) {
	return d.parseInstancePath(se)
}

func (d *Decoder) parseInstancePath(se xml.StartElement) (*objects.CIMInstanceName, error) {
	np, err := d.ExpectStart("NAMESPACEPATH")
	if err != nil {
		return nil, err
	}
	host, ns, err := d.parseNamespacePath(np)
	if err != nil {
		return nil, err
	}
	inSE, err := d.ExpectStart("INSTANCENAME")
	if err != nil {
		return nil, err
	}
	in, err := d.parseInstanceName(inSE)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("INSTANCEPATH"); err != nil {
		return nil, err
	}
	in.Host, in.Namespace = host, ns
	return in, nil
}

func (d *Decoder) parseLocalInstancePathAny(se xml.StartElement) (interface{}, error) {
	return d.parseLocalInstancePath(se)
}

func (d *Decoder) parseLocalInstancePath(se xml.StartElement) (*objects.CIMInstanceName, error) {
	lnp, err := d.ExpectStart("LOCALNAMESPACEPATH")
	if err != nil {
		return nil, err
	}
	ns, err := d.parseLocalNamespacePath(lnp)
	if err != nil {
		return nil, err
	}
	inSE, err := d.ExpectStart("INSTANCENAME")
	if err != nil {
		return nil, err
	}
	in, err := d.parseInstanceName(inSE)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("LOCALINSTANCEPATH"); err != nil {
		return nil, err
	}
	in.Namespace = ns
	return in, nil
}

func (d *Decoder) parseObjectPathAny(se xml.StartElement) (interface{}, error) {
	child, err := d.ExpectStart("INSTANCEPATH", "CLASSPATH")
	if err != nil {
		return nil, err
	}
	ref, err := d.parseReferenceTarget(child)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("OBJECTPATH"); err != nil {
		return nil, err
	}
	return ref, nil
}

// ---- instance names and keybindings ----

func (d *Decoder) parseInstanceNameAny(se xml.StartElement) (interface{}, error) {
	return d.parseInstanceName(se)
}

// parseInstanceName consumes INSTANCENAME: the CLASSNAME attribute plus
// either KEYBINDING children, a single KEYVALUE (singleton key class), or a
// single VALUE.REFERENCE. A lone KEYVALUE or VALUE.REFERENCE is stored
// under the empty keybinding name.
func (d *Decoder) parseInstanceName(se xml.StartElement) (*objects.CIMInstanceName, error) {
	className, err := RequiredAttr(se, "CLASSNAME")
	if err != nil {
		return nil, err
	}
	in := objects.NewInstanceName(className)

	mode := ""
	for {
		child, ok, err := d.NextStart("INSTANCENAME")
		if err != nil {
			return nil, err
		}
		if !ok {
			return in, nil
		}
		switch {
		case tagIs(child, "KEYBINDING"):
			if mode != "" && mode != "keybinding" {
				return nil, parseErr("end of INSTANCENAME", "element KEYBINDING")
			}
			mode = "keybinding"
			name, value, err := d.parseKeyBinding(child)
			if err != nil {
				return nil, err
			}
			in.SetKey(name, value)
		case tagIs(child, "KEYVALUE"):
			if mode != "" {
				return nil, parseErr("end of INSTANCENAME", "element KEYVALUE")
			}
			mode = "keyvalue"
			value, err := d.parseKeyValue(child)
			if err != nil {
				return nil, err
			}
			in.SetKey("", value)
		case tagIs(child, "VALUE.REFERENCE"):
			if mode != "" {
				return nil, parseErr("end of INSTANCENAME", "element VALUE.REFERENCE")
			}
			mode = "reference"
			ref, err := d.parseValueReference()
			if err != nil {
				return nil, err
			}
			in.SetKey("", ref)
		default:
			return nil, parseErr("element KEYBINDING, KEYVALUE or VALUE.REFERENCE",
				"element "+child.Name.Local)
		}
	}
}

func (d *Decoder) parseKeyBinding(se xml.StartElement) (string, interface{}, error) {
	name, err := RequiredAttr(se, "NAME")
	if err != nil {
		return "", nil, err
	}
	child, err := d.ExpectStart("KEYVALUE", "VALUE.REFERENCE")
	if err != nil {
		return "", nil, err
	}
	var value interface{}
	if tagIs(child, "KEYVALUE") {
		value, err = d.parseKeyValue(child)
	} else {
		value, err = d.parseValueReference()
	}
	if err != nil {
		return "", nil, err
	}
	if err := d.ExpectEnd("KEYBINDING"); err != nil {
		return "", nil, err
	}
	return name, value, nil
}

func (d *Decoder) parseKeyValueAny(se xml.StartElement) (interface{}, error) {
	return d.parseKeyValue(se)
}

// parseKeyValue types the character data. The precise TYPE attribute wins
// over the coarse VALUETYPE when both are present (the TYPE attribute was
// added in a later DSP0201 revision exactly to resolve this).
func (d *Decoder) parseKeyValue(se xml.StartElement) (interface{}, error) {
	valueType, err := RequiredAttr(se, "VALUETYPE")
	if err != nil {
		return nil, err
	}
	cimType, hasType := AttrValue(se, "TYPE")
	text, err := d.Text("KEYVALUE")
	if err != nil {
		return nil, err
	}

	if hasType {
		return types.Parse(types.CIMType(strings.ToLower(cimType)), text)
	}

	switch strings.ToLower(valueType) {
	case "string":
		return text, nil
	case "boolean":
		return types.Parse(types.TypeBoolean, text)
	case "numeric":
		return parseNumericKey(text)
	}
	return nil, parseErr("VALUETYPE of string, boolean or numeric", strconv.Quote(valueType))
}

// parseNumericKey types an untyped numeric keyvalue: a signed integer when
// it fits, then unsigned, then real64. Base 10 unless an explicit 0x
// prefix is present.
func parseNumericKey(text string) (interface{}, error) {
	if v, err := types.Parse(types.TypeSint64, text); err == nil {
		return v, nil
	}
	if v, err := types.Parse(types.TypeUint64, text); err == nil {
		return v, nil
	}
	if v, err := types.Parse(types.TypeReal64, text); err == nil {
		return v, nil
	}
	return nil, &types.FormatError{Type: types.TypeSint64, Text: text, Reason: "not numeric"}
}

// ---- qualifiers ----

func (d *Decoder) parseQualifierAny(se xml.StartElement) (interface{}, error) {
	return d.parseQualifier(se)
}

func (d *Decoder) parseQualifier(se xml.StartElement) (*objects.CIMQualifier, error) {
	name, err := RequiredAttr(se, "NAME")
	if err != nil {
		return nil, err
	}
	typeAttr, err := RequiredAttr(se, "TYPE")
	if err != nil {
		return nil, err
	}
	q := &objects.CIMQualifier{Name: name, Type: types.CIMType(strings.ToLower(typeAttr))}
	if q.Propagated, err = flagAttr(se, "PROPAGATED"); err != nil {
		return nil, err
	}
	if q.Overridable, err = boolAttr(se, "OVERRIDABLE"); err != nil {
		return nil, err
	}
	if q.ToSubclass, err = boolAttr(se, "TOSUBCLASS"); err != nil {
		return nil, err
	}
	if q.ToInstance, err = boolAttr(se, "TOINSTANCE"); err != nil {
		return nil, err
	}
	if q.Translatable, err = boolAttr(se, "TRANSLATABLE"); err != nil {
		return nil, err
	}

	child, ok, err := d.NextStart("QUALIFIER")
	if err != nil {
		return nil, err
	}
	if !ok {
		return q, nil
	}
	switch {
	case tagIs(child, "VALUE"):
		text, err := d.Text("VALUE")
		if err != nil {
			return nil, err
		}
		if q.Value, err = types.Parse(q.Type, text); err != nil {
			return nil, err
		}
	case tagIs(child, "VALUE.ARRAY"):
		raw, err := d.parseValueArrayRaw()
		if err != nil {
			return nil, err
		}
		if q.Value, err = typeRawArray(q.Type, raw); err != nil {
			return nil, err
		}
		q.IsArray = true
	default:
		return nil, parseErr("element VALUE or VALUE.ARRAY", "element "+child.Name.Local)
	}
	return q, d.ExpectEnd("QUALIFIER")
}

func typeRawArray(t types.CIMType, raw []interface{}) ([]interface{}, error) {
	vals := make([]interface{}, len(raw))
	for i, r := range raw {
		if r == nil {
			continue
		}
		text, ok := r.(string)
		if !ok {
			return nil, parseErr("character data in VALUE", fmt.Sprintf("%T", r))
		}
		v, err := types.Parse(t, text)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (d *Decoder) parseQualifierDeclarationAny(se xml.StartElement) (interface{}, error) {
	name, err := RequiredAttr(se, "NAME")
	if err != nil {
		return nil, err
	}
	typeAttr, err := RequiredAttr(se, "TYPE")
	if err != nil {
		return nil, err
	}
	qd := &objects.CIMQualifierDeclaration{
		Name: name,
		Type: types.CIMType(strings.ToLower(typeAttr)),
	}
	if qd.IsArray, err = flagAttr(se, "ISARRAY"); err != nil {
		return nil, err
	}
	if sizeStr, ok := AttrValue(se, "ARRAYSIZE"); ok {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, parseErr("integer ARRAYSIZE", strconv.Quote(sizeStr))
		}
		qd.ArraySize = size
	}
	if qd.Overridable, err = boolAttr(se, "OVERRIDABLE"); err != nil {
		return nil, err
	}
	if qd.ToSubclass, err = boolAttr(se, "TOSUBCLASS"); err != nil {
		return nil, err
	}
	if qd.ToInstance, err = boolAttr(se, "TOINSTANCE"); err != nil {
		return nil, err
	}
	if qd.Translatable, err = boolAttr(se, "TRANSLATABLE"); err != nil {
		return nil, err
	}

	sawValue := false
	for {
		child, ok, err := d.NextStart("QUALIFIER.DECLARATION")
		if err != nil {
			return nil, err
		}
		if !ok {
			return qd, nil
		}
		switch {
		case tagIs(child, "SCOPE"):
			if sawValue {
				return nil, parseErr("end of QUALIFIER.DECLARATION", "element SCOPE after value")
			}
			if qd.Scopes, err = parseScope(child); err != nil {
				return nil, err
			}
			if err := d.skipEmpty(child); err != nil {
				return nil, err
			}
		case tagIs(child, "VALUE"):
			sawValue = true
			text, err := d.Text("VALUE")
			if err != nil {
				return nil, err
			}
			if qd.Value, err = types.Parse(qd.Type, text); err != nil {
				return nil, err
			}
		case tagIs(child, "VALUE.ARRAY"):
			sawValue = true
			raw, err := d.parseValueArrayRaw()
			if err != nil {
				return nil, err
			}
			if qd.Value, err = typeRawArray(qd.Type, raw); err != nil {
				return nil, err
			}
			qd.IsArray = true
		default:
			return nil, parseErr("element SCOPE, VALUE or VALUE.ARRAY",
				"element "+child.Name.Local)
		}
	}
}

func parseScope(se xml.StartElement) (objects.QualifierScopes, error) {
	var s objects.QualifierScopes
	set := func(dst *bool, name string) error {
		b, err := boolAttr(se, name)
		if err != nil {
			return err
		}
		*dst = b != nil && *b
		return nil
	}
	for name, dst := range map[string]*bool{
		"CLASS":       &s.Class,
		"ASSOCIATION": &s.Association,
		"REFERENCE":   &s.Reference,
		"PROPERTY":    &s.Property,
		"METHOD":      &s.Method,
		"PARAMETER":   &s.Parameter,
		"INDICATION":  &s.Indication,
	} {
		if err := set(dst, name); err != nil {
			return s, err
		}
	}
	return s, nil
}

// ---- properties ----

func (d *Decoder) parsePropertyAny(se xml.StartElement) (interface{}, error) {
	return d.parseProperty(se)
}

// parseProperty consumes PROPERTY, PROPERTY.ARRAY, PROPERTY.REFERENCE or
// PROPERTY.REFARRAY: the common attributes, nested qualifiers (which must
// precede the value payload) and the optional payload. No payload means a
// present but NULL-valued property, distinct from an empty-string value.
func (d *Decoder) parseProperty(se xml.StartElement) (*objects.CIMProperty, error) {
	endName := se.Name.Local
	name, err := RequiredAttr(se, "NAME")
	if err != nil {
		return nil, err
	}
	p := &objects.CIMProperty{
		Name:       name,
		Qualifiers: objects.NewNamedMap[*objects.CIMQualifier](),
	}

	isRef := tagIs(se, "PROPERTY.REFERENCE") || tagIs(se, "PROPERTY.REFARRAY")
	p.IsArray = tagIs(se, "PROPERTY.ARRAY") || tagIs(se, "PROPERTY.REFARRAY")
	if isRef {
		p.Type = types.TypeReference
		p.ReferenceClass, _ = AttrValue(se, "REFERENCECLASS")
	} else {
		typeAttr, err := RequiredAttr(se, "TYPE")
		if err != nil {
			return nil, err
		}
		p.Type = types.CIMType(strings.ToLower(typeAttr))
	}
	if sizeStr, ok := AttrValue(se, "ARRAYSIZE"); ok {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, parseErr("integer ARRAYSIZE", strconv.Quote(sizeStr))
		}
		p.ArraySize = size
	}
	p.ClassOrigin, _ = AttrValue(se, "CLASSORIGIN")
	if p.Propagated, err = flagAttr(se, "PROPAGATED"); err != nil {
		return nil, err
	}
	if emb, ok := AttrValue(se, "EmbeddedObject"); ok {
		switch strings.ToLower(emb) {
		case "instance":
			p.Embedded = objects.EmbeddedInstance
		case "object":
			p.Embedded = objects.EmbeddedObject
		default:
			return nil, parseErr("EmbeddedObject of object or instance", strconv.Quote(emb))
		}
	}

	sawValue := false
	for {
		child, ok, err := d.NextStart(endName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return p, nil
		}
		switch {
		case tagIs(child, "QUALIFIER"):
			if sawValue {
				return nil, parseErr("end of "+endName, "element QUALIFIER after value")
			}
			q, err := d.parseQualifier(child)
			if err != nil {
				return nil, err
			}
			p.Qualifiers.Set(q.Name, q)
		case tagIs(child, "VALUE") && !isRef && !p.IsArray:
			sawValue = true
			if err := d.parsePropertyScalarValue(p); err != nil {
				return nil, err
			}
		case tagIs(child, "VALUE.ARRAY") && !isRef && p.IsArray:
			sawValue = true
			if err := d.parsePropertyArrayValue(p); err != nil {
				return nil, err
			}
		case tagIs(child, "VALUE.REFERENCE") && isRef && !p.IsArray:
			sawValue = true
			ref, err := d.parseValueReference()
			if err != nil {
				return nil, err
			}
			p.Value = ref
		case tagIs(child, "VALUE.REFARRAY") && isRef && p.IsArray:
			sawValue = true
			refs, err := d.parseValueRefArray()
			if err != nil {
				return nil, err
			}
			p.Value = refs
		default:
			return nil, parseErr("value payload of "+endName, "element "+child.Name.Local)
		}
	}
}

func (d *Decoder) parsePropertyScalarValue(p *objects.CIMProperty) error {
	text, err := d.Text("VALUE")
	if err != nil {
		return err
	}
	if p.Embedded != objects.EmbeddedNone {
		obj, err := parseEmbedded(text, p.Embedded)
		if err != nil {
			return err
		}
		p.Value = obj
		return nil
	}
	p.Value, err = types.Parse(p.Type, text)
	return err
}

func (d *Decoder) parsePropertyArrayValue(p *objects.CIMProperty) error {
	raw, err := d.parseValueArrayRaw()
	if err != nil {
		return err
	}
	if p.Embedded != objects.EmbeddedNone {
		vals := make([]interface{}, len(raw))
		for i, r := range raw {
			if r == nil {
				continue
			}
			obj, err := parseEmbedded(r.(string), p.Embedded)
			if err != nil {
				return err
			}
			vals[i] = obj
		}
		p.Value = vals
		return nil
	}
	p.Value, err = typeRawArray(p.Type, raw)
	return err
}

// parseEmbedded decodes the serialized object carried by an EmbeddedObject
// property and checks it against the declared kind.
func parseEmbedded(text string, kind objects.EmbeddedObjectKind) (interface{}, error) {
	obj, err := Parse([]byte(text))
	if err != nil {
		return nil, err
	}
	switch obj.(type) {
	case *objects.CIMInstance:
		if kind == objects.EmbeddedObject {
			return obj, nil
		}
		if kind == objects.EmbeddedInstance {
			return obj, nil
		}
	case *objects.CIMClass:
		if kind == objects.EmbeddedObject {
			return obj, nil
		}
		return nil, parseErr("embedded INSTANCE", "embedded CLASS")
	}
	return nil, parseErr("embedded INSTANCE or CLASS", fmt.Sprintf("%T", obj))
}

// ---- instances and classes ----

func (d *Decoder) parseInstanceAny(se xml.StartElement) (interface{}, error) {
	return d.parseInstance(se)
}

// parseInstance consumes INSTANCE. Qualifiers must precede properties;
// a QUALIFIER following any property family is a grammar violation.
func (d *Decoder) parseInstance(se xml.StartElement) (*objects.CIMInstance, error) {
	className, err := RequiredAttr(se, "CLASSNAME")
	if err != nil {
		return nil, err
	}
	inst := objects.NewInstance(className)

	sawProperty := false
	for {
		child, ok, err := d.NextStart("INSTANCE")
		if err != nil {
			return nil, err
		}
		if !ok {
			return inst, nil
		}
		switch {
		case tagIs(child, "QUALIFIER"):
			if sawProperty {
				return nil, parseErr("a property element or end of INSTANCE",
					"element QUALIFIER after properties")
			}
			q, err := d.parseQualifier(child)
			if err != nil {
				return nil, err
			}
			inst.Qualifiers.Set(q.Name, q)
		case tagIs(child, "PROPERTY"), tagIs(child, "PROPERTY.ARRAY"),
			tagIs(child, "PROPERTY.REFERENCE"), tagIs(child, "PROPERTY.REFARRAY"):
			sawProperty = true
			p, err := d.parseProperty(child)
			if err != nil {
				return nil, err
			}
			inst.Properties.Set(p.Name, p)
		default:
			return nil, parseErr("element QUALIFIER or PROPERTY", "element "+child.Name.Local)
		}
	}
}

func (d *Decoder) parseClassAny(se xml.StartElement) (interface{}, error) {
	return d.parseClass(se)
}

func (d *Decoder) parseClass(se xml.StartElement) (*objects.CIMClass, error) {
	className, err := RequiredAttr(se, "NAME")
	if err != nil {
		return nil, err
	}
	cls := objects.NewClass(className)
	cls.SuperClass, _ = AttrValue(se, "SUPERCLASS")

	// Document order: QUALIFIER*, then properties, then methods.
	const (
		inQualifiers = iota
		inProperties
		inMethods
	)
	stage := inQualifiers
	for {
		child, ok, err := d.NextStart("CLASS")
		if err != nil {
			return nil, err
		}
		if !ok {
			return cls, nil
		}
		switch {
		case tagIs(child, "QUALIFIER"):
			if stage > inQualifiers {
				return nil, parseErr("a property or method element",
					"element QUALIFIER after properties")
			}
			q, err := d.parseQualifier(child)
			if err != nil {
				return nil, err
			}
			cls.Qualifiers.Set(q.Name, q)
		case tagIs(child, "PROPERTY"), tagIs(child, "PROPERTY.ARRAY"),
			tagIs(child, "PROPERTY.REFERENCE"), tagIs(child, "PROPERTY.REFARRAY"):
			if stage > inProperties {
				return nil, parseErr("a method element or end of CLASS",
					"element "+child.Name.Local+" after methods")
			}
			stage = inProperties
			p, err := d.parseProperty(child)
			if err != nil {
				return nil, err
			}
			cls.Properties.Set(p.Name, p)
		case tagIs(child, "METHOD"):
			stage = inMethods
			m, err := d.parseMethod(child)
			if err != nil {
				return nil, err
			}
			cls.Methods.Set(m.Name, m)
		default:
			return nil, parseErr("element QUALIFIER, PROPERTY or METHOD",
				"element "+child.Name.Local)
		}
	}
}

func (d *Decoder) parseMethodAny(se xml.StartElement) (interface{}, error) {
	return d.parseMethod(se)
}

func (d *Decoder) parseMethod(se xml.StartElement) (*objects.CIMMethod, error) {
	name, err := RequiredAttr(se, "NAME")
	if err != nil {
		return nil, err
	}
	m := objects.NewMethod(name, "")
	if typeAttr, ok := AttrValue(se, "TYPE"); ok {
		m.ReturnType = types.CIMType(strings.ToLower(typeAttr))
	}
	m.ClassOrigin, _ = AttrValue(se, "CLASSORIGIN")
	if m.Propagated, err = flagAttr(se, "PROPAGATED"); err != nil {
		return nil, err
	}

	sawParameter := false
	for {
		child, ok, err := d.NextStart("METHOD")
		if err != nil {
			return nil, err
		}
		if !ok {
			return m, nil
		}
		switch {
		case tagIs(child, "QUALIFIER"):
			if sawParameter {
				return nil, parseErr("a parameter element or end of METHOD",
					"element QUALIFIER after parameters")
			}
			q, err := d.parseQualifier(child)
			if err != nil {
				return nil, err
			}
			m.Qualifiers.Set(q.Name, q)
		case tagIs(child, "PARAMETER"), tagIs(child, "PARAMETER.ARRAY"),
			tagIs(child, "PARAMETER.REFERENCE"), tagIs(child, "PARAMETER.REFARRAY"):
			sawParameter = true
			p, err := d.parseParameter(child)
			if err != nil {
				return nil, err
			}
			m.Parameters.Set(p.Name, p)
		default:
			return nil, parseErr("element QUALIFIER or PARAMETER", "element "+child.Name.Local)
		}
	}
}

func (d *Decoder) parseParameterAny(se xml.StartElement) (interface{}, error) {
	return d.parseParameter(se)
}

func (d *Decoder) parseParameter(se xml.StartElement) (*objects.CIMParameter, error) {
	endName := se.Name.Local
	name, err := RequiredAttr(se, "NAME")
	if err != nil {
		return nil, err
	}
	p := objects.NewParameter(name, "")

	isRef := tagIs(se, "PARAMETER.REFERENCE") || tagIs(se, "PARAMETER.REFARRAY")
	p.IsArray = tagIs(se, "PARAMETER.ARRAY") || tagIs(se, "PARAMETER.REFARRAY")
	if isRef {
		p.Type = types.TypeReference
		p.ReferenceClass, _ = AttrValue(se, "REFERENCECLASS")
	} else {
		typeAttr, err := RequiredAttr(se, "TYPE")
		if err != nil {
			return nil, err
		}
		p.Type = types.CIMType(strings.ToLower(typeAttr))
	}
	if sizeStr, ok := AttrValue(se, "ARRAYSIZE"); ok {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, parseErr("integer ARRAYSIZE", strconv.Quote(sizeStr))
		}
		p.ArraySize = size
	}

	for {
		child, ok, err := d.NextStart(endName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return p, nil
		}
		if !tagIs(child, "QUALIFIER") {
			return nil, parseErr("element QUALIFIER or end of "+endName,
				"element "+child.Name.Local)
		}
		q, err := d.parseQualifier(child)
		if err != nil {
			return nil, err
		}
		p.Qualifiers.Set(q.Name, q)
	}
}

// ---- named instances and objects with path ----

func (d *Decoder) parseValueNamedInstanceAny(se xml.StartElement) (interface{}, error) {
	return d.parseValueNamedInstance(se)
}

// parseValueNamedInstance consumes VALUE.NAMEDINSTANCE and attaches the
// path to the instance, enforcing the path/property correspondence.
func (d *Decoder) parseValueNamedInstance(se xml.StartElement) (*objects.CIMInstance, error) {
	inSE, err := d.ExpectStart("INSTANCENAME")
	if err != nil {
		return nil, err
	}
	path, err := d.parseInstanceName(inSE)
	if err != nil {
		return nil, err
	}
	instSE, err := d.ExpectStart("INSTANCE")
	if err != nil {
		return nil, err
	}
	inst, err := d.parseInstance(instSE)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("VALUE.NAMEDINSTANCE"); err != nil {
		return nil, err
	}
	inst.Path = path
	if err := checkPathAgainstInstance(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// checkPathAgainstInstance enforces the invariant that every keybinding of
// a decoded path names a property of the decoded instance with an equal
// value. Keyvalues decoded without a TYPE attribute may carry a wider
// integer type than the property; such cases compare by wire text.
func checkPathAgainstInstance(inst *objects.CIMInstance) error {
	var err error
	inst.Path.KeyBindings.Each(func(name string, value interface{}) bool {
		p, ok := inst.Properties.Get(name)
		if !ok {
			err = parseErr("property "+name+" matching the instance path",
				"no such property in INSTANCE")
			return false
		}
		if objects.EqualValues(p.Value, value) {
			return true
		}
		pt, errP := types.ToWireText(p.Value)
		kt, errK := types.ToWireText(value)
		if errP == nil && errK == nil && pt == kt {
			return true
		}
		err = parseErr("keybinding "+name+" equal to the instance property",
			"disagreeing values")
		return false
	})
	return err
}

func (d *Decoder) parseValueObjectWithPathAny(se xml.StartElement) (interface{}, error) {
	child, err := d.ExpectStart("INSTANCEPATH", "CLASSPATH")
	if err != nil {
		return nil, err
	}
	if tagIs(child, "INSTANCEPATH") {
		path, err := d.parseInstancePath(child)
		if err != nil {
			return nil, err
		}
		instSE, err := d.ExpectStart("INSTANCE")
		if err != nil {
			return nil, err
		}
		inst, err := d.parseInstance(instSE)
		if err != nil {
			return nil, err
		}
		if err := d.ExpectEnd("VALUE.OBJECTWITHPATH"); err != nil {
			return nil, err
		}
		inst.Path = path
		if err := checkPathAgainstInstance(inst); err != nil {
			return nil, err
		}
		return inst, nil
	}

	if _, err := d.parseClassPath(child); err != nil {
		return nil, err
	}
	clsSE, err := d.ExpectStart("CLASS")
	if err != nil {
		return nil, err
	}
	cls, err := d.parseClass(clsSE)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEnd("VALUE.OBJECTWITHPATH"); err != nil {
		return nil, err
	}
	return cls, nil
}
