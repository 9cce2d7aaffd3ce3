// Package serialization implements the CIM-XML codec.
//
// CIM-XML (DSP0201) is the XML representation of CIM objects and of the
// operation messages exchanged with a WBEM server. This package provides
// both directions of the mapping:
//
//   - an encoder that builds CIM-XML element trees from object-model values
//     and serializes them to document text
//   - a pull-parser decoder that walks the element grammar and produces
//     object-model values, rejecting malformed documents
//
// # Element Grammar
//
// Representative productions handled here (DSP0201 Section 3):
//
//	VALUE            - scalar character data
//	VALUE.ARRAY      - zero or more VALUE
//	VALUE.REFERENCE  - one of CLASSPATH | LOCALCLASSPATH | CLASSNAME |
//	                   INSTANCEPATH | LOCALINSTANCEPATH | INSTANCENAME
//	VALUE.REFARRAY   - zero or more VALUE.REFERENCE
//	INSTANCENAME     - CLASSNAME attribute + KEYBINDING*
//	INSTANCE         - CLASSNAME attribute + QUALIFIER* + PROPERTY*
//	CLASS            - QUALIFIER* + PROPERTY* + METHOD*
//
// # Errors
//
// The decoder never recovers: the first grammar violation aborts the decode
// of the whole document with a *ParseError carrying the expected and found
// constructs. Scalar text that does not parse under its declared CIM type
// surfaces the types.FormatError of the typed value layer.
//
// # Reference
//
// DSP0201 (Representation of CIM in XML): https://www.dmtf.org/standards/wbem
package serialization

import (
	"bytes"
	"encoding/xml"
)

// Attr is one XML attribute of an Element, in writing order.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of a CIM-XML document tree under construction. An
// element carries either character data or child elements, never both.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// NewElement creates an element with the given attributes.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// TextElement creates a leaf element carrying character data.
func TextElement(name, text string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs, Text: text}
}

// Add appends children and returns e for chaining.
func (e *Element) Add(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// SetAttr appends an attribute and returns e for chaining.
func (e *Element) SetAttr(name, value string) *Element {
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// WriteTo serializes the element tree to buf. Attribute values and
// character data are XML-escaped; empty elements are self-closed.
func (e *Element) WriteTo(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		escapeTo(buf, a.Value)
		buf.WriteByte('"')
	}
	if len(e.Children) == 0 && e.Text == "" {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	if len(e.Children) > 0 {
		for _, c := range e.Children {
			c.WriteTo(buf)
		}
	} else {
		escapeTo(buf, e.Text)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteByte('>')
}

// Document serializes the element tree as a standalone UTF-8 XML document
// with the XML declaration prepended.
func (e *Element) Document() []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8" ?>`)
	buf.WriteByte('\n')
	e.WriteTo(&buf)
	return buf.Bytes()
}

// String serializes the element tree without an XML declaration.
func (e *Element) String() string {
	var buf bytes.Buffer
	e.WriteTo(&buf)
	return buf.String()
}

func escapeTo(buf *bytes.Buffer, s string) {
	// xml.EscapeText never fails on a bytes.Buffer.
	_ = xml.EscapeText(buf, []byte(s))
}
