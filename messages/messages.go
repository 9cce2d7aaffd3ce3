// Package messages builds and unwraps CIM operation message envelopes.
//
// A CIM-XML operation request is a CIM document wrapping exactly one method
// call:
//
//	CIM (CIMVERSION, DTDVERSION)
//	└── MESSAGE (ID, PROTOCOLVERSION)
//	    └── SIMPLEREQ
//	        └── IMETHODCALL (NAME)        intrinsic operation
//	            ├── LOCALNAMESPACEPATH
//	            └── IPARAMVALUE (NAME)*
//	        or METHODCALL (NAME)          extrinsic method
//	            ├── LOCALCLASSPATH | LOCALINSTANCEPATH
//	            └── PARAMVALUE (NAME)*
//
// The response mirrors the request: SIMPLERSP wrapping IMETHODRESPONSE or
// METHODRESPONSE, which carries either one ERROR element or a return-value
// payload plus output parameters. Indication delivery uses the export
// variant of the same shape: SIMPLEEXPREQ wrapping EXPMETHODCALL.
//
// Message IDs are drawn from a process-wide counter; each encoded request
// gets a fresh ID.
//
// # Reference
//
// DSP0200 (CIM Operations over HTTP), DSP0201 section "Message Elements":
// https://www.dmtf.org/standards/wbem
package messages

import (
	"fmt"
	"strconv"
	"sync/atomic"

	wbem "github.com/smnsjas/go-wbem"
	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/serialization"
	"github.com/smnsjas/go-wbem/types"
)

// ExportIndication is the export method name used for indication delivery.
const ExportIndication = "ExportIndication"

var messageID atomic.Uint64

func nextMessageID() string {
	return strconv.FormatUint(messageID.Add(1), 10)
}

// Param is one named parameter of a method call, in sending order.
type Param struct {
	Name  string
	Value interface{}
}

// NamedInstance wraps an instance parameter so it is written as
// VALUE.NAMEDINSTANCE, path included, rather than a bare INSTANCE. The
// ModifyInstance operation requires this form.
type NamedInstance struct {
	Instance *objects.CIMInstance
}

// envelope wraps a request body in CIM/MESSAGE and returns the document
// bytes together with the message ID used.
func envelope(body *serialization.Element) ([]byte, string) {
	id := nextMessageID()
	doc := serialization.NewElement("CIM",
		serialization.Attr{Name: "CIMVERSION", Value: wbem.CIMVersion},
		serialization.Attr{Name: "DTDVERSION", Value: wbem.DTDVersion}).
		Add(serialization.NewElement("MESSAGE",
			serialization.Attr{Name: "ID", Value: id},
			serialization.Attr{Name: "PROTOCOLVERSION", Value: wbem.ProtocolVersion}).
			Add(body))
	return doc.Document(), id
}

// EncodeIntrinsicCall encodes an intrinsic operation request: an
// IMETHODCALL against a namespace, with IPARAMVALUE children in the given
// order. It returns the request document and the message ID.
func EncodeIntrinsicCall(methodName, namespace string, params []Param) ([]byte, string, error) {
	if methodName == "" {
		return nil, "", fmt.Errorf("intrinsic call has empty method name")
	}
	if namespace == "" {
		return nil, "", fmt.Errorf("intrinsic call %s has empty namespace", methodName)
	}
	call := serialization.NewElement("IMETHODCALL",
		serialization.Attr{Name: "NAME", Value: methodName})
	call.Add(serialization.LocalNamespacePathElement(namespace))
	for _, p := range params {
		pv, err := iparamValueElement(p)
		if err != nil {
			return nil, "", fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		call.Add(pv)
	}
	doc, id := envelope(serialization.NewElement("SIMPLEREQ").Add(call))
	return doc, id, nil
}

func iparamValueElement(p Param) (*serialization.Element, error) {
	el := serialization.NewElement("IPARAMVALUE",
		serialization.Attr{Name: "NAME", Value: p.Name})
	if p.Value == nil {
		return el, nil
	}
	if ni, ok := p.Value.(NamedInstance); ok {
		child, err := serialization.NamedInstanceElement(ni.Instance)
		if err != nil {
			return nil, err
		}
		return el.Add(child), nil
	}
	child, err := serialization.ObjectElement(p.Value)
	if err != nil {
		return nil, err
	}
	return el.Add(child), nil
}

// EncodeExtrinsicCall encodes an extrinsic method invocation: a METHODCALL
// against a class or instance path, with PARAMVALUE children. The target
// path is rendered in its local form; any host on the path is ignored
// because the transport already addresses the host.
func EncodeExtrinsicCall(methodName string, target objects.ReferencePath, params []Param) ([]byte, string, error) {
	if methodName == "" {
		return nil, "", fmt.Errorf("extrinsic call has empty method name")
	}
	localPath, err := localPathElement(target)
	if err != nil {
		return nil, "", err
	}
	call := serialization.NewElement("METHODCALL",
		serialization.Attr{Name: "NAME", Value: methodName})
	call.Add(localPath)
	for _, p := range params {
		pv, err := paramValueElement(p)
		if err != nil {
			return nil, "", fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		call.Add(pv)
	}
	doc, id := envelope(serialization.NewElement("SIMPLEREQ").Add(call))
	return doc, id, nil
}

func localPathElement(target objects.ReferencePath) (*serialization.Element, error) {
	switch path := target.(type) {
	case *objects.CIMClassName:
		if path.Namespace == "" {
			return nil, fmt.Errorf("extrinsic call target %q has empty namespace", path.Name)
		}
		return serialization.NewElement("LOCALCLASSPATH").Add(
			serialization.LocalNamespacePathElement(path.Namespace),
			serialization.ClassNameElement(path.Name)), nil
	case *objects.CIMInstanceName:
		if path.Namespace == "" {
			return nil, fmt.Errorf("extrinsic call target %q has empty namespace", path.ClassName)
		}
		ine, err := serialization.InstanceNameElement(path)
		if err != nil {
			return nil, err
		}
		return serialization.NewElement("LOCALINSTANCEPATH").Add(
			serialization.LocalNamespacePathElement(path.Namespace), ine), nil
	}
	return nil, fmt.Errorf("extrinsic call target must be a class or instance path, got %T", target)
}

func paramValueElement(p Param) (*serialization.Element, error) {
	el := serialization.NewElement("PARAMVALUE",
		serialization.Attr{Name: "NAME", Value: p.Name})
	if p.Value == nil {
		return el, nil
	}
	if ref, ok := p.Value.(objects.ReferencePath); ok {
		child, err := serialization.ValueReferenceElement(ref)
		if err != nil {
			return nil, err
		}
		return el.SetAttr("PARAMTYPE", string(types.TypeReference)).Add(child), nil
	}
	if t, err := types.TypeOf(p.Value); err == nil {
		el.SetAttr("PARAMTYPE", string(t))
	}
	child, err := serialization.ObjectElement(p.Value)
	if err != nil {
		return nil, err
	}
	return el.Add(child), nil
}

// EncodeExportRequest encodes an indication delivery request: SIMPLEEXPREQ
// wrapping an ExportIndication EXPMETHODCALL whose NewIndication parameter
// carries the indication instance.
func EncodeExportRequest(indication *objects.CIMInstance) ([]byte, string, error) {
	inst, err := serialization.InstanceElement(indication)
	if err != nil {
		return nil, "", err
	}
	call := serialization.NewElement("EXPMETHODCALL",
		serialization.Attr{Name: "NAME", Value: ExportIndication}).
		Add(serialization.NewElement("EXPPARAMVALUE",
			serialization.Attr{Name: "NAME", Value: "NewIndication"}).
			Add(inst))
	doc, id := envelope(serialization.NewElement("SIMPLEEXPREQ").Add(call))
	return doc, id, nil
}

// EncodeExportResponse encodes the success reply to an export request,
// echoing the request's message ID.
func EncodeExportResponse(id string) []byte {
	return exportResponse(id, nil)
}

// EncodeExportErrorResponse encodes a failure reply to an export request.
func EncodeExportErrorResponse(id string, code StatusCode, description string) []byte {
	errEl := serialization.NewElement("ERROR",
		serialization.Attr{Name: "CODE", Value: strconv.Itoa(int(code))})
	if description != "" {
		errEl.SetAttr("DESCRIPTION", description)
	}
	return exportResponse(id, errEl)
}

func exportResponse(id string, errEl *serialization.Element) []byte {
	resp := serialization.NewElement("EXPMETHODRESPONSE",
		serialization.Attr{Name: "NAME", Value: ExportIndication})
	if errEl != nil {
		resp.Add(errEl)
	}
	doc := serialization.NewElement("CIM",
		serialization.Attr{Name: "CIMVERSION", Value: wbem.CIMVersion},
		serialization.Attr{Name: "DTDVERSION", Value: wbem.DTDVersion}).
		Add(serialization.NewElement("MESSAGE",
			serialization.Attr{Name: "ID", Value: id},
			serialization.Attr{Name: "PROTOCOLVERSION", Value: wbem.ProtocolVersion}).
			Add(serialization.NewElement("SIMPLEEXPRSP").Add(resp)))
	return doc.Document()
}
