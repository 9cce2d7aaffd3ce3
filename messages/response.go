package messages

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/serialization"
	"github.com/smnsjas/go-wbem/types"
)

// Response is the unwrapped payload of a successful operation response:
// the IRETURNVALUE/RETURNVALUE content in document order plus any output
// parameters.
type Response struct {
	ReturnValue []interface{}
	OutParams   *objects.NamedMap[interface{}]
}

// DecodeResponse unwraps an operation response document. The NAME of the
// response element must match the requested method name; a mismatch, like
// any envelope-level decode failure, surfaces as a code-0 CIMError. A
// server-reported ERROR element short-circuits to a CIMError with the
// server's code and description and no partial return value.
func DecodeResponse(data []byte, methodName string) (*Response, error) {
	resp, err := decodeResponse(data, methodName)
	if err != nil {
		return nil, localError(err)
	}
	return resp, nil
}

func decodeResponse(data []byte, methodName string) (*Response, error) {
	d := serialization.NewDecoder(bytes.NewReader(data))
	if err := expectEnvelope(d); err != nil {
		return nil, err
	}
	if _, err := d.ExpectStart("SIMPLERSP"); err != nil {
		return nil, err
	}
	methodResp, err := d.ExpectStart("IMETHODRESPONSE", "METHODRESPONSE")
	if err != nil {
		return nil, err
	}
	name, err := serialization.RequiredAttr(methodResp, "NAME")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(name, methodName) {
		return nil, fmt.Errorf("response is for method %q, requested %q", name, methodName)
	}
	endName := methodResp.Name.Local

	resp := &Response{OutParams: objects.NewNamedMap[interface{}]()}
	for {
		child, ok, err := d.NextStart(endName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return resp, nil
		}
		switch strings.ToUpper(child.Name.Local) {
		case "ERROR":
			return nil, decodeError(d, child)
		case "IRETURNVALUE", "RETURNVALUE":
			vals, err := decodeReturnValue(d, child)
			if err != nil {
				return nil, err
			}
			resp.ReturnValue = append(resp.ReturnValue, vals...)
		case "PARAMVALUE":
			name, value, err := decodeParamValue(d, child)
			if err != nil {
				return nil, err
			}
			resp.OutParams.Set(name, value)
		default:
			return nil, fmt.Errorf("unexpected element %s in %s", child.Name.Local, endName)
		}
	}
}

// expectEnvelope consumes CIM and MESSAGE start tags, checking the
// required version attributes are present.
func expectEnvelope(d *serialization.Decoder) error {
	cim, err := d.ExpectStart("CIM")
	if err != nil {
		return err
	}
	if _, err := serialization.RequiredAttr(cim, "CIMVERSION"); err != nil {
		return err
	}
	if _, err := serialization.RequiredAttr(cim, "DTDVERSION"); err != nil {
		return err
	}
	msg, err := d.ExpectStart("MESSAGE")
	if err != nil {
		return err
	}
	if _, err := serialization.RequiredAttr(msg, "ID"); err != nil {
		return err
	}
	return nil
}

// decodeError turns an ERROR element into a CIMError. ERROR carries its
// payload in attributes; nested CIM_Error instances are consumed and
// discarded.
func decodeError(d *serialization.Decoder, se xml.StartElement) error {
	codeStr, err := serialization.RequiredAttr(se, "CODE")
	if err != nil {
		return err
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return fmt.Errorf("ERROR has non-numeric CODE %q", codeStr)
	}
	desc, _ := serialization.AttrValue(se, "DESCRIPTION")
	for {
		child, ok, err := d.NextStart("ERROR")
		if err != nil {
			return err
		}
		if !ok {
			return &CIMError{Code: StatusCode(code), Description: desc}
		}
		if _, err := d.ParseElement(child); err != nil {
			return err
		}
	}
}

func decodeReturnValue(d *serialization.Decoder, se xml.StartElement) ([]interface{}, error) {
	endName := se.Name.Local
	paramType, hasType := serialization.AttrValue(se, "PARAMTYPE")
	typed := hasType && !strings.EqualFold(paramType, string(types.TypeReference))

	var vals []interface{}
	for {
		child, ok, err := d.NextStart(endName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return vals, nil
		}
		v, err := d.ParseElement(child)
		if err != nil {
			return nil, err
		}
		if typed {
			v, err = typeParamValue(types.CIMType(strings.ToLower(paramType)), v)
			if err != nil {
				return nil, err
			}
		}
		vals = append(vals, v)
	}
}

// decodeParamValue decodes one output parameter. A VALUE or VALUE.ARRAY
// payload is typed by the PARAMTYPE attribute when present and stays raw
// text otherwise.
func decodeParamValue(d *serialization.Decoder, se xml.StartElement) (string, interface{}, error) {
	name, err := serialization.RequiredAttr(se, "NAME")
	if err != nil {
		return "", nil, err
	}
	paramType, hasType := serialization.AttrValue(se, "PARAMTYPE")

	child, ok, err := d.NextStart("PARAMVALUE")
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return name, nil, nil
	}
	value, err := d.ParseElement(child)
	if err != nil {
		return "", nil, err
	}
	if hasType && !strings.EqualFold(paramType, string(types.TypeReference)) {
		value, err = typeParamValue(types.CIMType(strings.ToLower(paramType)), value)
		if err != nil {
			return "", nil, err
		}
	}
	if err := d.ExpectEnd("PARAMVALUE"); err != nil {
		return "", nil, err
	}
	return name, value, nil
}

func typeParamValue(t types.CIMType, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return types.Parse(t, v)
	case []interface{}:
		vals := make([]interface{}, len(v))
		for i, item := range v {
			if item == nil {
				continue
			}
			text, ok := item.(string)
			if !ok {
				vals[i] = item
				continue
			}
			typed, err := types.Parse(t, text)
			if err != nil {
				return nil, err
			}
			vals[i] = typed
		}
		return vals, nil
	}
	return value, nil
}

// DecodeExportRequest unwraps an indication delivery request and returns
// the indication instance together with the message ID to echo in the
// reply.
func DecodeExportRequest(data []byte) (*objects.CIMInstance, string, error) {
	d := serialization.NewDecoder(bytes.NewReader(data))
	cim, err := d.ExpectStart("CIM")
	if err != nil {
		return nil, "", err
	}
	if _, err := serialization.RequiredAttr(cim, "CIMVERSION"); err != nil {
		return nil, "", err
	}
	msg, err := d.ExpectStart("MESSAGE")
	if err != nil {
		return nil, "", err
	}
	id, err := serialization.RequiredAttr(msg, "ID")
	if err != nil {
		return nil, "", err
	}
	if _, err := d.ExpectStart("SIMPLEEXPREQ"); err != nil {
		return nil, "", err
	}
	call, err := d.ExpectStart("EXPMETHODCALL")
	if err != nil {
		return nil, "", err
	}
	name, err := serialization.RequiredAttr(call, "NAME")
	if err != nil {
		return nil, "", err
	}
	if !strings.EqualFold(name, ExportIndication) {
		return nil, "", fmt.Errorf("unsupported export method %q", name)
	}
	pv, err := d.ExpectStart("EXPPARAMVALUE")
	if err != nil {
		return nil, "", err
	}
	if pname, _ := serialization.AttrValue(pv, "NAME"); !strings.EqualFold(pname, "NewIndication") {
		return nil, "", fmt.Errorf("unsupported export parameter %q", pname)
	}
	instSE, err := d.ExpectStart("INSTANCE")
	if err != nil {
		return nil, "", err
	}
	obj, err := d.ParseElement(instSE)
	if err != nil {
		return nil, "", err
	}
	inst, ok := obj.(*objects.CIMInstance)
	if !ok {
		return nil, "", fmt.Errorf("export parameter is %T, want instance", obj)
	}
	return inst, id, nil
}
