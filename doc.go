// Package wbem provides a pure Go client implementation of the CIM-XML/WBEM
// protocol (DMTF DSP0200/DSP0201).
//
// WBEM operations (enumerate/get/create/modify/delete instances and classes,
// association traversal, query execution, extrinsic method invocation) are
// encoded as CIM-XML request documents, sent over HTTP(S) to a WBEM server,
// and the XML responses are decoded back into typed CIM objects.
//
// # Architecture
//
// The library is organized into layers:
//
//   - connection: WBEMConnection operation methods over HTTP(S)
//   - messages: CIM-XML message envelope (MESSAGE/SIMPLEREQ/IMETHODCALL)
//     encoding and response unwrapping, including CIM status errors
//   - serialization: CIM-XML encoder and pull-parser decoder
//   - objects: CIM object model (CIMInstance, CIMClass, CIMInstanceName, ...)
//   - types: CIM scalar value types with range validation (Uint8..Sint64,
//     Real32/64, Char16, CIMDateTime)
//   - listener: HTTP listener for CIM indication export messages
//
// # Basic Usage
//
//	conn, err := connection.New("https://server:5989",
//	    connection.WithNamespace("root/cimv2"),
//	    connection.WithBasicAuth("user", "pw"))
//	if err != nil {
//	    return err
//	}
//
//	names, err := conn.EnumerateInstanceNames(ctx, "CIM_ComputerSystem")
//	if err != nil {
//	    return err
//	}
//	for _, path := range names {
//	    inst, err := conn.GetInstance(ctx, path)
//	    ...
//	}
//
// # Reference
//
// Protocol specifications:
//
//	DSP0200 (CIM Operations over HTTP): https://www.dmtf.org/standards/wbem
//	DSP0201 (Representation of CIM in XML): https://www.dmtf.org/standards/wbem
//	DSP0004 (CIM Infrastructure): https://www.dmtf.org/standards/cim
package wbem

// Version is the library version.
const Version = "0.1.0-dev"

// Protocol version constants carried in the CIM-XML envelope.
const (
	// CIMVersion is the value of the CIM root element's CIMVERSION attribute.
	CIMVersion = "2.0"
	// DTDVersion is the value of the CIM root element's DTDVERSION attribute.
	DTDVersion = "2.0"
	// ProtocolVersion is the value of the MESSAGE element's PROTOCOLVERSION
	// attribute.
	ProtocolVersion = "1.0"
)
