// Package connection implements the WBEM client operation layer over HTTP.
//
// A Connection addresses one CIM server (CIMOM) and issues intrinsic and
// extrinsic operations against it. Each operation is one HTTP POST carrying
// a CIM-XML request document and returning a CIM-XML response document:
//
//	Connection.EnumerateInstances(ctx, "CIM_Disk")
//	    │
//	    ├── messages.EncodeIntrinsicCall   build request document
//	    ├── HTTP POST                      CIMOperation/CIMMethod headers
//	    └── messages.DecodeResponse        unwrap, or CIMError
//
// Server-reported failures surface as *messages.CIMError with the DMTF
// status code; transport failures and unparseable responses surface as
// ordinary errors or code-0 CIMErrors respectively. One call is one atomic
// request/response cycle: no partial results are ever returned.
//
// A Connection is safe for concurrent use; it holds no mutable state
// beyond the embedded http.Client.
//
// # Usage
//
//	conn, err := connection.New("https://cimom.example.com:5989",
//	    connection.WithBasicAuth("admin", "secret"),
//	    connection.WithNamespace("root/cimv2"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	instances, err := conn.EnumerateInstances(ctx, "CIM_Disk")
//
// # Reference
//
// DSP0200 (CIM Operations over HTTP): https://www.dmtf.org/standards/wbem
package connection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/smnsjas/go-wbem/messages"
	"github.com/smnsjas/go-wbem/objects"
)

// DefaultNamespace is used when no namespace option is given.
const DefaultNamespace = "root/cimv2"

const defaultTimeout = 60 * time.Second

var (
	// ErrEmptyURL is returned by New when no server URL is given.
	ErrEmptyURL = errors.New("empty server URL")
	// ErrHTTPStatus is returned when the server answers with a non-success
	// HTTP status instead of a CIM-XML response.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Connection is a client for one WBEM server.
type Connection struct {
	endpoint  *url.URL
	namespace string
	username  string
	password  string
	client    *http.Client
	log       *slog.Logger
}

// Option configures a Connection.
type Option func(*Connection)

// WithNamespace sets the CIM namespace operations run against.
func WithNamespace(namespace string) Option {
	return func(c *Connection) {
		c.namespace = namespace
	}
}

// WithBasicAuth sets credentials sent as HTTP Basic authentication.
func WithBasicAuth(username, password string) Option {
	return func(c *Connection) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient replaces the default HTTP client, for custom TLS
// configuration or timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connection) {
		c.client = client
	}
}

// WithLogger sets the structured logger for request/response logging.
// Operations log at debug level; the default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Connection) {
		c.log = log
	}
}

// New creates a Connection to the WBEM server at serverURL.
func New(serverURL string, opts ...Option) (*Connection, error) {
	if serverURL == "" {
		return nil, ErrEmptyURL
	}
	endpoint, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", endpoint.Scheme)
	}
	c := &Connection{
		endpoint:  endpoint,
		namespace: DefaultNamespace,
		client:    &http.Client{Timeout: defaultTimeout},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Namespace returns the namespace operations run against.
func (c *Connection) Namespace() string {
	return c.namespace
}

// roundTrip posts one request document and returns the response body. The
// CIMObject header carries the namespace for intrinsic calls and the
// target object path encoding for extrinsic calls.
func (c *Connection) roundTrip(ctx context.Context, method, cimObject string, doc []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(),
		bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.Header.Set("CIMOperation", "MethodCall")
	req.Header.Set("CIMMethod", method)
	req.Header.Set("CIMObject", cimObject)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wbem request %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wbem response %s: %w", method, err)
	}
	c.log.DebugContext(ctx, "wbem operation",
		slog.String("method", method),
		slog.String("object", cimObject),
		slog.Int("status", resp.StatusCode),
		slog.Int("request_bytes", len(doc)),
		slog.Int("response_bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s from %s", ErrHTTPStatus, resp.Status, method)
	}
	return body, nil
}

// intrinsic runs one intrinsic operation against the connection namespace.
func (c *Connection) intrinsic(ctx context.Context, method string, params []messages.Param) (*messages.Response, error) {
	doc, _, err := messages.EncodeIntrinsicCall(method, c.namespace, params)
	if err != nil {
		return nil, err
	}
	body, err := c.roundTrip(ctx, method, c.namespace, doc)
	if err != nil {
		return nil, err
	}
	return messages.DecodeResponse(body, method)
}

// extrinsic runs one extrinsic method invocation against a target path.
func (c *Connection) extrinsic(ctx context.Context, method string, target objects.ReferencePath, params []messages.Param) (*messages.Response, error) {
	local := localTarget(target, c.namespace)
	doc, _, err := messages.EncodeExtrinsicCall(method, local, params)
	if err != nil {
		return nil, err
	}
	body, err := c.roundTrip(ctx, method, local.String(), doc)
	if err != nil {
		return nil, err
	}
	return messages.DecodeResponse(body, method)
}

// localTarget copies the path with the connection namespace filled in when
// the path carries none, so callers can pass bare class or instance names.
func localTarget(target objects.ReferencePath, namespace string) objects.ReferencePath {
	switch path := target.(type) {
	case *objects.CIMClassName:
		cp := *path
		if cp.Namespace == "" {
			cp.Namespace = namespace
		}
		return &cp
	case *objects.CIMInstanceName:
		ip := path.Copy()
		if ip.Namespace == "" {
			ip.Namespace = namespace
		}
		return ip
	}
	return target
}

// backfillPath fills namespace and host into a decoded path when the
// server omitted them, so returned paths are always absolute enough to
// reuse in a later call.
func (c *Connection) backfillPath(path objects.ReferencePath) {
	switch p := path.(type) {
	case *objects.CIMClassName:
		if p.Namespace == "" {
			p.Namespace = c.namespace
		}
		if p.Host == "" {
			p.Host = c.endpoint.Host
		}
	case *objects.CIMInstanceName:
		if p.Namespace == "" {
			p.Namespace = c.namespace
		}
		if p.Host == "" {
			p.Host = c.endpoint.Host
		}
	}
}
