package listener

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-wbem/messages"
	"github.com/smnsjas/go-wbem/objects"
	"github.com/smnsjas/go-wbem/types"
)

func testIndication() *objects.CIMInstance {
	ind := objects.NewInstance("CIM_AlertIndication")
	ind.SetProperty(objects.NewProperty("AlertType", types.TypeUint16, types.Uint16(5)))
	ind.SetProperty(objects.NewProperty("Description", types.TypeString, "fan failed"))
	return ind
}

func deliver(t *testing.T, url string, doc []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/xml; charset=utf-8", bytes.NewReader(doc))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDeliverIndication(t *testing.T) {
	l := New()
	received := make(chan *objects.CIMInstance, 1)
	l.Subscribe(func(ind *objects.CIMInstance) {
		received <- ind
	})

	srv := httptest.NewServer(l.Handler())
	t.Cleanup(srv.Close)

	doc, id, err := messages.EncodeExportRequest(testIndication())
	require.NoError(t, err)

	resp := deliver(t, srv.URL+"/cimlistener/dest1", doc)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `<EXPMETHODRESPONSE NAME="ExportIndication"/>`)
	assert.Contains(t, string(body), `ID="`+id+`"`)

	select {
	case ind := <-received:
		assert.True(t, ind.Equal(testIndication()))
	default:
		t.Fatal("callback not invoked")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	l := New()
	var first, second atomic.Int32
	l.Subscribe(func(*objects.CIMInstance) { first.Add(1) })
	id := l.Subscribe(func(*objects.CIMInstance) { second.Add(1) })

	srv := httptest.NewServer(l.Handler())
	t.Cleanup(srv.Close)

	doc, _, err := messages.EncodeExportRequest(testIndication())
	require.NoError(t, err)

	deliver(t, srv.URL, doc)
	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(1), second.Load())

	require.True(t, l.Unsubscribe(id))
	assert.False(t, l.Unsubscribe(id))

	deliver(t, srv.URL, doc)
	assert.Equal(t, int32(2), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestRejectMalformedRequest(t *testing.T) {
	l := New()
	l.Subscribe(func(*objects.CIMInstance) {
		t.Error("callback must not run for malformed requests")
	})

	srv := httptest.NewServer(l.Handler())
	t.Cleanup(srv.Close)

	resp := deliver(t, srv.URL, []byte("<html>not cim</html>"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `<ERROR CODE="1"`)
}

func TestRejectNonExportMethod(t *testing.T) {
	l := New()
	srv := httptest.NewServer(l.Handler())
	t.Cleanup(srv.Close)

	doc := []byte(`<?xml version="1.0" encoding="utf-8" ?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
 <MESSAGE ID="9" PROTOCOLVERSION="1.0">
  <SIMPLEEXPREQ>
   <EXPMETHODCALL NAME="SomethingElse"/>
  </SIMPLEEXPREQ>
 </MESSAGE>
</CIM>`)
	resp := deliver(t, srv.URL, doc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
