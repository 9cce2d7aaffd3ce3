// Package listener receives CIM indication deliveries over HTTP.
//
// A WBEM server delivers indications by POSTing a CIM-XML export request
// (an ExportIndication EXPMETHODCALL) to a listener destination URL. The
// Listener unwraps each delivery, hands the indication instance to every
// registered callback, and replies with an EXPMETHODRESPONSE.
//
// # Usage
//
//	l := listener.New()
//	id := l.Subscribe(func(ind *objects.CIMInstance) {
//	    fmt.Println("indication:", ind.ClassName)
//	})
//	defer l.Unsubscribe(id)
//
//	http.ListenAndServe(":5990", l.Handler())
//
// Callbacks run synchronously in delivery order for one request; a slow
// callback delays the HTTP reply, which some servers treat as a delivery
// failure. Callbacks that do real work should hand off to their own
// goroutine or channel.
package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/smnsjas/go-wbem/messages"
	"github.com/smnsjas/go-wbem/objects"
)

// maxRequestBytes bounds one export request body.
const maxRequestBytes = 8 << 20

// Callback handles one delivered indication instance. The instance is
// owned by the callback; the listener does not retain it.
type Callback func(indication *objects.CIMInstance)

// Listener is an HTTP endpoint for CIM indication export requests. The
// zero value is not usable; construct with New.
type Listener struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Callback
	log  *slog.Logger
}

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the structured logger for delivery logging.
func WithLogger(log *slog.Logger) Option {
	return func(l *Listener) {
		l.log = log
	}
}

// New creates a Listener with no subscriptions.
func New(opts ...Option) *Listener {
	l := &Listener{
		subs: make(map[uuid.UUID]Callback),
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers a callback for every delivered indication and
// returns its registration ID.
func (l *Listener) Subscribe(cb Callback) uuid.UUID {
	id := uuid.New()
	l.mu.Lock()
	l.subs[id] = cb
	l.mu.Unlock()
	return id
}

// Unsubscribe removes a registration. It reports whether the ID was
// registered.
func (l *Listener) Unsubscribe(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.subs[id]
	delete(l.subs, id)
	return ok
}

// Handler returns the HTTP handler serving export requests. Deliveries are
// accepted on POST to any path, which matches servers that append their
// own destination suffixes.
func (l *Listener) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Post("/", l.handleExport)
	r.Post("/*", l.handleExport)
	return r
}

// Serve runs the listener on addr until ctx is canceled.
func (l *Listener) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           l.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (l *Listener) handleExport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "read failure", http.StatusBadRequest)
		return
	}

	indication, id, err := messages.DecodeExportRequest(body)
	if err != nil {
		l.log.WarnContext(r.Context(), "rejected export request",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()))
		writeCIMResponse(w, http.StatusBadRequest,
			messages.EncodeExportErrorResponse("0", messages.StatusFailed, err.Error()))
		return
	}

	l.mu.RLock()
	callbacks := make([]Callback, 0, len(l.subs))
	for _, cb := range l.subs {
		callbacks = append(callbacks, cb)
	}
	l.mu.RUnlock()

	for _, cb := range callbacks {
		cb(indication)
	}
	l.log.DebugContext(r.Context(), "delivered indication",
		slog.String("class", indication.ClassName),
		slog.String("message_id", id),
		slog.Int("subscribers", len(callbacks)))

	writeCIMResponse(w, http.StatusOK, messages.EncodeExportResponse(id))
}

func writeCIMResponse(w http.ResponseWriter, status int, doc []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)
	w.Write(doc)
}
