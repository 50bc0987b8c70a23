package stream

import (
	"net"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
)

// clientBufferChunks bounds how many encoded chunks a slow client can have
// pending before new chunks are dropped for that client.
const clientBufferChunks = 64

// HTTPHandler serves the encoded broadcast as a chunked audio/mpeg response.
// Each connection registers a Sink in the registry; audio history before the
// connection is never replayed.
type HTTPHandler struct {
	registry *Registry
	name     string // ICY station name
}

// NewHTTPHandler creates the /stream handler.
func NewHTTPHandler(r *Registry, name string) *HTTPHandler {
	return &HTTPHandler{registry: r, name: name}
}

// httpSink adapts one HTTP connection to the registry's Sink. Writes from a
// publish never block: chunks go into a buffered channel drained by the
// request goroutine, and a full buffer drops the chunk instead of stalling
// the broadcast.
type httpSink struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func newHTTPSink() *httpSink {
	return &httpSink{
		ch:   make(chan []byte, clientBufferChunks),
		done: make(chan struct{}),
	}
}

func (c *httpSink) Write(p []byte) (int, error) {
	select {
	case <-c.done:
		return 0, net.ErrClosed
	default:
	}
	select {
	case c.ch <- p:
	default:
		// client too slow, drop the chunk to keep the broadcast moving
	}
	return len(p), nil
}

func (c *httpSink) close() {
	c.once.Do(func() { close(c.done) })
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", h.name)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := newHTTPSink()
	h.registry.Add(sink)
	defer h.registry.Remove(sink)
	defer sink.close()

	log.Info("listener connected", "remote", r.RemoteAddr, "total", h.registry.Count())
	defer log.Info("listener disconnected", "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-sink.ch:
			if _, err := w.Write(data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
