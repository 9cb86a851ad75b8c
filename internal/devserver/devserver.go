// Package devserver serves build output during development.
package devserver

import (
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	httpmiddleware "github.com/wolfeidau/docsite/internal/http"
	"github.com/wolfeidau/docsite/internal/logger"
	"github.com/wolfeidau/docsite/internal/policy"
	"github.com/wolfeidau/docsite/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Addr returns the listen address for dev.
func Addr(dev policy.DevServer) string {
	return net.JoinHostPort(dev.Host, strconv.Itoa(dev.Port))
}

// Handler serves files from dir. Extension-less paths with no matching file
// fall back to the history index, or to fallback when the index has not been
// written.
func Handler(dir string, dev policy.DevServer, fallback http.Handler) http.Handler {
	return &fileHandler{
		dir:      dir,
		index:    dev.HistoryFallback.Index,
		fallback: fallback,
	}
}

// Wrap applies tracing, request logging, host verification and CORS to h.
func Wrap(h http.Handler, dev policy.DevServer, log zerolog.Logger, allowedHosts ...string) http.Handler {
	h = withCORS(h)
	h = httpmiddleware.HostCheckMiddleware(dev.DisableHostCheck, allowedHosts...)(h)
	h = logger.Requests(log)(h)
	h = httpmiddleware.ClientIPMiddleware()(h)
	return otelhttp.NewHandler(h, "devserver")
}

// withCORS allows any origin, the dev server is reachable under any host name.
func withCORS(h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return middleware.Handler(h)
}

type fileHandler struct {
	dir      string
	index    string
	fallback http.Handler
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	telemetry.GetMetrics().DevRequestsTotal.Add(r.Context(), 1)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	urlPath := path.Clean("/" + r.URL.Path)

	if file, ok := h.lookup(urlPath); ok {
		serveFile(w, r, file)
		return
	}

	if h.index == "" || path.Ext(urlPath) != "" {
		http.NotFound(w, r)
		return
	}

	if file, ok := h.lookup("/" + h.index); ok {
		serveFile(w, r, file)
		return
	}

	if h.fallback != nil {
		h.fallback.ServeHTTP(w, r)
		return
	}

	http.NotFound(w, r)
}

// lookup resolves urlPath to a regular file under dir, trying index.html for
// directories.
func (h *fileHandler) lookup(urlPath string) (string, bool) {
	file := filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))

	info, err := os.Stat(file)
	if err != nil {
		return "", false
	}

	if info.IsDir() {
		file = filepath.Join(file, "index.html")
		info, err = os.Stat(file)
		if err != nil || info.IsDir() {
			return "", false
		}
	}

	return file, true
}

func serveFile(w http.ResponseWriter, r *http.Request, file string) {
	f, err := os.Open(file)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
