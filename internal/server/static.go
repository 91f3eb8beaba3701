// static.go - Static asset collaborator.
//
// Serves the browser UI out of a fixed root directory: "/", anything
// under /js/ or /styles/, and any *.html path. Content type comes from
// the file extension. Misses answer a plain-text 404, unlike the JSON
// bodies of the API.
package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var staticContentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
}

// isStaticPath reports whether a request path belongs to the static
// asset collaborator rather than the API.
func isStaticPath(p string) bool {
	return p == "/" ||
		strings.HasPrefix(p, "/js/") ||
		strings.HasPrefix(p, "/styles/") ||
		strings.HasSuffix(p, ".html")
}

// serveStatic reads the requested file from the static root and writes
// it with the extension's content type.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Path
	if rel == "/" {
		rel = "/index.html"
	}

	// Collapse any ../ segments before joining with the root so requests
	// cannot escape the static directory.
	rel = path.Clean("/" + rel)
	filePath := filepath.Join(s.staticDir, filepath.FromSlash(rel))

	data, err := os.ReadFile(filePath)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("file not found."))
		return
	}

	contentType := staticContentTypes[strings.ToLower(filepath.Ext(filePath))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
