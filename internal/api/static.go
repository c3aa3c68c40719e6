package api

import (
	"net/http"
	"strings"
)

// ServeStatic serves a built frontend from dir under /
func (s *Server) ServeStatic(dir string) {
	FileServer(s.router, "/", http.Dir(dir))
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r interface {
	Get(pattern string, h http.HandlerFunc)
}, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	prefix := strings.TrimSuffix(path, "/")
	fs := http.StripPrefix(prefix, http.FileServer(root))

	r.Get(path+"*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
