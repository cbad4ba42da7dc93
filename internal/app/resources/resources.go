// internal/app/resources/resources.go
package resources

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

// Embed the browser client. index.html boots the app; js/css carry the
// converter UI.
//
//go:embed assets/index.html assets/css/*.css assets/js/*.js
var assetsFS embed.FS

// Assets returns the embedded assets filesystem.
func Assets() fs.FS {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic("failed to get assets subdirectory: " + err.Error())
	}
	return sub
}

// AssetsHandler returns an http.Handler that serves embedded assets.
// The prefix is stripped from the request path before looking up files.
func AssetsHandler(prefix string) http.Handler {
	fileServer := http.FileServer(http.FS(Assets()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, prefix)
		path = strings.TrimPrefix(path, "/")

		r.URL.Path = "/" + path
		fileServer.ServeHTTP(w, r)
	})
}

// SPAHandler serves the client entry asset for every path it receives.
// Mounted as the router's catch-all so unknown paths render the client,
// which owns routing from there.
func SPAHandler() http.Handler {
	index, err := assetsFS.ReadFile("assets/index.html")
	if err != nil {
		panic("failed to read embedded index.html: " + err.Error())
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(index)
	})
}
