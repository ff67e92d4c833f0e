// Package web holds the embedded page templates, stylesheet and robots.txt.
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"time"
)

var (
	//go:embed templates
	templateFiles embed.FS

	//go:embed static
	staticFiles embed.FS

	//go:embed robots.txt
	robotsTxt []byte
)

// builtAt stands in for the modification time of embedded files.
var builtAt = time.Now()

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func Templates() fs.FS {
	return mustSub(templateFiles, "templates")
}

// StaticHandler serves /static/ from the embedded assets.
func StaticHandler() http.Handler {
	files := http.StripPrefix("/static/", http.FileServerFS(mustSub(staticFiles, "static")))
	return readOnly("public, max-age=3600, must-revalidate", files)
}

func RobotsTxtHandler() http.Handler {
	return readOnly("public, max-age=86400", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		http.ServeContent(w, r, "robots.txt", builtAt, bytes.NewReader(robotsTxt))
	}))
}

// readOnly answers 405 to anything but GET and HEAD and sets Cache-Control.
func readOnly(cacheControl string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			w.Header().Set("Cache-Control", cacheControl)
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})
}
