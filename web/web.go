// Package web serves the game client from the public directory.
package web

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// Handler returns an http.Handler that serves the static assets under dir.
// The root and directory paths resolve to their index.html; anything that
// does not exist is a 404. Dotfiles are never served.
func Handler(dir string) (http.Handler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening public directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("public directory %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	static := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if cleanPath == "" {
			cleanPath = "."
		}
		if hasDotSegment(cleanPath) {
			http.NotFound(w, r)
			return
		}

		fi, err := fs.Stat(fsys, cleanPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if fi.IsDir() {
			if _, err := fs.Stat(fsys, path.Join(cleanPath, "index.html")); err != nil {
				http.NotFound(w, r)
				return
			}
		}
		static.ServeHTTP(w, r)
	}), nil
}

func hasDotSegment(p string) bool {
	for seg := range strings.SplitSeq(p, "/") {
		if len(seg) > 1 && seg[0] == '.' {
			return true
		}
	}
	return false
}
