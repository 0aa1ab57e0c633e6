// Package site serves the embedded dashboard page and chat widget.
package site

import (
	"context"
	"net/http"
)

// Register serves the embedded UI at /. More specific routes registered on
// the same mux take precedence.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
