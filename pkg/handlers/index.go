package handlers

import (
	"io/fs"
	"net/http"

	"go.uber.org/zap"
)

// IndexHandler serves the single-page UI.
type IndexHandler struct {
	page   []byte
	logger *zap.Logger
}

// NewIndexHandler reads index.html from assets once at startup.
func NewIndexHandler(assets fs.FS, logger *zap.Logger) (*IndexHandler, error) {
	page, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexHandler{page: page, logger: logger}, nil
}

// RegisterRoutes registers GET /.
func (h *IndexHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
}

// Index writes the page.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(h.page); err != nil {
		h.logger.Debug("Failed to write index page", zap.Error(err))
	}
}
