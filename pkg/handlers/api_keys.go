package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/session"
)

// SaveKeyResponse is the body of POST /save-api-keys.
type SaveKeyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ValidateKeyResponse is the body of POST /validate-api-key.
type ValidateKeyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// APIKeyHandler stores and probes the user's model API key.
type APIKeyHandler struct {
	sessions *session.Manager
	tester   llm.ConnectionTester
	logger   *zap.Logger
}

// NewAPIKeyHandler creates the handler.
func NewAPIKeyHandler(sessions *session.Manager, tester llm.ConnectionTester, logger *zap.Logger) *APIKeyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIKeyHandler{sessions: sessions, tester: tester, logger: logger.Named("api-keys")}
}

// RegisterRoutes registers the key routes.
func (h *APIKeyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /save-api-keys", h.Save)
	mux.HandleFunc("POST /validate-api-key", h.Validate)
}

// Save handles POST /save-api-keys with {"gemini_api_key": "..."}.
func (h *APIKeyHandler) Save(w http.ResponseWriter, r *http.Request) {
	key := firstField(requestFields(w, r), "gemini_api_key", "api_key")
	if key == "" {
		_ = WriteJSON(w, http.StatusBadRequest, SaveKeyResponse{Message: "API key is required."})
		return
	}

	if err := h.sessions.SetAPIKey(w, r, key); err != nil {
		h.logger.Error("Failed to store API key", zap.Error(err))
		_ = WriteJSON(w, http.StatusInternalServerError, SaveKeyResponse{Message: "Failed to save the API key."})
		return
	}

	_ = WriteJSON(w, http.StatusOK, SaveKeyResponse{Success: true, Message: "API key saved successfully."})
}

// Validate handles POST /validate-api-key. It probes the key in the body, or
// the stored key when the body has none.
func (h *APIKeyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	key := firstField(requestFields(w, r), "gemini_api_key", "api_key")
	if key == "" {
		key = h.sessions.APIKey(r)
	}

	res := h.tester.Test(r.Context(), key)
	h.logger.Debug("API key probed",
		zap.Bool("valid", res.Valid),
		zap.String("error_type", string(res.ErrorType)),
		zap.Int64("response_time_ms", res.ResponseTimeMs))

	_ = WriteJSON(w, http.StatusOK, ValidateKeyResponse{Valid: res.Valid, Message: res.Message})
}
