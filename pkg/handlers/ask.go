package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/services"
	"github.com/anass1209/NL2SQL/pkg/session"
)

// User-facing messages.
const (
	msgEmptyQuestion = "Please enter a question."
	msgMissingKey    = "Google API Key is missing. Please provide it in the API key settings."
	msgInvalidKey    = "The provided API key is invalid. Please save a valid key and try again."
	msgDBUnavailable = "Could not connect to the database. Please try again later."
	msgRunFailed     = "An error occurred while processing your question."
	msgSuccess       = "Query executed successfully."
	msgNoResult      = "No result yet. Ask a question first."
)

// AskResponse is the body of POST /ask.
type AskResponse struct {
	Message string                 `json:"message"`
	Result  *models.PipelineResult `json:"result"`
}

// AskHandler runs questions through the pipeline.
type AskHandler struct {
	pipeline   services.QuestionAnswerer
	sessions   *session.Manager
	dbCfg      models.DBConfig
	defaultKey string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewAskHandler creates the handler. defaultKey is used when the session holds
// no API key; timeout bounds each run (0 disables it).
func NewAskHandler(pipeline services.QuestionAnswerer, sessions *session.Manager, dbCfg models.DBConfig, defaultKey string, timeout time.Duration, logger *zap.Logger) *AskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AskHandler{
		pipeline:   pipeline,
		sessions:   sessions,
		dbCfg:      dbCfg,
		defaultKey: defaultKey,
		timeout:    timeout,
		logger:     logger.Named("ask"),
	}
}

// RegisterRoutes registers /ask and /result.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ask", h.Ask)
	mux.HandleFunc("GET /result", h.Result)
}

// credential picks the session key, then the server-wide one.
func (h *AskHandler) credential(r *http.Request) string {
	if key := h.sessions.APIKey(r); key != "" {
		return key
	}
	return h.defaultKey
}

// Ask handles POST /ask. The question comes from the "query" field of a form or JSON body.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	question := firstField(requestFields(w, r), "query", "question")
	if question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "empty_question", msgEmptyQuestion)
		return
	}

	credential := h.credential(r)
	if credential == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "api_key_missing", msgMissingKey)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := h.pipeline.Run(ctx, question, h.dbCfg, credential)

	status, message := http.StatusOK, msgSuccess
	clearKey := false
	if result.Error != nil {
		switch result.Error.Kind {
		case models.ErrorKindAPIKeyInvalid:
			status, message, clearKey = http.StatusUnauthorized, msgInvalidKey, true
		case models.ErrorKindConnectionFailed:
			status, message = http.StatusServiceUnavailable, msgDBUnavailable
		default:
			message = msgRunFailed
		}
	}

	if err := h.sessions.SetLastResult(w, r, result, clearKey); err != nil {
		h.logger.Warn("Failed to store result in session",
			zap.String("run_id", result.RunID),
			zap.Error(err))
	}

	if err := WriteJSON(w, status, AskResponse{Message: message, Result: result}); err != nil {
		h.logger.Error("Failed to encode ask response", zap.Error(err))
	}
}

// Result handles GET /result with the summary of the caller's last run.
func (h *AskHandler) Result(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.sessions.LastResult(r)
	if !ok {
		_ = ErrorResponse(w, http.StatusNotFound, "no_result", msgNoResult)
		return
	}
	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to encode result summary", zap.Error(err))
	}
}
