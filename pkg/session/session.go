// Package session keeps per-browser state in a signed cookie: the user's model
// API key (sealed) and a summary of their last result.
package session

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/anass1209/NL2SQL/pkg/crypto"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/models"
)

// Name is the session cookie name.
const Name = "nl2sql-session"

// Session value keys.
const (
	KeyAPIKey     = "api_key"
	KeyLastResult = "last_result"
)

// Summary size limits. securecookie rejects encoded values over 4096 bytes and
// its gob + double base64 encoding inflates the payload by roughly 1.8x, so the
// marshaled summary must stay under maxSummaryBytes next to a sealed API key.
const (
	maxSummaryBytes = 1500
	maxTextLength   = 300
	maxSQLLength    = 600
	maxColumns      = 50
)

// ResultSummary is the part of a PipelineResult that survives in the cookie.
// Rows are never stored.
type ResultSummary struct {
	RunID          string              `json:"run_id"`
	UserQuery      string              `json:"user_query"`
	CorrectedQuery string              `json:"corrected_query,omitempty"`
	GeneratedSQL   string              `json:"generated_sql,omitempty"`
	PreviousSQL    string              `json:"previous_sql,omitempty"`
	ColumnNames    []string            `json:"column_names"`
	RowCount       int                 `json:"row_count"`
	Error          *models.ErrorRecord `json:"error,omitempty"`
}

// Summarize condenses a result for storage. Each field is capped; use
// encodeSummary for the overall byte budget.
func Summarize(r *models.PipelineResult) ResultSummary {
	cols := r.ColumnNames
	if len(cols) > maxColumns {
		cols = cols[:maxColumns]
	}
	var errRec *models.ErrorRecord
	if r.Error != nil {
		errRec = &models.ErrorRecord{Kind: r.Error.Kind, Message: logging.TruncateString(r.Error.Message, maxTextLength)}
	}
	return ResultSummary{
		RunID:          r.RunID,
		UserQuery:      logging.TruncateString(r.UserQuery, maxTextLength),
		CorrectedQuery: logging.TruncateString(r.CorrectedQuery, maxTextLength),
		GeneratedSQL:   logging.TruncateString(r.GeneratedSQL, maxSQLLength),
		PreviousSQL:    logging.TruncateString(r.PreviousSQL, maxTextLength),
		ColumnNames:    cols,
		RowCount:       len(r.Rows),
		Error:          errRec,
	}
}

// encodeSummary marshals the summary, shedding the least useful fields until it
// fits in maxSummaryBytes.
func encodeSummary(summary ResultSummary) ([]byte, error) {
	shrink := []func(*ResultSummary){
		func(s *ResultSummary) { s.PreviousSQL = "" },
		func(s *ResultSummary) { s.CorrectedQuery = "" },
		func(s *ResultSummary) { s.ColumnNames = nil },
		func(s *ResultSummary) { s.GeneratedSQL = logging.TruncateString(s.GeneratedSQL, maxTextLength) },
		func(s *ResultSummary) { s.UserQuery = logging.TruncateString(s.UserQuery, maxTextLength/3) },
		func(s *ResultSummary) {
			if s.Error != nil {
				s.Error.Message = logging.TruncateString(s.Error.Message, maxTextLength/3)
			}
		},
	}

	for i := 0; ; i++ {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(summary); err != nil {
			return nil, err
		}
		if buf.Len() <= maxSummaryBytes || i == len(shrink) {
			return bytes.TrimSpace(buf.Bytes()), nil
		}
		shrink[i](&summary)
	}
}

// Manager reads and writes the session cookie.
type Manager struct {
	store  *sessions.CookieStore
	sealer *crypto.KeySealer
}

// NewManager creates a manager. secret signs the cookie and seals the API key;
// it must be stable across restarts. secure restricts the cookie to HTTPS.
func NewManager(secret string, secure bool) (*Manager, error) {
	sealer, err := crypto.NewKeySealer(secret)
	if err != nil {
		return nil, fmt.Errorf("session secret: %w", err)
	}

	key := sha256.Sum256([]byte(secret))
	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{store: store, sealer: sealer}, nil
}

func (m *Manager) get(r *http.Request) *sessions.Session {
	// Get returns a fresh session alongside the error when the cookie cannot be decoded.
	s, _ := m.store.Get(r, Name)
	return s
}

// APIKey returns the stored key, or "" when none is stored or it cannot be opened.
func (m *Manager) APIKey(r *http.Request) string {
	sealed, _ := m.get(r).Values[KeyAPIKey].(string)
	key, err := m.sealer.Open(sealed)
	if err != nil {
		return ""
	}
	return key
}

// SetAPIKey seals and stores the key.
func (m *Manager) SetAPIKey(w http.ResponseWriter, r *http.Request, apiKey string) error {
	sealed, err := m.sealer.Seal(apiKey)
	if err != nil {
		return fmt.Errorf("seal api key: %w", err)
	}
	s := m.get(r)
	s.Values[KeyAPIKey] = sealed
	return s.Save(r, w)
}

// ClearAPIKey removes the stored key.
func (m *Manager) ClearAPIKey(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	delete(s.Values, KeyAPIKey)
	return s.Save(r, w)
}

// SetLastResult stores a summary of the result and, when clearKey is set,
// drops the API key in the same write. If the session still cannot be saved
// the summary is dropped so the key removal is persisted regardless; the
// original save error is returned.
func (m *Manager) SetLastResult(w http.ResponseWriter, r *http.Request, result *models.PipelineResult, clearKey bool) error {
	data, err := encodeSummary(Summarize(result))
	if err != nil {
		return fmt.Errorf("encode result summary: %w", err)
	}
	s := m.get(r)
	s.Values[KeyLastResult] = string(data)
	if clearKey {
		delete(s.Values, KeyAPIKey)
	}
	if err := s.Save(r, w); err != nil {
		delete(s.Values, KeyLastResult)
		if retryErr := s.Save(r, w); retryErr != nil {
			return fmt.Errorf("save session: %w", retryErr)
		}
		return fmt.Errorf("result summary not stored: %w", err)
	}
	return nil
}

// LastResult returns the stored summary.
func (m *Manager) LastResult(r *http.Request) (*ResultSummary, bool) {
	raw, ok := m.get(r).Values[KeyLastResult].(string)
	if !ok || raw == "" {
		return nil, false
	}
	var summary ResultSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, false
	}
	return &summary, true
}
