package models

import "strings"

// Action is the kind of request the user made.
type Action string

const (
	ActionList    Action = "list"
	ActionCount   Action = "count"
	ActionFind    Action = "find"
	ActionShow    Action = "show"
	ActionUnknown Action = "unknown"
)

// ParseAction maps free text from the model onto an Action.
func ParseAction(s string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionList:
		return ActionList
	case ActionCount:
		return ActionCount
	case ActionFind:
		return ActionFind
	case ActionShow:
		return ActionShow
	default:
		return ActionUnknown
	}
}

// Language is the language the question was asked in.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageFrench  Language = "french"
)

// ParseLanguage maps free text from the model onto a Language. Anything
// that is not recognisably French is treated as English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "french", "fr", "français", "francais":
		return LanguageFrench
	default:
		return LanguageEnglish
	}
}

// IntentRecord is the structured reading of a question produced by the intent analyzer.
type IntentRecord struct {
	CorrectedText  string            `json:"correction"`
	Tables         []string          `json:"tables"`
	Filters        map[string]string `json:"filters"`
	Action         Action            `json:"actions"`
	Language       Language          `json:"language"`
	AnalysisFailed bool              `json:"analysis_failed,omitempty"`
	RawModelOutput *string           `json:"raw_model_output,omitempty"`
	FailureReason  string            `json:"failure_reason,omitempty"`
}

// DefaultIntent returns the record used when analysis produced nothing usable.
func DefaultIntent() *IntentRecord {
	return &IntentRecord{
		Tables:   []string{},
		Filters:  map[string]string{},
		Action:   ActionUnknown,
		Language: LanguageEnglish,
	}
}

// FailedIntent returns the default record flagged as failed.
// raw is the model reply when there was one.
func FailedIntent(reason string, raw *string) *IntentRecord {
	intent := DefaultIntent()
	intent.AnalysisFailed = true
	intent.FailureReason = reason
	intent.RawModelOutput = raw
	return intent
}

// HasTable reports whether the intent names the table, ignoring case.
func (i *IntentRecord) HasTable(name string) bool {
	for _, t := range i.Tables {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

// Filter returns the value of a filter, ignoring the case of the column name.
func (i *IntentRecord) Filter(column string) (string, bool) {
	if v, ok := i.Filters[column]; ok {
		return v, true
	}
	for k, v := range i.Filters {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return "", false
}

// CorrectedOr returns the corrected question, or fallback when there is none.
func (i *IntentRecord) CorrectedOr(fallback string) string {
	if i.CorrectedText == "" {
		return fallback
	}
	return i.CorrectedText
}
