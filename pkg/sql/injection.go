package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a value libinjection flagged.
type InjectionCheckResult struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	Name        string // what the value was, e.g. the filter column
	Value       string
}

// CheckParameterForInjection runs libinjection over a value that is about to be
// interpolated into prompt text as a SQL literal. Returns nil when the value is clean.
//
//	CheckParameterForInjection("city", "Casablanca")            // nil
//	CheckParameterForInjection("city", "x' OR '1'='1' --")      // flagged
func CheckParameterForInjection(name, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		Fingerprint: string(fingerprint),
		Name:        name,
		Value:       value,
	}
}
