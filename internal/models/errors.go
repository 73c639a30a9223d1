package models

import "fmt"

// ConfigError reports a malformed startup configuration: a degenerate feature
// range, an empty reference dataset, a neighbour count below one, and so on.
// It is only ever returned from constructors.
type ConfigError struct {
	Component string
	Field     string
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid configuration: %s", e.Component, e.Reason)
	}
	return fmt.Sprintf("%s: invalid configuration for %q: %s", e.Component, e.Field, e.Reason)
}

// Data quality reasons
const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// DataQualityWarning notes a recognised attribute that had to be defaulted.
// It is informational and never aborts ingestion.
type DataQualityWarning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (w DataQualityWarning) String() string {
	return w.Field + " " + w.Reason
}
