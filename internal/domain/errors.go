package domain

import "fmt"

const (
	ReasonMissing    = "missing"
	ReasonNotNumeric = "not numeric"
)

// DataError aborts aggregation of one request. Index is the record's
// position in the looked-up sequence.
type DataError struct {
	Index       int
	AccountCode string
	Field       string
	Value       string
	Reason      string
}

func (e *DataError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("record %d (account %q): field %s is %s: %q", e.Index, e.AccountCode, e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("record %d (account %q): field %s is %s", e.Index, e.AccountCode, e.Field, e.Reason)
}

type RenderError struct {
	Field   string
	Message string
}

func (e *RenderError) Error() string {
	if e.Field == "" {
		return "render: " + e.Message
	}
	return fmt.Sprintf("render: %s: %s", e.Field, e.Message)
}
