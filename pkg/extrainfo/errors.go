package extrainfo

import "fmt"

// StructureError reports a violation of the descriptor's line-order
// contract: identity line missing or not first, signature line missing
// or not last, or content outside the identity..signature span.
type StructureError struct {
	Reason string
	Line   string // Offending raw line, if one exists
}

func (e *StructureError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("extrainfo: %s: %q", e.Reason, e.Line)
	}
	return fmt.Sprintf("extrainfo: %s", e.Reason)
}

// FieldError reports a recognized keyword whose value failed its
// grammar, tagged with enough context to render a diagnostic.
type FieldError struct {
	Keyword string
	Value   string
	Reason  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("extrainfo: %s line has %s: %q", e.Keyword, e.Reason, e.Value)
}
