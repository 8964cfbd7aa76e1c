package enum

// InvoiceStatus represents the workflow status of an invoice
type InvoiceStatus string

const (
	// StatusSaisie is the initial draft status, set at creation by a U1 user
	StatusSaisie InvoiceStatus = "SAISIE"
	// StatusEnValidationV1 means the invoice awaits level-1 validation
	StatusEnValidationV1 InvoiceStatus = "EN_VALIDATION_V1"
	// StatusEnValidationV2 means the invoice awaits level-2 validation
	StatusEnValidationV2 InvoiceStatus = "EN_VALIDATION_V2"
	// StatusEnTresorerie means the invoice awaits treasury processing
	StatusEnTresorerie InvoiceStatus = "EN_TRESORERIE"
	// StatusValidee is a legacy status kept for data compatibility with the
	// previous system; no transition produces it anymore
	StatusValidee InvoiceStatus = "VALIDEE"
	// StatusRejetee is terminal, reachable from either validation level
	StatusRejetee InvoiceStatus = "REJETEE"
	// StatusPayee is terminal
	StatusPayee InvoiceStatus = "PAYEE"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case StatusSaisie, StatusEnValidationV1, StatusEnValidationV2,
		StatusEnTresorerie, StatusValidee, StatusRejetee, StatusPayee:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s InvoiceStatus) IsTerminal() bool {
	return s == StatusPayee || s == StatusRejetee
}
