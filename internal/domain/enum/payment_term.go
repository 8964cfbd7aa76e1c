package enum

// PaymentTerm is the contractual payment delay applied to an invoice.
// The due date derives from the invoice date plus the term's day offset.
type PaymentTerm string

const (
	TermDelai30  PaymentTerm = "DELAI_30"
	TermDelai60  PaymentTerm = "DELAI_60"
	TermDelai90  PaymentTerm = "DELAI_90"
	TermDelai120 PaymentTerm = "DELAI_120"
)

func (t PaymentTerm) String() string {
	return string(t)
}

// IsValid reports whether the value is a known payment term
func (t PaymentTerm) IsValid() bool {
	switch t {
	case TermDelai30, TermDelai60, TermDelai90, TermDelai120:
		return true
	}
	return false
}

// Days returns the due-date offset in days, 0 for an unknown term
func (t PaymentTerm) Days() int {
	switch t {
	case TermDelai30:
		return 30
	case TermDelai60:
		return 60
	case TermDelai90:
		return 90
	case TermDelai120:
		return 120
	}
	return 0
}
