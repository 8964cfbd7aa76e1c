package enum

// LegalForm is the legal form of the supplier company
type LegalForm string

const (
	FormSARL                    LegalForm = "SARL"
	FormSAS                     LegalForm = "SAS"
	FormSA                      LegalForm = "SA"
	FormEURL                    LegalForm = "EURL"
	FormSNC                     LegalForm = "SNC"
	FormEntrepriseIndividuelle  LegalForm = "ENTREPRISE_INDIVIDUELLE"
	FormMicroEntreprise         LegalForm = "MICRO_ENTREPRISE"
	FormAssociation             LegalForm = "ASSOCIATION"
	FormAutre                   LegalForm = "AUTRE"
)

func (f LegalForm) String() string {
	return string(f)
}

// IsValid reports whether the value is a known legal form
func (f LegalForm) IsValid() bool {
	switch f {
	case FormSARL, FormSAS, FormSA, FormEURL, FormSNC,
		FormEntrepriseIndividuelle, FormMicroEntreprise, FormAssociation, FormAutre:
		return true
	}
	return false
}
