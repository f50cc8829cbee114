package pki

import "strings"

// CSRPolicy describes what a certificate request must do with a subject
// field: supply it, optionally supply it, or inherit the CA's own value.
type CSRPolicy int

const (
	// PolicyRequired means the request must supply the field.
	PolicyRequired CSRPolicy = iota + 1

	// PolicyOptional means the request may omit the field.
	PolicyOptional

	// PolicyFromCA means the field must match the CA's own value.
	PolicyFromCA
)

// String returns the policy name.
func (p CSRPolicy) String() string {
	switch p {
	case PolicyRequired:
		return "required"
	case PolicyOptional:
		return "optional"
	case PolicyFromCA:
		return "from-ca"
	default:
		return "unknown"
	}
}

// Subject field names used as keys in policy and default maps.
const (
	FieldCommonName = "common_name"
	FieldCountry    = "country"
	FieldState      = "state"
	FieldLocality   = "locality"
	FieldOrgName    = "org_name"
	FieldOrgUnit    = "org_unit"
	FieldEmail      = "email"
)

// SubjectFields lists every subject field a backend reports policy for.
var SubjectFields = []string{
	FieldCommonName,
	FieldCountry,
	FieldState,
	FieldLocality,
	FieldOrgName,
	FieldOrgUnit,
	FieldEmail,
}

// CSRPolicies maps subject field names to their policy. Fields without a
// recognized policy value carry no entry.
type CSRPolicies map[string]CSRPolicy

// Request carries the subject identity for a new certificate.
type Request struct {
	CommonName string
	Country    string
	State      string
	Locality   string
	OrgName    string
	OrgUnit    string
	Email      string
}

// Subject renders the request as an openssl -subj line, for example
// /C=HU/ST=Pest megye/L=Budapest/O=Company/CN=Domain. Empty fields are
// omitted.
func (r *Request) Subject() string {
	var b strings.Builder
	appendField := func(name, value string) {
		if value != "" {
			b.WriteString("/")
			b.WriteString(name)
			b.WriteString("=")
			b.WriteString(value)
		}
	}
	appendField("C", r.Country)
	appendField("ST", r.State)
	appendField("L", r.Locality)
	appendField("O", r.OrgName)
	appendField("OU", r.OrgUnit)
	appendField("CN", r.CommonName)
	appendField("emailAddress", r.Email)
	return b.String()
}
