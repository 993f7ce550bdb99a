package guard

import "math/rand/v2"

// honeypotFields are plausible-looking field names a form-filling bot will
// populate. Issuance picks one at random so scrapers cannot hardcode a
// skip list against a single name; validation checks all of them, which
// also keeps submissions against older tokens honest.
var honeypotFields = []string{
	"website",
	"company_url",
	"fax_number",
	"secondary_email",
	"referral_code",
	"middle_name",
}

// RandomHoneypotField returns one rotating honeypot field name.
func RandomHoneypotField() string {
	return honeypotFields[rand.IntN(len(honeypotFields))]
}

// TrippedField returns the name of the first known honeypot field that was
// submitted with content. Humans never see these inputs; any value means a
// machine filled the form.
func TrippedField(fields map[string]string) (string, bool) {
	for _, name := range honeypotFields {
		if fields[name] != "" {
			return name, true
		}
	}
	return "", false
}
