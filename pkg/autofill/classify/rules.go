package classify

import "github.com/entrhq/formforest/pkg/autofill/form"

// DefaultRules returns the built-in rule set. Order matters: card rules
// precede the generic name rules, and expiry parts precede the combined
// expiry date.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type:         form.FieldTypeCreditCardNumber,
			Autocomplete: []string{"cc-number"},
			Patterns:     []string{"*card*number*", "*cardnumber*", "*card*no*", "*cc*num*", "*ccnumber*"},
		},
		{
			Type:         form.FieldTypeCreditCardCVC,
			Autocomplete: []string{"cc-csc"},
			Patterns:     []string{"*cvc*", "*cvv*", "*csc*", "*security*code*"},
		},
		{
			Type:         form.FieldTypeCreditCardName,
			Autocomplete: []string{"cc-name"},
			Patterns:     []string{"*card*holder*", "*name*on*card*", "*cc*name*"},
		},
		{
			Type:         form.FieldTypeCreditCardExpMonth,
			Autocomplete: []string{"cc-exp-month"},
			Patterns:     []string{"*exp*month*", "*exp*mm*"},
		},
		{
			Type:         form.FieldTypeCreditCardExpYear,
			Autocomplete: []string{"cc-exp-year"},
			Patterns:     []string{"*exp*year*", "*exp*yy*"},
		},
		{
			Type:         form.FieldTypeCreditCardExpDate,
			Autocomplete: []string{"cc-exp"},
			Patterns:     []string{"*expir*", "*exp*date*", "cc-exp"},
		},
		{
			Type:         form.FieldTypePassword,
			Autocomplete: []string{"current-password", "new-password"},
			ControlTypes: []string{"password"},
			Patterns:     []string{"*password*", "*passwd*"},
		},
		{
			Type:         form.FieldTypeUsername,
			Autocomplete: []string{"username"},
			Patterns:     []string{"*username*", "*user*name*", "*login*"},
		},
		{
			Type:         form.FieldTypeEmail,
			Autocomplete: []string{"email"},
			ControlTypes: []string{"email"},
			Patterns:     []string{"*email*", "*e-mail*"},
		},
		{
			Type:         form.FieldTypePhone,
			Autocomplete: []string{"tel", "tel-national"},
			ControlTypes: []string{"tel"},
			Patterns:     []string{"*phone*", "*mobile*", "tel"},
		},
		{
			Type:         form.FieldTypeNameFirst,
			Autocomplete: []string{"given-name"},
			Patterns:     []string{"*first*name*", "*fname*", "*given*name*", "*forename*"},
		},
		{
			Type:         form.FieldTypeNameLast,
			Autocomplete: []string{"family-name"},
			Patterns:     []string{"*last*name*", "*lname*", "*surname*", "*family*name*"},
		},
		{
			Type:         form.FieldTypeNameFull,
			Autocomplete: []string{"name"},
			Patterns:     []string{"*full*name*", "name", "*your*name*"},
		},
		{
			Type:         form.FieldTypeAddressLine2,
			Autocomplete: []string{"address-line2"},
			Patterns:     []string{"*address*2*", "*addr*2*", "*apartment*", "*suite*"},
		},
		{
			Type:         form.FieldTypeAddressLine1,
			Autocomplete: []string{"address-line1", "street-address"},
			Patterns:     []string{"*address*", "*street*", "*addr*"},
		},
		{
			Type:         form.FieldTypeCity,
			Autocomplete: []string{"address-level2"},
			Patterns:     []string{"*city*", "*town*"},
		},
		{
			Type:         form.FieldTypeZip,
			Autocomplete: []string{"postal-code"},
			Patterns:     []string{"*zip*", "*postal*", "*postcode*"},
		},
		{
			Type:         form.FieldTypeCountry,
			Autocomplete: []string{"country", "country-name"},
			Patterns:     []string{"*country*"},
		},
	}
}
