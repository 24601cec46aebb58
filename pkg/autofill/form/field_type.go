package form

// FieldType is the classified meaning of a form field.
type FieldType string

const (
	FieldTypeUnknown            FieldType = "unknown"
	FieldTypeNameFull           FieldType = "name_full"
	FieldTypeNameFirst          FieldType = "name_first"
	FieldTypeNameLast           FieldType = "name_last"
	FieldTypeEmail              FieldType = "email"
	FieldTypePhone              FieldType = "phone"
	FieldTypeAddressLine1       FieldType = "address_line1"
	FieldTypeAddressLine2       FieldType = "address_line2"
	FieldTypeCity               FieldType = "city"
	FieldTypeZip                FieldType = "zip"
	FieldTypeCountry            FieldType = "country"
	FieldTypeCreditCardName     FieldType = "cc_name"
	FieldTypeCreditCardNumber   FieldType = "cc_number"
	FieldTypeCreditCardExpMonth FieldType = "cc_exp_month"
	FieldTypeCreditCardExpYear  FieldType = "cc_exp_year"
	FieldTypeCreditCardExpDate  FieldType = "cc_exp_date"
	FieldTypeCreditCardCVC      FieldType = "cc_cvc"
	FieldTypeUsername           FieldType = "username"
	FieldTypePassword           FieldType = "password"
)

var knownFieldTypes = map[FieldType]bool{
	FieldTypeUnknown:            true,
	FieldTypeNameFull:           true,
	FieldTypeNameFirst:          true,
	FieldTypeNameLast:           true,
	FieldTypeEmail:              true,
	FieldTypePhone:              true,
	FieldTypeAddressLine1:       true,
	FieldTypeAddressLine2:       true,
	FieldTypeCity:               true,
	FieldTypeZip:                true,
	FieldTypeCountry:            true,
	FieldTypeCreditCardName:     true,
	FieldTypeCreditCardNumber:   true,
	FieldTypeCreditCardExpMonth: true,
	FieldTypeCreditCardExpYear:  true,
	FieldTypeCreditCardExpDate:  true,
	FieldTypeCreditCardCVC:      true,
	FieldTypeUsername:           true,
	FieldTypePassword:           true,
}

// IsKnown reports whether t is one of the declared field types.
func (t FieldType) IsKnown() bool {
	return knownFieldTypes[t]
}

// IsSensitive reports whether the default policy forbids filling a field of
// this type from the main frame's origin into another frame's form.
func (t FieldType) IsSensitive() bool {
	switch t {
	case FieldTypeCreditCardNumber, FieldTypeCreditCardCVC:
		return true
	default:
		return false
	}
}

// FieldTypeMap maps fields of a browser form to their classified types.
// Missing entries read as FieldTypeUnknown.
type FieldTypeMap map[FieldGlobalID]FieldType

// Lookup returns the type of id or FieldTypeUnknown.
func (m FieldTypeMap) Lookup(id FieldGlobalID) FieldType {
	if t, ok := m[id]; ok {
		return t
	}
	return FieldTypeUnknown
}
