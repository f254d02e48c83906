package validation

// Custom tags
const (
	// TagIdentifier accepts names made of letters, digits, '_' and '-'
	TagIdentifier = "identifier"
)

// Field messages returned by FormatValidationError
const (
	MsgRequired       = "This field is required"
	MsgMaxFmt         = "Must be at most %s characters"
	MsgMinFmt         = "Must be at least %s characters"
	MsgOneOfFmt       = "Must be one of: %s"
	MsgIdentifier     = "May only contain letters, digits, '_' and '-'"
	MsgGreaterThanFmt = "Must be greater than %s"
	MsgAtLeastFmt     = "Must be at least %s"
	MsgInvalidValue   = "Invalid value"
	MsgInvalidFormat  = "Invalid request format"
)
