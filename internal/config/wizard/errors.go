package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errDomainInvalid = errors.New("must be a hostname like verify.example.com or an IP address")
	errPasswordSpace = errors.New("password must not contain whitespace")
)
