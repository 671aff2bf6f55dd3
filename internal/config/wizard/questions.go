package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/vsops/vsbootstrap/internal/config"
)

func domainGroup(value *string, suggestion string) *huh.Group {
	desc := "Hostname the application is served on, or this host's IP"
	placeholder := "verify.example.com"
	if suggestion != "" {
		desc = fmt.Sprintf("Leave empty to use %s", suggestion)
		placeholder = suggestion
	}
	return huh.NewGroup(
		huh.NewInput().
			Title("Domain or IP").
			Description(desc).
			Placeholder(placeholder).
			Value(value).
			Validate(validateDomain),
	).Title("Access")
}

func sslGroup(value *bool) *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().
			Title("Is SSL configured for this domain?").
			Description("Choose yes only if TLS terminates in front of the application").
			Affirmative("Yes").
			Negative("No").
			Value(value),
	).Title("TLS")
}

func passwordGroup(value *string) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Database password").
			Description("Leave empty to use the default").
			EchoMode(huh.EchoModePassword).
			Value(value).
			Validate(validatePassword),
	).Title("Database")
}

func confirmGroup(value *bool, summary string) *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().
			Title("Proceed with this configuration?").
			Description(strings.TrimRight(summary, "\n")).
			Affirmative("Proceed").
			Negative("Cancel").
			Value(value),
	)
}

// validateDomain accepts empty input (the suggestion is used) and anything
// config.ValidateDomain accepts.
func validateDomain(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if err := config.ValidateDomain(s); err != nil {
		return errDomainInvalid
	}
	return nil
}

func validatePassword(s string) error {
	if strings.ContainsAny(s, " \t\r\n") {
		return errPasswordSpace
	}
	return nil
}
