package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultDBPassword is the database password fallback.
const DefaultDBPassword = "postgres"

// Field names a Record field for source tracking.
type Field string

// Record fields.
const (
	FieldDomain     Field = "domain"
	FieldSSL        Field = "ssl"
	FieldDBPassword Field = "dbPassword"
	FieldPublicIP   Field = "publicIP"
)

// Source says which priority tier produced a field value.
type Source string

// Value sources, highest priority first.
const (
	SourceFlag     Source = "flag"
	SourceAnswers  Source = "answers-file"
	SourcePrompt   Source = "prompt"
	SourceEnv      Source = "environment"
	SourceDetected Source = "detected"
	SourceFallback Source = "fallback"
)

// Record is the resolved deployment configuration. It is immutable: all
// fields are unexported and only readable through accessors.
type Record struct {
	domain     string
	ssl        bool
	dbPassword string
	publicIP   string
	sources    map[Field]Source
}

// NewRecord builds a Record from already-resolved values.
func NewRecord(domain string, ssl bool, dbPassword, publicIP string) Record {
	return Record{
		domain:     domain,
		ssl:        ssl,
		dbPassword: dbPassword,
		publicIP:   publicIP,
		sources:    map[Field]Source{},
	}
}

func (r Record) withSources(s map[Field]Source) Record {
	cp := make(map[Field]Source, len(s))
	for k, v := range s {
		cp[k] = v
	}
	r.sources = cp
	return r
}

// Domain is the target domain or IP.
func (r Record) Domain() string { return r.domain }

// SSL reports whether TLS termination is configured for the domain.
func (r Record) SSL() bool { return r.ssl }

// DBPassword is the PostgreSQL password.
func (r Record) DBPassword() string { return r.dbPassword }

// PublicIP is the detected public IPv4 address, or "".
func (r Record) PublicIP() string { return r.publicIP }

// Source returns where a field value came from.
func (r Record) Source(f Field) Source { return r.sources[f] }

// AccessHost is the host used for plain HTTP URLs: the public IP when
// known, else the domain.
func (r Record) AccessHost() string {
	if r.publicIP != "" {
		return r.publicIP
	}
	return r.domain
}

// PublicURL is the base URL the application is served on.
func (r Record) PublicURL() string {
	if r.ssl {
		return "https://" + r.domain
	}
	return "http://" + r.AccessHost()
}

// Redacted renders the record for confirmation with the password masked.
func (r Record) Redacted() string {
	var b strings.Builder
	publicIP := r.publicIP
	if publicIP == "" {
		publicIP = "(not detected)"
	}
	fmt.Fprintf(&b, "  Domain/IP:    %s%s\n", r.domain, r.sourceNote(FieldDomain))
	fmt.Fprintf(&b, "  SSL:          %s%s\n", yesNo(r.ssl), r.sourceNote(FieldSSL))
	fmt.Fprintf(&b, "  DB password:  ********%s\n", r.sourceNote(FieldDBPassword))
	fmt.Fprintf(&b, "  Public IP:    %s\n", publicIP)
	return b.String()
}

func (r Record) sourceNote(f Field) string {
	if s, ok := r.sources[f]; ok {
		return fmt.Sprintf(" (%s)", s)
	}
	return ""
}

// String never exposes the password.
func (r Record) String() string {
	return fmt.Sprintf("domain=%s ssl=%t publicIP=%s dbPassword=********", r.domain, r.ssl, r.publicIP)
}

// domainRule is the validator rule for a domain answer.
const domainRule = "hostname_rfc1123|ip"

type recordView struct {
	Domain     string `validate:"required,hostname_rfc1123|ip"`
	DBPassword string `validate:"required"`
	PublicIP   string `validate:"omitempty,ipv4"`
}

var validate = validator.New()

// Validate checks field formats.
func (r Record) Validate() error {
	err := validate.Struct(recordView{Domain: r.domain, DBPassword: r.dbPassword, PublicIP: r.publicIP})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var msgs []string
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("invalid configuration: %w", err)
}

// ValidateDomain checks a domain answer with the same rule as Validate.
func ValidateDomain(s string) error {
	if err := validate.Var(s, domainRule); err != nil {
		return fmt.Errorf("%q is not a hostname or IP address", s)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
