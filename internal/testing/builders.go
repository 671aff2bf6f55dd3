package testing

import (
	"github.com/vsops/vsbootstrap/internal/config"
)

// RecordBuilder provides a fluent interface for constructing test records.
// Each method returns a new builder (immutable) for chaining.
type RecordBuilder struct {
	domain     string
	ssl        bool
	dbPassword string
	publicIP   string
}

// NewRecordBuilder creates a new RecordBuilder with sensible defaults.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		domain:     "203.0.113.10",
		dbPassword: config.DefaultDBPassword,
		publicIP:   "203.0.113.10",
	}
}

// WithDomain sets the domain.
func (b *RecordBuilder) WithDomain(domain string) *RecordBuilder {
	nb := *b
	nb.domain = domain
	return &nb
}

// WithSSL sets the SSL flag.
func (b *RecordBuilder) WithSSL(ssl bool) *RecordBuilder {
	nb := *b
	nb.ssl = ssl
	return &nb
}

// WithDBPassword sets the database password.
func (b *RecordBuilder) WithDBPassword(pw string) *RecordBuilder {
	nb := *b
	nb.dbPassword = pw
	return &nb
}

// WithPublicIP sets the detected public IP. Empty means detection failed.
func (b *RecordBuilder) WithPublicIP(ip string) *RecordBuilder {
	nb := *b
	nb.publicIP = ip
	return &nb
}

// Build returns the record.
func (b *RecordBuilder) Build() config.Record {
	return config.NewRecord(b.domain, b.ssl, b.dbPassword, b.publicIP)
}
