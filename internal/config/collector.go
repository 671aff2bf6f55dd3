package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
)

// Environment variables consulted after explicit input.
const (
	EnvDomain     = "VSB_DOMAIN"
	EnvSSL        = "VSB_SSL"
	EnvDBPassword = "VSB_DB_PASSWORD"
)

// Inputs are explicitly supplied values. Empty strings and a nil SSL mean
// "not given".
type Inputs struct {
	Domain     string `yaml:"domain"`
	SSL        *bool  `yaml:"ssl"`
	DBPassword string `yaml:"dbPassword"`
}

// Prompter asks the operator for values interactively.
type Prompter interface {
	// Domain asks for the domain or IP. An empty answer means "use the suggestion".
	Domain(ctx context.Context, suggestion string) (string, error)
	SSL(ctx context.Context, suggestion bool) (bool, error)
	// DBPassword asks for the password. An empty answer means "use the default".
	DBPassword(ctx context.Context) (string, error)
	Confirm(ctx context.Context, summary string) (bool, error)
}

// IPDetector returns the host's public IPv4 address.
type IPDetector func(ctx context.Context) (string, error)

// Collector resolves a Record from flags, an answers file, prompts, the
// environment, and detection.
type Collector struct {
	Flags   Inputs
	Answers Inputs

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// DetectIP may be nil when detection is unavailable.
	DetectIP IPDetector
	// Prompter is nil for non-interactive runs.
	Prompter Prompter
	// AssumeYes skips the confirmation prompt.
	AssumeYes bool
	// Out receives the confirmation summary. Defaults to os.Stdout.
	Out io.Writer
}

// Collect resolves every field. It fails only when no domain can be found,
// or when a prompt is aborted.
func (c *Collector) Collect(ctx context.Context) (Record, error) {
	log := clog.FromContext(ctx)
	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	sources := map[Field]Source{}

	publicIP := ""
	if c.DetectIP != nil {
		ip, err := c.DetectIP(ctx)
		if err != nil {
			log.Warn("public IP detection failed, continuing without it", "error", err)
		} else {
			publicIP = strings.TrimSpace(ip)
			sources[FieldPublicIP] = SourceDetected
			log.Info("detected public IP", "ip", publicIP)
		}
	}

	domain, err := c.resolveDomain(ctx, getenv, publicIP, sources)
	if err != nil {
		return Record{}, err
	}

	ssl, err := c.resolveSSL(ctx, getenv, sources)
	if err != nil {
		return Record{}, err
	}

	password, err := c.resolvePassword(ctx, getenv, sources)
	if err != nil {
		return Record{}, err
	}

	rec := NewRecord(domain, ssl, password, publicIP).withSources(sources)
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	log.Debug("configuration resolved", "record", rec.String())
	return rec, nil
}

func (c *Collector) resolveDomain(ctx context.Context, getenv func(string) string, publicIP string, sources map[Field]Source) (string, error) {
	if v := strings.TrimSpace(c.Flags.Domain); v != "" {
		sources[FieldDomain] = SourceFlag
		return v, nil
	}
	if v := strings.TrimSpace(c.Answers.Domain); v != "" {
		sources[FieldDomain] = SourceAnswers
		return v, nil
	}

	env := strings.TrimSpace(getenv(EnvDomain))
	if c.Prompter != nil {
		suggestion := env
		if suggestion == "" {
			suggestion = publicIP
		}
		v, err := c.Prompter.Domain(ctx, suggestion)
		if err != nil {
			return "", fmt.Errorf("domain prompt: %w", err)
		}
		if v = strings.TrimSpace(v); v != "" {
			sources[FieldDomain] = SourcePrompt
			return v, nil
		}
	}

	if env != "" {
		sources[FieldDomain] = SourceEnv
		return env, nil
	}
	if publicIP != "" {
		sources[FieldDomain] = SourceDetected
		return publicIP, nil
	}
	return "", ErrNoDomain
}

func (c *Collector) resolveSSL(ctx context.Context, getenv func(string) string, sources map[Field]Source) (bool, error) {
	if c.Flags.SSL != nil {
		sources[FieldSSL] = SourceFlag
		return *c.Flags.SSL, nil
	}
	if c.Answers.SSL != nil {
		sources[FieldSSL] = SourceAnswers
		return *c.Answers.SSL, nil
	}

	env, envSet := ParseYes(getenv(EnvSSL))
	if c.Prompter != nil {
		v, err := c.Prompter.SSL(ctx, env)
		if err != nil {
			return false, fmt.Errorf("ssl prompt: %w", err)
		}
		sources[FieldSSL] = SourcePrompt
		return v, nil
	}

	if envSet {
		sources[FieldSSL] = SourceEnv
		return env, nil
	}
	sources[FieldSSL] = SourceFallback
	return false, nil
}

func (c *Collector) resolvePassword(ctx context.Context, getenv func(string) string, sources map[Field]Source) (string, error) {
	if c.Flags.DBPassword != "" {
		sources[FieldDBPassword] = SourceFlag
		return c.Flags.DBPassword, nil
	}
	if c.Answers.DBPassword != "" {
		sources[FieldDBPassword] = SourceAnswers
		return c.Answers.DBPassword, nil
	}

	if c.Prompter != nil {
		v, err := c.Prompter.DBPassword(ctx)
		if err != nil {
			return "", fmt.Errorf("password prompt: %w", err)
		}
		if v != "" {
			sources[FieldDBPassword] = SourcePrompt
			return v, nil
		}
	}

	if env := getenv(EnvDBPassword); env != "" {
		sources[FieldDBPassword] = SourceEnv
		return env, nil
	}
	sources[FieldDBPassword] = SourceFallback
	return DefaultDBPassword, nil
}

// Confirm prints the redacted record and asks the operator to proceed.
// A negative answer returns ErrCancelled.
func (c *Collector) Confirm(ctx context.Context, rec Record) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	summary := rec.Redacted()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Deployment configuration")
	fmt.Fprintln(out, "------------------------")
	fmt.Fprint(out, summary)
	fmt.Fprintln(out)

	if c.AssumeYes {
		return nil
	}
	if c.Prompter == nil {
		return ErrConfirmationRequired
	}
	ok, err := c.Prompter.Confirm(ctx, summary)
	if err != nil {
		return fmt.Errorf("confirmation prompt: %w", err)
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// ParseYes parses y/yes/true/1 and n/no/false/0. The second result is false
// when s is empty or unrecognised.
func ParseYes(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "on":
		return true, true
	case "n", "no", "false", "0", "off":
		return false, true
	default:
		return false, false
	}
}
