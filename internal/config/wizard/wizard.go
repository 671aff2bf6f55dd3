package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/vsops/vsbootstrap/internal/config"
)

// Prompter asks for configuration values with huh forms.
type Prompter struct {
	// Accessible switches huh to line-based prompts for screen readers and
	// dumb terminals.
	Accessible bool
}

var _ config.Prompter = (*Prompter)(nil)

// NewPrompter creates a Prompter.
func NewPrompter(accessible bool) *Prompter {
	return &Prompter{Accessible: accessible}
}

// Domain asks for the domain or IP. The suggestion is shown as placeholder
// and an empty answer keeps it.
func (p *Prompter) Domain(ctx context.Context, suggestion string) (string, error) {
	var domain string
	err := p.run(ctx, domainGroup(&domain, suggestion))
	return domain, err
}

// SSL asks whether TLS is configured for the domain.
func (p *Prompter) SSL(ctx context.Context, suggestion bool) (bool, error) {
	ssl := suggestion
	err := p.run(ctx, sslGroup(&ssl))
	return ssl, err
}

// DBPassword asks for the database password. An empty answer keeps the default.
func (p *Prompter) DBPassword(ctx context.Context) (string, error) {
	var password string
	err := p.run(ctx, passwordGroup(&password))
	return password, err
}

// Confirm shows the summary and asks to proceed.
func (p *Prompter) Confirm(ctx context.Context, summary string) (bool, error) {
	proceed := false
	err := p.run(ctx, confirmGroup(&proceed, summary))
	return proceed, err
}

func (p *Prompter) run(ctx context.Context, group *huh.Group) error {
	err := huh.NewForm(group).
		WithAccessible(p.Accessible).
		RunWithContext(ctx)
	return mapAbort(err)
}

// mapAbort turns a user abort into config.ErrCancelled.
func mapAbort(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, huh.ErrUserAborted) {
		return config.ErrCancelled
	}
	return fmt.Errorf("prompt failed: %w", err)
}
