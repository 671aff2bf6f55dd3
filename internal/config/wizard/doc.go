// Package wizard provides the interactive prompts for vsbootstrap.
//
// Prompter implements config.Prompter on top of charmbracelet/huh forms.
// Aborting a form (Ctrl+C or Esc) is reported as config.ErrCancelled.
// WriteAnswers saves a resolved configuration as an answers file for
// non-interactive re-runs.
package wizard
