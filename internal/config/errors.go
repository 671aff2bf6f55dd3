package config

import "errors"

var (
	// ErrNoDomain means no domain or IP could be resolved by any method.
	ErrNoDomain = errors.New("no domain or IP address could be resolved: pass --domain, set VSB_DOMAIN, or run on EC2 with instance metadata enabled")

	// ErrCancelled means the operator declined the confirmation prompt.
	ErrCancelled = errors.New("cancelled by user")

	// ErrConfirmationRequired means stdin is not interactive and --yes was not given.
	ErrConfirmationRequired = errors.New("confirmation required: stdin is not a terminal, pass --yes to proceed")

	// ErrMissingDirectory means the platform directory layout is incomplete.
	ErrMissingDirectory = errors.New("missing prerequisite directory")
)
