// Package shell runs host commands for capability installs.
//
// It is the local counterpart of a remote command executor: commands run
// synchronously through os/exec, privileged ones are routed through
// non-interactive sudo, and every line of output is written to the run log
// at DEBUG. Installer scripts are fetched over HTTPS with retry before being
// handed to sh.
package shell
