// Package cli holds the terminal plumbing shared by the auditctl commands:
// output formats, prompts, progress spinners, exit codes and the
// notification subject template.
package cli
