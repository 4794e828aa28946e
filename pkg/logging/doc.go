// Package logging provides subsystem-tagged structured logging for auditctl.
//
// It is a thin layer over log/slog. Every entry carries a "subsystem"
// attribute so output from the credential cache, the loopback listener and
// the remote API client can be told apart:
//
//	logging.InitForCLI(logging.LevelWarn, os.Stderr)
//
//	logging.Info("CredentialStore", "Loaded token record from %s", path)
//	logging.Error("AuthFlow", err, "Sign-in failed")
//
// Credential changes are recorded with Audit, which logs at INFO level with
// a SECURITY_AUDIT prefix. Token values must never be passed to any of these
// functions.
package logging
