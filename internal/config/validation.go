package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

func (ve *ValidationErrors) address(field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		ve.Add(field, "must be an email address")
	}
}

// ValidateServer checks what every command talking to the service needs.
func (c AuditctlConfig) ValidateServer() error {
	var errs ValidationErrors
	errs.required("server.address", c.Server.Address)
	if c.Server.Address != "" {
		u, err := url.Parse(c.Server.Address)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			errs.Add("server.address", "must be an http(s) URL such as https://vb365:4443")
		}
	}
	if c.Server.Timeout < 0 {
		errs.Add("server.timeout", "must not be negative")
	}
	return errs.orNil()
}

// ValidateLogin checks what the username and password login needs.
func (c AuditctlConfig) ValidateLogin() error {
	errs := asValidationErrors(c.ValidateServer())
	errs.required("server.username", c.Server.Username)
	if c.Server.Password == "" {
		errs.Add("server.password", fmt.Sprintf("is required, set %s", EnvPassword))
	}
	return errs.orNil()
}

// ValidateSignIn checks what the browser sign-in needs.
func (c AuditctlConfig) ValidateSignIn() error {
	errs := asValidationErrors(c.ValidateServer())
	errs.required("azure.tenantId", c.Azure.TenantID)
	errs.required("azure.clientId", c.Azure.ClientID)
	errs.required("azure.clientSecret", c.Azure.ClientSecret)
	errs.required("azure.redirectUrl", c.Azure.RedirectURL)
	return errs.orNil()
}

// ValidateNotification checks what "notifications setup" needs.
func (c AuditctlConfig) ValidateNotification() error {
	errs := asValidationErrors(c.ValidateSignIn())
	errs.address("notification.from", c.Notification.From)
	errs.address("notification.to", c.Notification.To)
	errs.required("notification.userId", c.Notification.UserID)
	return errs.orNil()
}

func (ve ValidationErrors) orNil() error {
	if !ve.HasErrors() {
		return nil
	}
	return ve
}

func asValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	return err.(ValidationErrors)
}
