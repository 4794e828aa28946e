package api

import (
	"context"
	"net/http"
)

const (
	// NotificationAuthenticationType selects OAuth mail delivery via Microsoft 365.
	NotificationAuthenticationType = "Microsoft365"

	emailSettingsPath = "AuditEmailSettings"
	sendTestPath      = "AuditEmailSettings/SendTest"
)

// NewNotificationData builds the settings body for a completed sign-in.
func NewNotificationData(from, to, subject, userID, requestID string) NotificationData {
	return NotificationData{
		EnableNotification: true,
		AuthenticationType: NotificationAuthenticationType,
		UseAuthentication:  true,
		Username:           userID,
		UseSSL:             true,
		From:               from,
		To:                 to,
		Subject:            subject,
		UserID:             userID,
		RequestID:          requestID,
	}
}

// UpdateNotificationSettings replaces the audit email settings.
func (c *Client) UpdateNotificationSettings(ctx context.Context, data NotificationData) error {
	return c.authed(ctx, http.MethodPut, emailSettingsPath, data, nil)
}

// SendTestEmail asks the service to send a test notification.
// The request has no body.
func (c *Client) SendTestEmail(ctx context.Context) error {
	return c.authed(ctx, http.MethodPost, sendTestPath, nil, nil)
}
