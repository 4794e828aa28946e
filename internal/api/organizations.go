package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListOrganizations returns every organization the service manages.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := c.authed(ctx, http.MethodGet, "Organizations", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListAuditItems returns the audited users and groups of an organization.
func (c *Client) ListAuditItems(ctx context.Context, orgID string) ([]AuditItem, error) {
	var items []AuditItem
	if err := c.authed(ctx, http.MethodGet, orgPath(orgID, "AuditItems"), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddAuditItems starts auditing items.
func (c *Client) AddAuditItems(ctx context.Context, orgID string, items []AuditItem) error {
	if len(items) == 0 {
		return fmt.Errorf("no audit items to add")
	}
	return c.authed(ctx, http.MethodPost, orgPath(orgID, "AuditItems"), items, nil)
}

// RemoveAuditItems stops auditing the items with the given ids.
func (c *Client) RemoveAuditItems(ctx context.Context, orgID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("no audit items to remove")
	}
	return c.authed(ctx, http.MethodPost, orgPath(orgID, "AuditItems/remove"), ItemIDs{ItemIDs: itemIDs}, nil)
}

// ListUsers returns the directory users of an organization.
func (c *Client) ListUsers(ctx context.Context, orgID string) (*UserPage, error) {
	var page UserPage
	if err := c.authed(ctx, http.MethodGet, orgPath(orgID, "Users"), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListGroups returns the directory groups of an organization.
func (c *Client) ListGroups(ctx context.Context, orgID string) (*GroupPage, error) {
	var page GroupPage
	if err := c.authed(ctx, http.MethodGet, orgPath(orgID, "Groups"), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func orgPath(orgID, rest string) string {
	return "Organizations/" + url.PathEscape(orgID) + "/" + rest
}
