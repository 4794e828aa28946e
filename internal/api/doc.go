// Package api is a small JSON client for the audit service's REST API.
//
// Paths are relative to <address>/<apiVersion>, e.g.
// https://vb365:4443/v7/Organizations. Bearer tokens come from TokenURL;
// every call, including the mail sign-in endpoints, goes through the bearer
// client of an oauth.Session, see WithSession.
package api
