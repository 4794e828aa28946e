// Package config loads the auditctl configuration.
//
// Configuration lives in a single directory, ~/.config/auditctl by default
// or the directory given with --config-path, as config.yaml:
//
//	server:
//	  address: https://vb365:4443
//	  apiVersion: v7
//	  insecureSkipVerify: true
//	  timeout: 60s
//	azure:
//	  tenantId: 00000000-0000-0000-0000-000000000000
//	  clientId: 00000000-0000-0000-0000-000000000000
//	  clientSecret: ""          # or AUDITCTL_CLIENT_SECRET
//	  redirectUrl: http://localhost:8080/callback
//	notification:
//	  from: audit@contoso.com
//	  to: security@contoso.com
//	  subject: 'Audit notification {{ now | date "2006-01-02" }}'
//	  userId: audit@contoso.com
//	auth:
//	  tokenFile: ""             # default ~/.config/auditctl/token.json
//	  callbackTimeout: 10m
//	  openBrowser: true
//
// Defaults are applied first, then the file, then the AUDITCTL_ADDRESS and
// AUDITCTL_CLIENT_SECRET environment variables. A missing file is not an
// error. Each command validates only the sections it needs.
package config
