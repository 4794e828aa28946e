// Package directory exports an organization's users and groups to
// users.json and groups.json and reads them back for "audit add".
package directory
