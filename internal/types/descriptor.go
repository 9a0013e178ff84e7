// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import (
	"path/filepath"
	"strings"
)

// Credentials is the connection identity shared by every database in a fleet.
// It is copied by value into each descriptor and never shared afterwards.
type Credentials struct {
	Hostname string
	Username string
	Password string
}

// DatabaseDescriptor identifies one database file and how to connect to it.
type DatabaseDescriptor struct {
	Hostname     string `json:"hostname"`
	DatabasePath string `json:"database_path"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// NewDescriptor binds a database path to a copy of the shared credentials.
func NewDescriptor(path string, creds Credentials) DatabaseDescriptor {
	return DatabaseDescriptor{
		Hostname:     creds.Hostname,
		DatabasePath: path,
		Username:     creds.Username,
		Password:     creds.Password,
	}
}

// BaseName returns the database file name without directory or extension.
// Example: "/data/siteA/db1.fdb" -> "db1"
func (d DatabaseDescriptor) BaseName() string {
	base := filepath.Base(d.DatabasePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// StagedCopy is a private copy of a database file made before querying it.
type StagedCopy struct {
	Descriptor  DatabaseDescriptor
	StagingPath string
}
