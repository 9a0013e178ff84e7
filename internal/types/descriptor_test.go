package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDescriptor_CopiesCredentials(t *testing.T) {
	creds := Credentials{Hostname: "localhost", Username: "SYSDBA", Password: "masterkey"}
	d := NewDescriptor("/data/siteA/db1.fdb", creds)

	creds.Password = "changed"

	assert.Equal(t, "localhost", d.Hostname)
	assert.Equal(t, "/data/siteA/db1.fdb", d.DatabasePath)
	assert.Equal(t, "SYSDBA", d.Username)
	assert.Equal(t, "masterkey", d.Password)
}

func TestDatabaseDescriptor_BaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/siteA/db1.fdb", "db1"},
		{"/data/siteA/DB2.FDB", "DB2"},
		{"/data/archive.2023.fdb", "archive.2023"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := DatabaseDescriptor{DatabasePath: tt.path}
			assert.Equal(t, tt.want, d.BaseName())
		})
	}
}
