package extractor

import (
	"errors"

	"github.com/dbsmedya/goextract/internal/registry"
	"github.com/dbsmedya/goextract/internal/scanner"
	"github.com/dbsmedya/goextract/internal/staging"
)

// IsFatal reports whether err aborts a whole run rather than a single
// database: a failed scan, an unreadable registry or no staging area.
func IsFatal(err error) bool {
	var scanErr *scanner.ScanError
	var corruptErr *registry.CorruptError
	var unavailableErr *staging.UnavailableError

	return errors.As(err, &scanErr) ||
		errors.As(err, &corruptErr) ||
		errors.As(err, &unavailableErr)
}
