// Package verifier checks that a staged copy is identical to its source file.
package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/dbsmedya/goextract/internal/logger"
	"github.com/dbsmedya/goextract/internal/types"
)

// VerificationMethod defines how to verify a staged copy.
type VerificationMethod string

const (
	// MethodSize compares file sizes (fast)
	MethodSize VerificationMethod = "size"
	// MethodSHA256 compares SHA256 digests of both files (reads both in full)
	MethodSHA256 VerificationMethod = "sha256"
	// MethodSkip skips verification entirely
	MethodSkip VerificationMethod = "skip"
)

// DefaultChunkSize is the read size used while hashing.
const DefaultChunkSize = 1 << 20

// ParseMethod returns the method named by s. An empty string selects MethodSize.
func ParseMethod(s string) (VerificationMethod, error) {
	switch VerificationMethod(s) {
	case "":
		return MethodSize, nil
	case MethodSize, MethodSHA256, MethodSkip:
		return VerificationMethod(s), nil
	default:
		return "", fmt.Errorf("unsupported verification method: %s", s)
	}
}

// VerifyResult holds the outcome for one staged copy.
type VerifyResult struct {
	Path         string
	StagingPath  string
	Method       VerificationMethod
	SourceSize   int64
	CopySize     int64
	SourceHash   string
	CopyHash     string
	Match        bool
	ErrorMessage string
}

// MismatchError reports a staged copy that differs from its source.
type MismatchError struct {
	Result *VerifyResult
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("staged copy of %s does not match source: %s", e.Result.Path, e.Result.ErrorMessage)
}

// Verifier compares staged copies with their sources.
type Verifier struct {
	method    VerificationMethod
	chunkSize int
	logger    *logger.Logger
}

// NewVerifier creates a verifier. An empty method defaults to MethodSize.
func NewVerifier(method VerificationMethod, log *logger.Logger) (*Verifier, error) {
	m, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Verifier{
		method:    m,
		chunkSize: DefaultChunkSize,
		logger:    log,
	}, nil
}

// Verify compares the staged copy with its source using the configured
// method. A mismatch is returned as *MismatchError together with the result.
func (v *Verifier) Verify(ctx context.Context, staged types.StagedCopy) (*VerifyResult, error) {
	result := &VerifyResult{
		Path:        staged.Descriptor.DatabasePath,
		StagingPath: staged.StagingPath,
		Method:      v.method,
	}

	if v.method == MethodSkip {
		v.logger.Debugw("Verification skipped", "path", result.Path)
		result.Match = true
		return result, nil
	}

	srcInfo, err := os.Stat(result.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	copyInfo, err := os.Stat(result.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat staged copy: %w", err)
	}
	result.SourceSize = srcInfo.Size()
	result.CopySize = copyInfo.Size()

	if result.SourceSize != result.CopySize {
		result.ErrorMessage = fmt.Sprintf("size mismatch: source=%d, copy=%d", result.SourceSize, result.CopySize)
		v.logger.Errorw("Verification FAILED", "path", result.Path, "reason", result.ErrorMessage)
		return result, &MismatchError{Result: result}
	}

	if v.method == MethodSHA256 {
		if result.SourceHash, err = v.hashFile(ctx, result.Path); err != nil {
			return nil, fmt.Errorf("failed to hash source: %w", err)
		}
		if result.CopyHash, err = v.hashFile(ctx, result.StagingPath); err != nil {
			return nil, fmt.Errorf("failed to hash staged copy: %w", err)
		}
		if result.SourceHash != result.CopyHash {
			result.ErrorMessage = fmt.Sprintf("hash mismatch: source=%s, copy=%s", result.SourceHash, result.CopyHash)
			v.logger.Errorw("Verification FAILED", "path", result.Path, "reason", result.ErrorMessage)
			return result, &MismatchError{Result: result}
		}
	}

	result.Match = true
	v.logger.Debugw("Verification PASSED", "path", result.Path, "method", v.method, "bytes", result.SourceSize)
	return result, nil
}

// hashFile reads path in chunks, checking for cancellation between them.
func (v *Verifier) hashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, v.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("verification interrupted: %w", err)
		}
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SetChunkSize sets the read size used while hashing.
func (v *Verifier) SetChunkSize(size int) {
	if size > 0 {
		v.chunkSize = size
	}
}

// GetChunkSize returns the current chunk size.
func (v *Verifier) GetChunkSize() int {
	return v.chunkSize
}

// SetLogger sets a custom logger for the verifier.
func (v *Verifier) SetLogger(log *logger.Logger) {
	v.logger = log
}

// GetMethod returns the configured verification method.
func (v *Verifier) GetMethod() VerificationMethod {
	return v.method
}
