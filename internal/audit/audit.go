// Package audit keeps a copy of every document the service imports.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// SaveImport stores an import document under a UUID4 filename prefixed
// with the UTC date and returns the filename. The document is written as
// received when it is valid JSON.
func (a *Auditor) SaveImport(document []byte) (string, error) {
	if !json.Valid(document) {
		return "", fmt.Errorf("import document is not valid JSON")
	}
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.json", time.Now().UTC().Format("20060102"), uuid.NewString())
	path := filepath.Join(a.AuditDir, filename)

	if err := os.WriteFile(path, document, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}
	log.Printf("[AUDIT] Saved import document %s", path)
	return filename, nil
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (a *Auditor) ensureAuditDir() error {
	if _, err := os.Stat(a.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.AuditDir, 0o755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}
