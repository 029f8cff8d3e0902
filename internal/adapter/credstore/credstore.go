package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var (
	_ port.CredentialStore = (*File)(nil)
	_ port.CredentialStore = (*Memory)(nil)
)

// record is the stored form. The token and role keys are fixed.
type record struct {
	AuthToken string `json:"authToken"`
	UserRole  string `json:"userRole"`
	UserID    int64  `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
}

func toRecord(c domain.Credential) record {
	return record{
		AuthToken: c.Token,
		UserRole:  string(c.Role),
		UserID:    c.UserID,
		Email:     c.Email,
	}
}

func (r record) credential() (domain.Credential, bool) {
	role := domain.Role(r.UserRole)
	if r.AuthToken == "" || !role.Valid() {
		return domain.Credential{}, false
	}
	return domain.Credential{
		Token: r.AuthToken, Role: role, UserID: r.UserID, Email: r.Email,
	}, true
}

// File keeps the credential in a JSON file readable only by its owner.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) LoadCredential() (domain.Credential, bool, error) {
	const op = "File.LoadCredential"

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Credential{}, false, nil
	}
	if err != nil {
		return domain.Credential{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Credential{}, false, fmt.Errorf("%s: %w", op, err)
	}
	cred, ok := r.credential()
	return cred, ok, nil
}

func (f *File) SaveCredential(c domain.Credential) error {
	const op = "File.SaveCredential"

	data, err := json.Marshal(toRecord(c))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (f *File) ClearCredential() error {
	const op = "File.ClearCredential"

	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Memory keeps the credential for the lifetime of the process.
type Memory struct {
	mu  sync.Mutex
	rec record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadCredential() (domain.Credential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.rec.credential()
	return cred, ok, nil
}

func (m *Memory) SaveCredential(c domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = toRecord(c)
	return nil
}

func (m *Memory) ClearCredential() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = record{}
	return nil
}
