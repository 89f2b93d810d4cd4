package tokenstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// File keeps the remember token as plain text at Path.
type File struct {
	Path string
}

// Load returns the stored token, a missing or empty file yields
// os.ErrNotExist.
func (f File) Load() (string, error) {
	contents, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(contents))
	if token == "" {
		return "", os.ErrNotExist
	}
	return token, nil
}

func (f File) Save(token string) error {
	err := os.MkdirAll(filepath.Dir(f.Path), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token), 0600)
}

// Delete removes the file, deleting a missing file is not an error.
func (f File) Delete() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Memory is a TokenStore that never touches the disk.
type Memory struct {
	Token string
}

func (m *Memory) Load() (string, error) {
	if m.Token == "" {
		return "", os.ErrNotExist
	}
	return m.Token, nil
}

func (m *Memory) Save(token string) error {
	m.Token = token
	return nil
}

func (m *Memory) Delete() error {
	m.Token = ""
	return nil
}
