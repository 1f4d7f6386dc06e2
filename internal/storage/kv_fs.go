package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSKV keeps each slot in <base>/<slot>.json. Writes go to a temp file in
// the same directory and are renamed over the old value.
type FSKV struct{ base string }

func NewFSKV(base string) (*FSKV, error) {
	if base == "" {
		base = "./data/slots"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSKV{base: base}, nil
}

func (s *FSKV) path(slot string) (string, error) {
	if slot == "" || strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." {
		return "", fmt.Errorf("invalid slot name %q", slot)
	}
	return filepath.Join(s.base, slot+".json"), nil
}

func (s *FSKV) Get(_ context.Context, slot string) ([]byte, error) {
	p, err := s.path(slot)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *FSKV) Put(_ context.Context, slot string, value []byte) error {
	p, err := s.path(slot)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(s.base, slot+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op once renamed

	if _, err := f.Write(value); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
