// Package storage persists templates and value presets in a local
// key-value database. Records are JSON-encoded; presets carry a secondary
// index by owning template id through their key layout.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/quotetpl/quotetpl/internal/models"
)

const (
	templatePrefix = "template:"
	presetPrefix   = "preset:"
	activeKey      = "meta:activeTemplateId"
)

// Store handles all persistence for templates and presets
type Store struct {
	db     *badger.DB
	dir    string
	mu     sync.RWMutex
	closed bool
}

// NewStore opens (creating if needed) the database under rootPath. An empty
// rootPath defaults to ~/.quotetpl.
func NewStore(rootPath string) (*Store, error) {
	if rootPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		rootPath = filepath.Join(homeDir, ".quotetpl")
	}
	dir := filepath.Join(rootPath, "db")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{db: db, dir: dir}, nil
}

// Close releases the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Dir returns the database directory
func (s *Store) Dir() string {
	return s.dir
}

// PutTemplate writes a template record
func (s *Store) PutTemplate(t *models.Template) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(templatePrefix+t.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write template %s: %w", t.ID, err)
	}
	return nil
}

// GetTemplate reads a template record; a missing id yields (nil, nil)
func (s *Store) GetTemplate(id string) (*models.Template, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(templatePrefix + id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", id, err)
	}

	var t models.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", id, err)
	}
	t.Sanitize()
	return &t, nil
}

// DeleteTemplate removes a template record and every preset it owns
func (s *Store) DeleteTemplate(id string) error {
	presets, err := s.ListPresets(id)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(templatePrefix + id)); err != nil {
			return err
		}
		for _, p := range presets {
			if err := txn.Delete([]byte(presetKey(p.TemplateID, p.ID))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	return nil
}

// ListTemplates returns every stored template, most recently updated first
func (s *Store) ListTemplates() ([]*models.Template, error) {
	var templates []*models.Template
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(templatePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var t models.Template
				if err := json.Unmarshal(val, &t); err != nil {
					// Skip corrupt records rather than failing the listing
					fmt.Fprintf(os.Stderr, "Warning: skipping unreadable template record: %v\n", err)
					return nil
				}
				t.Sanitize()
				templates = append(templates, &t)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].UpdatedAt.After(templates[j].UpdatedAt)
	})
	return templates, nil
}

// PutPreset writes a preset record under its owning template
func (s *Store) PutPreset(p *models.Preset) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(presetKey(p.TemplateID, p.ID)), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write preset %s: %w", p.ID, err)
	}
	return nil
}

// GetPreset reads a preset by id; a missing id yields (nil, nil)
func (s *Store) GetPreset(id string) (*models.Preset, error) {
	var found *models.Preset
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(presetPrefix)
		suffix := []byte(":" + id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if !bytes.HasSuffix(it.Item().Key(), suffix) {
				continue
			}
			return it.Item().Value(func(val []byte) error {
				var p models.Preset
				if err := json.Unmarshal(val, &p); err != nil {
					return fmt.Errorf("failed to decode preset %s: %w", id, err)
				}
				p.Sanitize()
				found = &p
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// DeletePreset removes a preset record
func (s *Store) DeletePreset(id string) error {
	p, err := s.GetPreset(id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(presetKey(p.TemplateID, p.ID)))
	})
	if err != nil {
		return fmt.Errorf("failed to delete preset %s: %w", id, err)
	}
	return nil
}

// ListPresets returns every preset owned by templateID, sorted by name
func (s *Store) ListPresets(templateID string) ([]*models.Preset, error) {
	var presets []*models.Preset
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(presetPrefix + templateID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p models.Preset
				if err := json.Unmarshal(val, &p); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: skipping unreadable preset record: %v\n", err)
					return nil
				}
				p.Sanitize()
				presets = append(presets, &p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	return presets, nil
}

// SetActiveTemplateID records which template is active across sessions
func (s *Store) SetActiveTemplateID(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if id == "" {
			return txn.Delete([]byte(activeKey))
		}
		return txn.Set([]byte(activeKey), []byte(id))
	})
	if err != nil {
		return fmt.Errorf("failed to record active template: %w", err)
	}
	return nil
}

// ActiveTemplateID returns the recorded active template id, or ""
func (s *Store) ActiveTemplateID() (string, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(activeKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read active template id: %w", err)
	}
	return id, nil
}

func presetKey(templateID, presetID string) string {
	return presetPrefix + templateID + ":" + presetID
}
