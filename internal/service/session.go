// Package service provides the business logic for template management: the
// active template aggregate, field anchoring, value editing, presets,
// interchange, and rendering. All mutations funnel through a Session so the
// document tree and the stored record never drift apart.
package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/quotetpl/quotetpl/internal/clipboard"
	"github.com/quotetpl/quotetpl/internal/config"
	"github.com/quotetpl/quotetpl/internal/document"
	apperrors "github.com/quotetpl/quotetpl/internal/errors"
	"github.com/quotetpl/quotetpl/internal/eval"
	"github.com/quotetpl/quotetpl/internal/importer"
	"github.com/quotetpl/quotetpl/internal/models"
	"github.com/quotetpl/quotetpl/internal/renderer"
	"github.com/quotetpl/quotetpl/internal/storage"
)

// Version is recorded into exported template files
const Version = "1.0.0"

// Session owns the active template and its parsed document tree. Edits
// mutate the tree, re-serialize it into the template record, and schedule a
// debounced save; Flush forces any pending save to disk.
type Session struct {
	mu       sync.Mutex
	store    *storage.Store
	engine   eval.Engine
	renderer *renderer.Renderer
	cfg      *config.Config

	tmpl *models.Template
	doc  *document.Document

	saveTimer *time.Timer
	saveDelay time.Duration
	dirty     bool
}

// NewSession creates a session backed by store, restoring the previously
// active template when one is recorded.
func NewSession(store *storage.Store, cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	engine := eval.NewEngine()
	s := &Session{
		store:     store,
		engine:    engine,
		renderer:  renderer.NewRenderer(engine),
		cfg:       cfg,
		saveDelay: time.Duration(cfg.SaveDelayMs) * time.Millisecond,
	}

	id, err := store.ActiveTemplateID()
	if err != nil {
		return nil, fmt.Errorf("failed to read active template: %w", err)
	}
	if id != "" {
		if err := s.openLocked(id); err != nil {
			// A stale pointer should not prevent startup
			fmt.Fprintf(os.Stderr, "Warning: failed to restore active template %s: %v\n", id, err)
		}
	}
	return s, nil
}

// Close flushes any pending save and releases the store
func (s *Session) Close() error {
	if err := s.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to flush pending changes: %v\n", err)
	}
	return s.store.Close()
}

// ActiveTemplate returns the currently open template, or nil
func (s *Session) ActiveTemplate() *models.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tmpl
}

// Flush writes any pending debounced save immediately
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Session) flushLocked() error {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if !s.dirty || s.tmpl == nil {
		return nil
	}
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	s.tmpl.UpdatedAt = time.Now()
	if err := s.store.PutTemplate(s.tmpl); err != nil {
		return apperrors.StorageError("save template", err)
	}
	if err := s.store.SetActiveTemplateID(s.tmpl.ID); err != nil {
		return apperrors.StorageError("save active template", err)
	}
	s.dirty = false
	return nil
}

// scheduleSave marks the template dirty and arms the debounce timer
func (s *Session) scheduleSave() {
	s.dirty = true
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, func() {
		if err := s.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: autosave failed: %v\n", err)
		}
	})
}

// syncBody re-serializes the document tree into the template record
func (s *Session) syncBody() error {
	body, err := s.doc.HTML()
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	s.tmpl.Body = body
	return nil
}

func (s *Session) requireTemplate() error {
	if s.tmpl == nil {
		return apperrors.ValidationError("no template is open")
	}
	return nil
}

func (s *Session) requireDocument() error {
	if err := s.requireTemplate(); err != nil {
		return err
	}
	if s.doc == nil || !s.tmpl.HasBody() {
		return apperrors.ValidationError("template has no document")
	}
	return nil
}

// --- Template lifecycle ---

// ListTemplates returns every stored template, most recently edited first
func (s *Session) ListTemplates() ([]*models.Template, error) {
	return s.store.ListTemplates()
}

// SearchTemplates performs a fuzzy search over template names and doc names
func (s *Session) SearchTemplates(query string) ([]*models.Template, error) {
	templates, err := s.store.ListTemplates()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return templates, nil
	}

	var searchStrings []string
	for _, t := range templates {
		searchStrings = append(searchStrings, fmt.Sprintf("%s %s %s", t.Name, t.DocName, t.ID))
	}

	matches := fuzzy.Find(query, searchStrings)

	var results []*models.Template
	for _, match := range matches {
		results = append(results, templates[match.Index])
	}
	return results, nil
}

// OpenTemplate makes the template with the given id active
func (s *Session) OpenTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(); err != nil {
		return err
	}
	if err := s.openLocked(id); err != nil {
		return err
	}
	if err := s.store.SetActiveTemplateID(id); err != nil {
		return apperrors.StorageError("save active template", err)
	}
	return nil
}

func (s *Session) openLocked(id string) error {
	t, err := s.store.GetTemplate(id)
	if err != nil {
		return apperrors.StorageError("load template", err)
	}
	if t == nil {
		return apperrors.NotFoundError("template")
	}
	doc, err := document.Parse(t.Body)
	if err != nil {
		return fmt.Errorf("failed to parse template body: %w", err)
	}
	s.tmpl = t
	s.doc = doc
	s.dirty = false
	return nil
}

// NewFromText creates a template from plain text and makes it active
func (s *Session) NewFromText(name, text string) (*models.Template, error) {
	t := importer.ImportText(name, text)
	if err := s.adopt(t); err != nil {
		return nil, err
	}
	return t, nil
}

// NewFromDocx creates a template from a .docx payload and makes it active
func (s *Session) NewFromDocx(name string, data []byte) (*models.Template, error) {
	t, err := importer.ImportDocx(name, data)
	if err != nil {
		return nil, apperrors.ImportError("failed to import document", err)
	}
	if err := s.adopt(t); err != nil {
		return nil, err
	}
	return t, nil
}

// adopt installs a freshly built template as the active one and saves it.
// The session state is untouched when the body does not parse.
func (s *Session) adopt(t *models.Template) error {
	doc, err := document.Parse(t.Body)
	if err != nil {
		return apperrors.ImportError("failed to parse imported document", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(); err != nil {
		return err
	}
	s.tmpl = t
	s.doc = doc
	return s.saveLocked()
}

// DeleteTemplate removes a template and its presets. When the active
// template is deleted the most recently edited survivor becomes active.
func (s *Session) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteTemplate(id); err != nil {
		return apperrors.StorageError("delete template", err)
	}
	if s.tmpl == nil || s.tmpl.ID != id {
		return nil
	}
	s.tmpl = nil
	s.doc = nil
	s.dirty = false
	remaining, err := s.store.ListTemplates()
	if err != nil {
		return apperrors.StorageError("list templates", err)
	}
	if len(remaining) == 0 {
		if err := s.store.SetActiveTemplateID(""); err != nil {
			return apperrors.StorageError("clear active template", err)
		}
		return nil
	}
	if err := s.openLocked(remaining[0].ID); err != nil {
		return err
	}
	return s.store.SetActiveTemplateID(s.tmpl.ID)
}

// RenameTemplate changes the active template's display name
func (s *Session) RenameTemplate(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.ValidationError("template name cannot be empty")
	}
	s.tmpl.Name = name
	s.scheduleSave()
	return nil
}

// SetTextDirection sets the rendering direction of the active template
func (s *Session) SetTextDirection(dir models.TextDirection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	s.tmpl.TextDirection = dir.Normalize()
	s.scheduleSave()
	return nil
}

// SetExportFileName records the preferred PDF filename for the template
func (s *Session) SetExportFileName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	s.tmpl.ExportFileName = strings.TrimSpace(name)
	s.scheduleSave()
	return nil
}

// --- Interchange ---

// ExportTemplate serializes the active template into the versioned
// interchange format, returning the payload and a suggested filename.
func (s *Session) ExportTemplate() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return nil, "", err
	}
	export := models.NewExportFile(s.tmpl, Version)
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, "", apperrors.ExportError("failed to serialize template", err)
	}
	return data, models.SafeFileBase(s.tmpl.Name) + ".qtp.json", nil
}

// ImportTemplate loads a template from an interchange payload, assigns it a
// fresh identity, and makes it active. The current state is untouched when
// the payload cannot be used.
func (s *Session) ImportTemplate(data []byte) (*models.Template, error) {
	export, err := models.ParseExportFile(data)
	if err != nil {
		return nil, apperrors.ImportError("template file is not valid", err)
	}
	t := export.ToTemplate()
	now := time.Now()
	t.ID = models.NewID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.adopt(t); err != nil {
		return nil, err
	}
	return t, nil
}

// --- Rendering ---

// FilledHTML returns the active template's body with fields filled in
func (s *Session) FilledHTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDocument(); err != nil {
		return "", err
	}
	return s.renderer.FilledHTML(s.tmpl)
}

// FilledText returns the filled document as plain text
func (s *Session) FilledText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDocument(); err != nil {
		return "", err
	}
	return s.renderer.FilledText(s.tmpl)
}

// EffectiveDirection resolves the direction the document renders in
func (s *Session) EffectiveDirection() models.TextDirection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tmpl == nil {
		return models.DirectionLTR
	}
	return s.renderer.ResolveDirection(s.tmpl)
}

// PDFFileName returns the effective filename for a PDF export
func (s *Session) PDFFileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tmpl == nil {
		return "template.pdf"
	}
	fallback := s.tmpl.DocName
	if fallback == "" {
		fallback = s.tmpl.Name
	}
	return models.NormalizePDFFileName(s.tmpl.ExportFileName, fallback)
}

// ExportPDF writes the filled document to w as a paginated PDF
func (s *Session) ExportPDF(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDocument(); err != nil {
		return err
	}
	opts := renderer.PageOptions{
		Size:       s.cfg.PageSize,
		MarginPt:   s.cfg.MarginPt,
		FontSize:   s.cfg.FontSizePt,
		LineHeight: s.cfg.LineHeightPt,
	}
	if err := s.renderer.ExportPDF(s.tmpl, opts, w); err != nil {
		return apperrors.ExportError("failed to export PDF", err)
	}
	return nil
}

// CopyText copies the filled document text to the system clipboard
func (s *Session) CopyText() error {
	text, err := s.FilledText()
	if err != nil {
		return err
	}
	if err := clipboard.Copy(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}
