package service

import (
	"sort"
	"strings"

	"github.com/quotetpl/quotetpl/internal/document"
	apperrors "github.com/quotetpl/quotetpl/internal/errors"
	"github.com/quotetpl/quotetpl/internal/eval"
	"github.com/quotetpl/quotetpl/internal/models"
	"github.com/quotetpl/quotetpl/internal/renderer"
)

// FieldSpec describes a field being created from a selection
type FieldSpec struct {
	Name          string
	Type          models.FieldType
	Formula       string
	ApplyToAll    bool
	CaseSensitive bool
}

// FieldResult reports a field creation: the new field and how many extra
// occurrences beyond the selection were wrapped
type FieldResult struct {
	Field models.Field
	Extra int
}

// CreateField anchors a new field onto the selected text. The selection is
// validated first; nothing is mutated when it is rejected. With ApplyToAll
// set, every other exact occurrence of the selected text is wrapped too.
func (s *Session) CreateField(sel document.Selection, spec FieldSpec) (*FieldResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDocument(); err != nil {
		return nil, err
	}

	r, err := s.doc.ResolveSelection(sel)
	if err != nil {
		return nil, apperrors.SelectionError(err.Error())
	}
	selected := s.doc.SelectionText(sel)
	if strings.TrimSpace(selected) == "" {
		return nil, apperrors.SelectionError("selection is empty")
	}

	name := spec.Name
	if strings.TrimSpace(name) == "" {
		name = selected
	}
	ftype := spec.Type
	if !ftype.IsValid() {
		ftype = models.FieldTypeText
	}
	field := models.Field{
		ID:                 models.NewID(),
		Name:               models.ToSafeName(name),
		Type:               ftype,
		MatchText:          strings.TrimSpace(document.NormalizeForSearch(selected)),
		MatchCaseSensitive: spec.CaseSensitive,
	}
	if ftype == models.FieldTypeFormula {
		field.Formula = strings.TrimSpace(spec.Formula)
	}

	if err := document.WrapRange(r, field.ID); err != nil {
		return nil, apperrors.SelectionError(err.Error())
	}

	extra := 0
	if spec.ApplyToAll {
		extra = s.doc.ApplyToAllMatches(field.ID, selected, spec.CaseSensitive)
	}

	s.tmpl.Fields = append(s.tmpl.Fields, field)
	if err := s.syncBody(); err != nil {
		return nil, err
	}
	s.scheduleSave()
	return &FieldResult{Field: field, Extra: extra}, nil
}

// ApplyField wraps every remaining exact occurrence of the field's original
// match text, returning how many were wrapped
func (s *Session) ApplyField(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDocument(); err != nil {
		return 0, err
	}
	field, ok := s.tmpl.FieldByID(id)
	if !ok {
		return 0, apperrors.NotFoundError("field")
	}
	if strings.TrimSpace(field.MatchText) == "" {
		return 0, apperrors.ValidationError("field has no match text")
	}
	n := s.doc.ApplyToAllMatches(field.ID, field.MatchText, field.MatchCaseSensitive)
	if n > 0 {
		if err := s.syncBody(); err != nil {
			return 0, err
		}
		s.scheduleSave()
	}
	return n, nil
}

// FindOccurrences returns the absolute rune offsets where text occurs in
// the active document's flattened text, so a caller can address one of them
// as a selection
func (s *Session) FindOccurrences(text string, caseSensitive bool) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireDocument(); err != nil {
		return nil, err
	}
	ix := document.BuildFullIndex(s.doc.Root())
	needle := document.NormalizeForSearch(text)
	haystack := document.NormalizeForSearch(ix.Text)
	return document.FindAll(haystack, needle, document.MatchOptions{CaseSensitive: caseSensitive}), nil
}

// UpdateField changes a field's name, type or formula
func (s *Session) UpdateField(id, name string, ftype models.FieldType, formula string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	for i, f := range s.tmpl.Fields {
		if f.ID != id {
			continue
		}
		if strings.TrimSpace(name) != "" {
			f.Name = models.ToSafeName(name)
		}
		if ftype.IsValid() {
			f.Type = ftype
		}
		if f.Type == models.FieldTypeFormula {
			f.Formula = strings.TrimSpace(formula)
		} else {
			f.Formula = ""
		}
		s.tmpl.Fields[i] = f
		s.scheduleSave()
		return nil
	}
	return apperrors.NotFoundError("field")
}

// DeleteField removes a field: its markers are unwrapped back into plain
// text first, then the field and its stored value are dropped together.
func (s *Session) DeleteField(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	idx := -1
	for i, f := range s.tmpl.Fields {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.NotFoundError("field")
	}
	if s.doc != nil {
		s.doc.Unwrap(id)
		if err := s.syncBody(); err != nil {
			return err
		}
	}
	s.tmpl.Fields = append(s.tmpl.Fields[:idx], s.tmpl.Fields[idx+1:]...)
	delete(s.tmpl.ValuesByFieldID, id)
	s.scheduleSave()
	return nil
}

// SetValue records the raw input value for a field
func (s *Session) SetValue(fieldID, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	if _, ok := s.tmpl.FieldByID(fieldID); !ok {
		return apperrors.NotFoundError("field")
	}
	s.tmpl.ValuesByFieldID[fieldID] = raw
	s.scheduleSave()
	return nil
}

// FieldDisplays computes the display value of every field on the active
// template
func (s *Session) FieldDisplays() ([]renderer.FieldDisplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return nil, err
	}
	return s.renderer.FieldDisplays(s.tmpl), nil
}

// FormulaContext builds the name-to-value map formulas evaluate against
func (s *Session) FormulaContext() (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return nil, err
	}
	return eval.BuildContext(s.engine, s.tmpl.Fields, s.tmpl.Constants, s.tmpl.ValuesByFieldID, eval.ContextOptions{}), nil
}

// DuplicateNames returns the identifiers defined more than once across
// fields and constants. Later definitions shadow earlier ones in formulas,
// so duplicates are worth surfacing to the user.
func (s *Session) DuplicateNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tmpl == nil {
		return nil
	}
	counts := map[string]int{}
	for _, c := range s.tmpl.Constants {
		if models.IsValidIdentifier(c.Name) {
			counts[c.Name]++
		}
	}
	for _, f := range s.tmpl.Fields {
		if models.IsValidIdentifier(f.Name) {
			counts[f.Name]++
		}
	}
	var dups []string
	for name, n := range counts {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// --- Constants ---

// AddConstant appends a constant available to every formula
func (s *Session) AddConstant(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return apperrors.ValidationError("constant value cannot be empty")
	}
	s.tmpl.Constants = append(s.tmpl.Constants, models.Constant{
		Name:  models.ToSafeName(name),
		Value: value,
	})
	s.scheduleSave()
	return nil
}

// UpdateConstant replaces the constant at index
func (s *Session) UpdateConstant(index int, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.tmpl.Constants) {
		return apperrors.ValidationError("constant index out of range")
	}
	if strings.TrimSpace(value) == "" {
		return apperrors.ValidationError("constant value cannot be empty")
	}
	s.tmpl.Constants[index] = models.Constant{
		Name:  models.ToSafeName(name),
		Value: value,
	}
	s.scheduleSave()
	return nil
}

// RemoveConstant deletes the constant at index
func (s *Session) RemoveConstant(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.tmpl.Constants) {
		return apperrors.ValidationError("constant index out of range")
	}
	s.tmpl.Constants = append(s.tmpl.Constants[:index], s.tmpl.Constants[index+1:]...)
	s.scheduleSave()
	return nil
}

// --- Presets ---

// SavePreset snapshots the current values and constants under a name
func (s *Session) SavePreset(name string) (*models.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return nil, err
	}
	p := models.NewPreset(s.tmpl.ID, name, s.tmpl.ValuesByFieldID, s.tmpl.Constants)
	if err := s.store.PutPreset(p); err != nil {
		return nil, apperrors.StorageError("save preset", err)
	}
	return p, nil
}

// ListPresets returns the presets saved for the active template
func (s *Session) ListPresets() ([]*models.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return nil, err
	}
	presets, err := s.store.ListPresets(s.tmpl.ID)
	if err != nil {
		return nil, apperrors.StorageError("list presets", err)
	}
	return presets, nil
}

// LoadPreset restores a preset's values and constants onto the active
// template. A preset saved for a different template is rejected.
func (s *Session) LoadPreset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTemplate(); err != nil {
		return err
	}
	p, err := s.store.GetPreset(id)
	if err != nil {
		return apperrors.StorageError("load preset", err)
	}
	if p == nil {
		return apperrors.NotFoundError("preset")
	}
	if p.TemplateID != s.tmpl.ID {
		return apperrors.ValidationError("preset belongs to a different template")
	}
	values := make(map[string]string, len(p.ValuesByFieldID))
	for k, v := range p.ValuesByFieldID {
		values[k] = v
	}
	s.tmpl.ValuesByFieldID = values
	s.tmpl.Constants = append([]models.Constant(nil), p.Constants...)
	s.scheduleSave()
	return nil
}

// DeletePreset removes a stored preset
func (s *Session) DeletePreset(id string) error {
	if err := s.store.DeletePreset(id); err != nil {
		return apperrors.StorageError("delete preset", err)
	}
	return nil
}
