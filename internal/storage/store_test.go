package storage

import (
	"testing"
	"time"

	"github.com/quotetpl/quotetpl/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return store
}

func TestTemplateRoundTrip(t *testing.T) {
	store := newTestStore(t)

	tmpl := models.NewTemplate("Quote")
	tmpl.Body = "<p>hello</p>"
	tmpl.Fields = []models.Field{{ID: "f1", Name: "client", Type: models.FieldTypeText}}
	tmpl.ValuesByFieldID["f1"] = "Acme"

	if err := store.PutTemplate(tmpl); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}

	got, err := store.GetTemplate(tmpl.ID)
	if err != nil {
		t.Fatalf("failed to load template: %v", err)
	}
	if got == nil {
		t.Fatal("expected template, got nil")
	}
	if got.Name != "Quote" || got.Body != "<p>hello</p>" {
		t.Errorf("round trip lost data: %+v", got)
	}
	if got.ValuesByFieldID["f1"] != "Acme" {
		t.Error("round trip lost field values")
	}
}

func TestGetTemplateMissing(t *testing.T) {
	store := newTestStore(t)
	got, err := store.GetTemplate("nope")
	if err != nil {
		t.Fatalf("missing template should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing template, got %+v", got)
	}
}

func TestListTemplatesOrder(t *testing.T) {
	store := newTestStore(t)

	older := models.NewTemplate("older")
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := models.NewTemplate("newer")
	newer.UpdatedAt = time.Now()

	if err := store.PutTemplate(older); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.PutTemplate(newer); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	templates, err := store.ListTemplates()
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
	if templates[0].Name != "newer" {
		t.Errorf("expected most recently edited first, got %q", templates[0].Name)
	}
}

func TestDeleteTemplateRemovesPresets(t *testing.T) {
	store := newTestStore(t)

	tmpl := models.NewTemplate("Quote")
	if err := store.PutTemplate(tmpl); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}
	p := models.NewPreset(tmpl.ID, "defaults", map[string]string{"f1": "x"}, nil)
	if err := store.PutPreset(p); err != nil {
		t.Fatalf("failed to save preset: %v", err)
	}

	if err := store.DeleteTemplate(tmpl.ID); err != nil {
		t.Fatalf("failed to delete template: %v", err)
	}

	got, err := store.GetTemplate(tmpl.ID)
	if err != nil || got != nil {
		t.Errorf("expected template gone, got %+v err=%v", got, err)
	}
	presets, err := store.ListPresets(tmpl.ID)
	if err != nil {
		t.Fatalf("failed to list presets: %v", err)
	}
	if len(presets) != 0 {
		t.Errorf("expected presets removed with their template, got %d", len(presets))
	}
}

func TestPresetsScopedByTemplate(t *testing.T) {
	store := newTestStore(t)

	a := models.NewPreset("tmplA", "one", map[string]string{}, nil)
	b := models.NewPreset("tmplB", "two", map[string]string{}, nil)
	if err := store.PutPreset(a); err != nil {
		t.Fatalf("failed to save preset: %v", err)
	}
	if err := store.PutPreset(b); err != nil {
		t.Fatalf("failed to save preset: %v", err)
	}

	presets, err := store.ListPresets("tmplA")
	if err != nil {
		t.Fatalf("failed to list presets: %v", err)
	}
	if len(presets) != 1 || presets[0].Name != "one" {
		t.Errorf("expected only tmplA presets, got %+v", presets)
	}

	// Lookup by preset id alone still finds it
	got, err := store.GetPreset(b.ID)
	if err != nil {
		t.Fatalf("failed to get preset: %v", err)
	}
	if got == nil || got.TemplateID != "tmplB" {
		t.Errorf("expected tmplB preset, got %+v", got)
	}
}

func TestActiveTemplatePointer(t *testing.T) {
	store := newTestStore(t)

	id, err := store.ActiveTemplateID()
	if err != nil {
		t.Fatalf("failed to read active id: %v", err)
	}
	if id != "" {
		t.Errorf("expected no active template initially, got %q", id)
	}

	if err := store.SetActiveTemplateID("abc"); err != nil {
		t.Fatalf("failed to set active id: %v", err)
	}
	id, err = store.ActiveTemplateID()
	if err != nil || id != "abc" {
		t.Errorf("expected active id abc, got %q err=%v", id, err)
	}

	if err := store.SetActiveTemplateID(""); err != nil {
		t.Fatalf("failed to clear active id: %v", err)
	}
	id, _ = store.ActiveTemplateID()
	if id != "" {
		t.Errorf("expected cleared active id, got %q", id)
	}
}
