package models

import "time"

// Preset is a named snapshot of field values and constants, owned by a
// template. Loading a preset restores the values without touching the body
// or the field definitions.
type Preset struct {
	ID              string            `json:"id"`
	TemplateID      string            `json:"templateId"`
	Name            string            `json:"name"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	ValuesByFieldID map[string]string `json:"valuesByFieldId"`
	Constants       []Constant        `json:"constants"`
}

// NewPreset snapshots the given values and constants for templateID
func NewPreset(templateID, name string, values map[string]string, constants []Constant) *Preset {
	if name == "" {
		name = "Saved values"
	}
	now := time.Now()
	vals := make(map[string]string, len(values))
	for k, v := range values {
		vals[k] = v
	}
	consts := make([]Constant, len(constants))
	copy(consts, constants)
	return &Preset{
		ID:              NewID(),
		TemplateID:      templateID,
		Name:            name,
		CreatedAt:       now,
		UpdatedAt:       now,
		ValuesByFieldID: vals,
		Constants:       consts,
	}
}

// Sanitize applies defaulting after a store read
func (p *Preset) Sanitize() {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Name == "" {
		p.Name = "Saved values"
	}
	if p.ValuesByFieldID == nil {
		p.ValuesByFieldID = map[string]string{}
	}
	if p.Constants == nil {
		p.Constants = []Constant{}
	}
}
