// Package prompts defines the text processor's action catalog. A template is
// either a leaf carrying one instruction or a menu whose children are leaves.
package prompts

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrChildRequired    = errors.New("menu template requires a child selection")
	ErrNotAMenu         = errors.New("template has no children")
)

// Localizer resolves catalog keys. *i18n.Catalog satisfies it.
type Localizer interface {
	T(lang, key string) string
}

type Template struct {
	ID       string
	LabelKey string

	// InstructionKey is looked up in the active language. Instruction, when
	// set, is used verbatim regardless of language.
	InstructionKey string
	Instruction    string

	Children []Template
}

func (t Template) IsMenu() bool {
	return len(t.Children) > 0
}

// TemplateView is the localized form sent to the UI.
type TemplateView struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Children []TemplateView `json:"children,omitempty"`
}

type Catalog struct {
	templates []Template
	byID      map[string]int
	loc       Localizer
}

// New builds a catalog over the given templates and validates it.
func New(templates []Template, loc Localizer) (*Catalog, error) {
	c := &Catalog{
		templates: templates,
		byID:      make(map[string]int, len(templates)),
		loc:       loc,
	}
	for i, t := range templates {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		c.byID[t.ID] = i
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewDefault returns the built-in catalog.
func NewDefault(loc Localizer) (*Catalog, error) {
	return New(Builtin(), loc)
}

// Validate checks that every leaf has an instruction and every menu has
// children and no instruction of its own. Menus do not nest.
func (c *Catalog) Validate() error {
	for _, t := range c.templates {
		if t.ID == "" {
			return errors.New("template with empty id")
		}
		if t.LabelKey == "" {
			return fmt.Errorf("template %q has no label", t.ID)
		}
		if t.IsMenu() {
			if t.Instruction != "" || t.InstructionKey != "" {
				return fmt.Errorf("menu template %q must not carry an instruction", t.ID)
			}
			seen := make(map[string]bool, len(t.Children))
			for _, child := range t.Children {
				if child.IsMenu() {
					return fmt.Errorf("template %q: nested menu %q", t.ID, child.ID)
				}
				if seen[child.ID] {
					return fmt.Errorf("template %q: duplicate child %q", t.ID, child.ID)
				}
				seen[child.ID] = true
				if err := validateLeaf(child, c.loc); err != nil {
					return fmt.Errorf("template %q: %w", t.ID, err)
				}
			}
			continue
		}
		if err := validateLeaf(t, c.loc); err != nil {
			return err
		}
	}
	return nil
}

func validateLeaf(t Template, loc Localizer) error {
	if t.ID == "" {
		return errors.New("leaf template with empty id")
	}
	if t.Instruction != "" {
		return nil
	}
	if t.InstructionKey == "" {
		return fmt.Errorf("leaf template %q has no instruction", t.ID)
	}
	// Localizer echoes the key back when nothing is defined for it.
	if loc != nil && loc.T("", t.InstructionKey) == t.InstructionKey {
		return fmt.Errorf("leaf template %q: instruction %q is not defined", t.ID, t.InstructionKey)
	}
	return nil
}

// Resolve returns the concrete instruction for a leaf, or for the selected
// child of a menu, in lang.
func (c *Catalog) Resolve(id, childID, lang string) (string, error) {
	idx, ok := c.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	t := c.templates[idx]

	if !t.IsMenu() {
		if childID != "" {
			return "", fmt.Errorf("%w: %s", ErrNotAMenu, id)
		}
		return c.instruction(t, lang), nil
	}

	if childID == "" {
		return "", fmt.Errorf("%w: %s", ErrChildRequired, id)
	}
	for _, child := range t.Children {
		if child.ID == childID {
			return c.instruction(child, lang), nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, id, childID)
}

func (c *Catalog) instruction(t Template, lang string) string {
	if t.Instruction != "" {
		return t.Instruction
	}
	return c.loc.T(lang, t.InstructionKey)
}

// Localized returns the whole catalog with labels in lang.
func (c *Catalog) Localized(lang string) []TemplateView {
	views := make([]TemplateView, 0, len(c.templates))
	for _, t := range c.templates {
		v := TemplateView{ID: t.ID, Label: c.loc.T(lang, t.LabelKey)}
		for _, child := range t.Children {
			v.Children = append(v.Children, TemplateView{
				ID:    child.ID,
				Label: c.loc.T(lang, child.LabelKey),
			})
		}
		views = append(views, v)
	}
	return views
}

// Templates returns a copy of the raw template list.
func (c *Catalog) Templates() []Template {
	return append([]Template(nil), c.templates...)
}
