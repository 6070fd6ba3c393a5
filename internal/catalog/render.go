package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Placeholder is shown instead of cards when the catalog is empty.
const Placeholder = "尚无可显示的条目。"

// DefaultPromptForm is the id of the page form that opens the gate prompt.
const DefaultPromptForm = "gate-prompt"

// Action is one affordance on a card.
//
// Exactly one of three shapes applies: a link (Href set), a gated button
// that submits the prompt form Form (Gated), or a disabled button (Disabled).
type Action struct {
	Label    string `json:"label"`
	Href     string `json:"href,omitempty"`
	Title    string `json:"title,omitempty"`
	Form     string `json:"form,omitempty"`
	Gated    bool   `json:"gated,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Card is the view model for one catalog item.
type Card struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Category    string   `json:"category"`
	Actions     []Action `json:"actions"`
}

// Cards builds one card per item with the affordances for the gate status.
//
// Unlocked: a documentation link when the item has a docPath, plus a disabled
// download button. Locked: gated documentation and download buttons.
func Cards(items []Item, unlocked bool, promptForm string) []Card {
	if promptForm == "" {
		promptForm = DefaultPromptForm
	}
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		cards = append(cards, Card{
			Name:        it.Name,
			Description: it.Description,
			Version:     it.DisplayVersion(),
			Category:    it.DisplayCategory(),
			Actions:     actions(it, unlocked, promptForm),
		})
	}
	return cards
}

func actions(it Item, unlocked bool, promptForm string) []Action {
	if unlocked {
		var acts []Action
		if it.DocPath != "" {
			acts = append(acts, Action{Label: "使用说明", Href: it.DocPath})
		}
		return append(acts, Action{Label: "下载", Title: "稍后提供", Disabled: true})
	}
	return []Action{
		{Label: "使用说明（已上锁）", Title: "需授权", Form: promptForm, Gated: true},
		{Label: "下载（已上锁）", Title: "需授权", Form: promptForm, Gated: true},
	}
}

// Renderer renders catalog cards as HTML.
type Renderer struct {
	tmpl       *template.Template
	promptForm string
}

// NewRenderer parses the embedded card templates. Gated buttons submit the
// form with id promptForm (DefaultPromptForm if empty).
func NewRenderer(promptForm string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse card templates: %w", err)
	}
	if promptForm == "" {
		promptForm = DefaultPromptForm
	}
	return &Renderer{tmpl: tmpl, promptForm: promptForm}, nil
}

type cardsData struct {
	Cards       []Card
	Placeholder string
}

// Render writes the card list for items. An empty catalog renders only the
// placeholder element.
func (r *Renderer) Render(w io.Writer, items []Item, unlocked bool) error {
	data := cardsData{
		Cards:       Cards(items, unlocked, r.promptForm),
		Placeholder: Placeholder,
	}
	if err := r.tmpl.ExecuteTemplate(w, "cards", data); err != nil {
		return fmt.Errorf("render cards: %w", err)
	}
	return nil
}

// HTML renders the card list for embedding in a page template.
func (r *Renderer) HTML(items []Item, unlocked bool) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, items, unlocked); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
