package notion

// NoTitle is returned whenever a page has no usable title property.
const NoTitle = "(No title)"

// Page is a read copy of one workspace database row. The remote store
// owns the data; pages are fetched fresh at the start of every run and
// discarded afterwards.
type Page struct {
	ID         string              `json:"id"`
	Parent     Parent              `json:"parent"`
	Properties map[string]Property `json:"properties"`
}

// Parent identifies the container a page belongs to.
type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
}

// Property holds every property shape the engine reads. Exactly one of
// the typed fields is populated, indicated by Type; all accessors
// tolerate absent or malformed values and degrade to zero values, since
// upstream rows are user-edited and frequently incomplete.
type Property struct {
	Type     string        `json:"type"`
	Title    []RichText    `json:"title,omitempty"`
	RichText []RichText    `json:"rich_text,omitempty"`
	Number   *float64      `json:"number,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
	Status   *SelectOption `json:"status,omitempty"`
	Date     *DateSpec     `json:"date,omitempty"`
	Relation []RelationRef `json:"relation,omitempty"`
	Rollup   *RollupValue  `json:"rollup,omitempty"`
}

// RichText is one fragment of a title or rich_text property.
type RichText struct {
	Type      string       `json:"type,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

// TextContent carries the literal text of a RichText fragment.
type TextContent struct {
	Content string `json:"content"`
}

// SelectOption is the chosen value of a select or status property.
type SelectOption struct {
	Name string `json:"name"`
}

// DateSpec is a date property value. Start is an ISO-8601 date or
// datetime string.
type DateSpec struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// RelationRef points at one related page.
type RelationRef struct {
	ID string `json:"id"`
}

// RollupValue is the computed value of a rollup property. Only the
// shapes the engine consumes are modeled.
type RollupValue struct {
	Type   string    `json:"type"`
	Date   *DateSpec `json:"date,omitempty"`
	Number *float64  `json:"number,omitempty"`
}

// TitleText returns the first title fragment's text, or "" when the
// property carries no title.
func (p Property) TitleText() string {
	return firstText(p.Title)
}

// TextValue returns the first rich_text fragment's text, or "".
func (p Property) TextValue() string {
	return firstText(p.RichText)
}

// SelectName returns the select or status label, whichever is present.
func (p Property) SelectName() string {
	if p.Select != nil && p.Select.Name != "" {
		return p.Select.Name
	}
	if p.Status != nil && p.Status.Name != "" {
		return p.Status.Name
	}
	return ""
}

// DateStart returns the raw ISO start string of a date property, or "".
func (p Property) DateStart() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Start
}

// RelationIDs returns the ids of all related pages.
func (p Property) RelationIDs() []string {
	if len(p.Relation) == 0 {
		return nil
	}
	ids := make([]string, 0, len(p.Relation))
	for _, r := range p.Relation {
		ids = append(ids, r.ID)
	}
	return ids
}

// FirstRelationID returns the first related page id, or "".
func (p Property) FirstRelationID() string {
	if len(p.Relation) == 0 {
		return ""
	}
	return p.Relation[0].ID
}

// RollupDateStart returns the ISO start string of a date rollup, or "".
func (p Property) RollupDateStart() string {
	if p.Rollup == nil || p.Rollup.Date == nil {
		return ""
	}
	return p.Rollup.Date.Start
}

// Prop looks up a property by name. The zero Property is returned for
// unknown names so accessor chains stay safe.
func (pg *Page) Prop(name string) Property {
	if pg == nil || pg.Properties == nil {
		return Property{}
	}
	return pg.Properties[name]
}

// ExtractTitle finds the page's title property and returns its text,
// or NoTitle when the page has none.
func ExtractTitle(pg *Page) string {
	if pg == nil {
		return NoTitle
	}
	for _, prop := range pg.Properties {
		if prop.Type == "title" {
			if t := firstText(prop.Title); t != "" {
				return t
			}
		}
	}
	return NoTitle
}

func firstText(fragments []RichText) string {
	if len(fragments) == 0 {
		return ""
	}
	f := fragments[0]
	if f.Text != nil && f.Text.Content != "" {
		return f.Text.Content
	}
	return f.PlainText
}
