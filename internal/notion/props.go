package notion

// Properties is a partial property-update payload keyed by property
// name. Values are built with the constructors below; the engine always
// writes the full derived value, never an increment.
type Properties map[string]any

// TitleProp builds a title property value.
func TitleProp(text string) any {
	return map[string]any{
		"title": []any{
			map[string]any{"text": map[string]any{"content": text}},
		},
	}
}

// RichTextProp builds a rich_text property value.
func RichTextProp(text string) any {
	return map[string]any{
		"rich_text": []any{
			map[string]any{"type": "text", "text": map[string]any{"content": text}},
		},
	}
}

// NumberProp builds a number property value.
func NumberProp(n float64) any {
	return map[string]any{"number": n}
}

// DateProp builds a date property value from an ISO start string.
func DateProp(startISO string) any {
	return map[string]any{"date": map[string]any{"start": startISO}}
}

// NullDateProp builds the explicit clear of a date property.
func NullDateProp() any {
	return map[string]any{"date": nil}
}

// SelectProp builds a select property value.
func SelectProp(name string) any {
	return map[string]any{"select": map[string]any{"name": name}}
}

// RelationProp builds a relation property value linking the given ids.
func RelationProp(ids ...string) any {
	refs := make([]any, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, map[string]any{"id": id})
	}
	return map[string]any{"relation": refs}
}

// Flatten reduces an update payload to displayable scalars keyed by
// property name: numbers stay numbers, dates become their yyyy-mm-dd
// start, text-like values become strings. Cleared dates flatten to nil.
// Run history and the dashboard feed consume this form.
func Flatten(props Properties) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for name, raw := range props {
		value, ok := raw.(map[string]any)
		if !ok {
			out[name] = raw
			continue
		}
		out[name] = flattenValue(value)
	}
	return out
}

func flattenValue(value map[string]any) any {
	if n, ok := value["number"]; ok {
		return n
	}
	if d, ok := value["date"]; ok {
		spec, ok := d.(map[string]any)
		if !ok {
			return nil // explicit clear
		}
		start, _ := spec["start"].(string)
		if len(start) > 10 {
			start = start[:10]
		}
		return start
	}
	if s, ok := value["select"].(map[string]any); ok {
		name, _ := s["name"].(string)
		return name
	}
	if fragments, ok := value["rich_text"].([]any); ok {
		return fragmentText(fragments)
	}
	if fragments, ok := value["title"].([]any); ok {
		return fragmentText(fragments)
	}
	if refs, ok := value["relation"].([]any); ok {
		ids := make([]string, 0, len(refs))
		for _, r := range refs {
			if ref, ok := r.(map[string]any); ok {
				if id, ok := ref["id"].(string); ok {
					ids = append(ids, id)
				}
			}
		}
		return ids
	}
	return value
}

func fragmentText(fragments []any) string {
	if len(fragments) == 0 {
		return ""
	}
	first, ok := fragments[0].(map[string]any)
	if !ok {
		return ""
	}
	text, ok := first["text"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := text["content"].(string)
	return content
}
