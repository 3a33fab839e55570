package notion

// Filter is a structured query predicate: a tree of and/or nodes over
// field clauses. Only the clause shapes the engine actually issues are
// provided; a nil Filter queries all rows.
type Filter map[string]any

// SelectEquals matches rows whose select property equals value.
func SelectEquals(property, value string) Filter {
	return Filter{
		"property": property,
		"select":   map[string]any{"equals": value},
	}
}

// RelationContains matches rows whose relation property contains the
// given page id.
func RelationContains(property, pageID string) Filter {
	return Filter{
		"property": property,
		"relation": map[string]any{"contains": pageID},
	}
}

// And combines filters into a conjunction.
func And(filters ...Filter) Filter {
	return Filter{"and": clauseList(filters)}
}

// Or combines filters into a disjunction.
func Or(filters ...Filter) Filter {
	return Filter{"or": clauseList(filters)}
}

func clauseList(filters []Filter) []any {
	clauses := make([]any, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, map[string]any(f))
	}
	return clauses
}
