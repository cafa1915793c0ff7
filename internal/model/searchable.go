package model

import "strings"

// SearchableText recomposes the canonical lowercase search text for an item
// from its contributing fields. It is the sole input to the embedding
// function and must be recomputed whenever any contributing field changes.
func SearchableText(i Item) string {
	parts := make([]string, 0, 8)
	if i.Title != "" {
		parts = append(parts, i.Title)
	}
	if i.Content != nil && *i.Content != "" {
		parts = append(parts, *i.Content)
	}
	if fn := i.Metadata.Filename(); fn != "" {
		parts = append(parts, fn)
	}
	if et := i.Metadata.ExtractedText(); et != "" {
		parts = append(parts, et)
	}
	if cap := i.Metadata.Caption(); cap != "" {
		parts = append(parts, cap)
	}
	if pt := i.Metadata.PageTitle(); pt != "" {
		parts = append(parts, pt)
	}
	if dt := i.Metadata.DocTitle(); dt != "" {
		parts = append(parts, dt)
	}
	if kw := i.Metadata.get("llm_keywords"); kw != "" {
		parts = append(parts, kw)
	}
	if sm := i.Metadata.get("llm_summary"); sm != "" {
		parts = append(parts, sm)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
