package notion

import "time"

// Properties is a page property payload keyed by property name.
type Properties map[string]any

func textContent(content string) map[string]any {
	return map[string]any{"text": map[string]any{"content": content}}
}

// TitleProperty builds a title property value.
func TitleProperty(content string) any {
	return map[string]any{"title": []any{textContent(content)}}
}

// RichTextProperty builds a rich_text property value.
func RichTextProperty(content string) any {
	return map[string]any{"rich_text": []any{textContent(content)}}
}

// NumberProperty builds a number property value.
func NumberProperty(value float64) any {
	return map[string]any{"number": value}
}

// SelectProperty builds a select property value.
func SelectProperty(name string) any {
	return map[string]any{"select": map[string]any{"name": name}}
}

// DateProperty builds a date property value. When withTime is false only the
// calendar date is sent.
func DateProperty(t time.Time, withTime bool) any {
	layout := "2006-01-02"
	if withTime {
		layout = time.RFC3339
	}
	return map[string]any{"date": map[string]any{"start": t.Format(layout)}}
}

// RelationProperty builds a relation property value pointing at one page.
func RelationProperty(pageID string) any {
	return map[string]any{"relation": []any{map[string]any{"id": pageID}}}
}

type queryRequest struct {
	Filter      any    `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type page struct {
	ID         string                  `json:"id"`
	Properties map[string]pageProperty `json:"properties"`
}

type pageProperty struct {
	Type     string          `json:"type"`
	Title    []richTextValue `json:"title"`
	RichText []richTextValue `json:"rich_text"`
}

type richTextValue struct {
	PlainText string `json:"plain_text"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

// text returns the first text fragment of a title or rich_text property.
func (p pageProperty) text() string {
	var fragments []richTextValue
	switch p.Type {
	case "title":
		fragments = p.Title
	case "rich_text":
		fragments = p.RichText
	}
	if len(fragments) == 0 {
		return ""
	}
	if fragments[0].Text.Content != "" {
		return fragments[0].Text.Content
	}
	return fragments[0].PlainText
}

type createPageRequest struct {
	Parent     map[string]string `json:"parent"`
	Properties Properties        `json:"properties"`
}

type createPageResponse struct {
	ID string `json:"id"`
}
