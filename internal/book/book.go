// Package book models the mdBook document tree exchanged with preprocessors.
//
// Only the parts the rewriter needs are decoded: the book's sections, each
// chapter's content and sub items. Every other field is kept as raw JSON and
// written back unchanged, so unknown item kinds and future mdBook fields
// survive a round trip.
package book

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	sectionsKey = "sections"
	chapterKey  = "Chapter"
	contentKey  = "content"
	subItemsKey = "sub_items"
	nameKey     = "name"
)

// Book is the root of the document tree.
type Book struct {
	Sections []Item

	hasSections bool
	fields      map[string]json.RawMessage
	raw         json.RawMessage
}

// Item is either a chapter or an opaque item such as a separator or a part
// title. Exactly one of Chapter and Other is set.
type Item struct {
	Chapter *Chapter
	Other   json.RawMessage

	siblings map[string]json.RawMessage
}

// Chapter is a node with markdown content and nested items.
type Chapter struct {
	Content  *string
	SubItems []Item

	hasSubItems bool
	fields      map[string]json.RawMessage
}

// IsChapter reports whether the item is a chapter.
func (i *Item) IsChapter() bool {
	return i.Chapter != nil
}

// Name returns the chapter name. A name that is missing or is not a string
// yields an empty string; use Field to inspect the raw value.
func (c *Chapter) Name() string {
	raw, ok := c.fields[nameKey]
	if !ok || !isString(raw) {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return ""
	}
	return name
}

// Field returns a raw chapter field other than content and sub_items.
func (c *Chapter) Field(key string) (json.RawMessage, bool) {
	raw, ok := c.fields[key]
	return raw, ok
}

// UnmarshalJSON decodes a book. Payloads that are not objects are kept as is.
func (b *Book) UnmarshalJSON(data []byte) error {
	fields, ok := decodeObject(data)
	if !ok {
		b.raw = append(json.RawMessage(nil), data...)
		return nil
	}

	if raw, found := fields[sectionsKey]; found && isArray(raw) {
		if err := json.Unmarshal(raw, &b.Sections); err != nil {
			return fmt.Errorf("decode sections: %w", err)
		}
		b.hasSections = true
		delete(fields, sectionsKey)
	}

	b.fields = fields
	return nil
}

// MarshalJSON encodes the book with all untouched fields.
func (b Book) MarshalJSON() ([]byte, error) {
	if b.fields == nil && b.raw != nil {
		return b.raw, nil
	}

	out := make(map[string]any, len(b.fields)+1)
	for k, v := range b.fields {
		out[k] = v
	}
	if b.hasSections {
		out[sectionsKey] = itemsOrEmpty(b.Sections)
	}

	return encode(out)
}

// UnmarshalJSON decodes an item, keeping anything but a chapter opaque.
//
// Any object with an object under "Chapter" is a chapter, even when other
// keys sit next to it. Those keys are kept and written back with the chapter.
func (i *Item) UnmarshalJSON(data []byte) error {
	if fields, ok := decodeObject(data); ok {
		if raw, found := fields[chapterKey]; found && isObject(raw) {
			var ch Chapter
			if err := json.Unmarshal(raw, &ch); err != nil {
				return err
			}
			delete(fields, chapterKey)
			i.Chapter = &ch
			if len(fields) > 0 {
				i.siblings = fields
			}
			return nil
		}
	}

	i.Other = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON encodes the item. Opaque items are written back byte for byte.
func (i Item) MarshalJSON() ([]byte, error) {
	if i.Chapter == nil {
		if i.Other == nil {
			return []byte("null"), nil
		}
		return i.Other, nil
	}
	if len(i.siblings) == 0 {
		return encode(map[string]*Chapter{chapterKey: i.Chapter})
	}

	out := make(map[string]any, len(i.siblings)+1)
	for k, v := range i.siblings {
		out[k] = v
	}
	out[chapterKey] = i.Chapter
	return encode(out)
}

// UnmarshalJSON decodes a chapter. A content that is not a string and
// sub_items that are not an array are kept raw.
func (c *Chapter) UnmarshalJSON(data []byte) error {
	fields, ok := decodeObject(data)
	if !ok {
		return fmt.Errorf("chapter is not an object")
	}

	if raw, found := fields[contentKey]; found && isString(raw) {
		var content string
		if err := json.Unmarshal(raw, &content); err != nil {
			return fmt.Errorf("decode content: %w", err)
		}
		c.Content = &content
		delete(fields, contentKey)
	}

	if raw, found := fields[subItemsKey]; found && isArray(raw) {
		if err := json.Unmarshal(raw, &c.SubItems); err != nil {
			return fmt.Errorf("decode sub_items: %w", err)
		}
		c.hasSubItems = true
		delete(fields, subItemsKey)
	}

	c.fields = fields
	return nil
}

// MarshalJSON encodes the chapter with all untouched fields.
func (c Chapter) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.fields)+2)
	for k, v := range c.fields {
		out[k] = v
	}
	if c.Content != nil {
		out[contentKey] = *c.Content
	}
	if c.hasSubItems {
		out[subItemsKey] = itemsOrEmpty(c.SubItems)
	}

	return encode(out)
}

// Encode writes v as compact JSON without HTML escaping and without a
// trailing newline.
func Encode(v any) ([]byte, error) {
	return encode(v)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func itemsOrEmpty(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	return items
}

func decodeObject(data []byte) (map[string]json.RawMessage, bool) {
	if !isObject(data) {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isObject(data []byte) bool { return firstByte(data) == '{' }
func isArray(data []byte) bool { return firstByte(data) == '[' }
func isString(data []byte) bool { return firstByte(data) == '"' }
