package book

// ContentRewriter transforms the markdown content of a chapter.
type ContentRewriter interface {
	Rewrite(content string) string
}

// RewriterFunc adapts a function to ContentRewriter.
type RewriterFunc func(content string) string

// Rewrite calls f(content).
func (f RewriterFunc) Rewrite(content string) string {
	return f(content)
}

// RewriteBook rewrites the content of every chapter in the book, depth first.
// Items keep their order and count; opaque items are not touched.
func RewriteBook(b *Book, rw ContentRewriter) error {
	for i := range b.Sections {
		if err := RewriteItem(&b.Sections[i], rw); err != nil {
			return err
		}
	}
	return nil
}

// RewriteItem rewrites a chapter's content and then its sub items. Any other
// item is left as is.
func RewriteItem(item *Item, rw ContentRewriter) error {
	ch := item.Chapter
	if ch == nil {
		return nil
	}

	if ch.Content != nil {
		rewritten := rw.Rewrite(*ch.Content)
		ch.Content = &rewritten
	}

	for i := range ch.SubItems {
		if err := RewriteItem(&ch.SubItems[i], rw); err != nil {
			return err
		}
	}

	return nil
}

// WalkFunc is called for each chapter with the names of its ancestors
// followed by its own name.
type WalkFunc func(path []string, ch *Chapter) error

// Walk visits every chapter depth first in document order. It stops at the
// first error returned by fn.
func Walk(b *Book, fn WalkFunc) error {
	return walkItems(b.Sections, nil, fn)
}

func walkItems(items []Item, parents []string, fn WalkFunc) error {
	for i := range items {
		ch := items[i].Chapter
		if ch == nil {
			continue
		}

		path := append(append([]string(nil), parents...), ch.Name())
		if err := fn(path, ch); err != nil {
			return err
		}
		if err := walkItems(ch.SubItems, path, fn); err != nil {
			return err
		}
	}
	return nil
}
