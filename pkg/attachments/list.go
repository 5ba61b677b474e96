package attachments

import (
	"fmt"
)

// List is an ordered, append-only sequence of files with removal by index.
// Duplicates are kept and order is never changed except by RemoveAt.
type List struct {
	items []FileHandle
}

// NewList returns a list seeded with files.
func NewList(files ...FileHandle) *List {
	l := &List{}
	l.Append(files...)
	return l
}

// Append adds files to the end of the list. Nil handles are skipped.
func (l *List) Append(files ...FileHandle) {
	for _, f := range files {
		if f != nil {
			l.items = append(l.items, f)
		}
	}
}

// RemoveAt removes exactly one entry, preserving the order of the rest. The
// list gets a new backing array, so slices returned by Items before the call
// keep their contents.
func (l *List) RemoveAt(index int) error {
	if index < 0 || index >= len(l.items) {
		return fmt.Errorf("attachments: index %d out of range [0,%d)", index, len(l.items))
	}
	items := make([]FileHandle, 0, len(l.items)-1)
	items = append(items, l.items[:index]...)
	l.items = append(items, l.items[index+1:]...)
	return nil
}

// Items exposes the underlying slice. It is shared with the list, so callers
// must not modify it. Later removals never rewrite it.
func (l *List) Items() []FileHandle {
	if l == nil {
		return nil
	}
	return l.items
}

// Len returns the number of files.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Names returns the file names in order.
func (l *List) Names() []string {
	if l == nil || len(l.items) == 0 {
		return nil
	}
	out := make([]string, len(l.items))
	for i, f := range l.items {
		out[i] = f.Name()
	}
	return out
}

// Reset drops every file.
func (l *List) Reset() {
	l.items = nil
}
