package attachments_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/attachments"
)

func file(name string, data ...byte) *attachments.MemoryFile {
	return &attachments.MemoryFile{FileName: name, Data: data}
}

func TestList_AppendRemoveOrdering(t *testing.T) {
	a, b, c := file("a.jpg"), file("b.jpg"), file("c.jpg")

	l := attachments.NewList()
	l.Append(a, b)
	if err := l.RemoveAt(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	l.Append(c)

	if diff := cmp.Diff([]string{"b.jpg", "c.jpg"}, l.Names()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	items := l.Items()
	if items[0] != attachments.FileHandle(b) || items[1] != attachments.FileHandle(c) {
		t.Fatalf("expected the same handles back, by reference")
	}
}

func TestList_KeepsDuplicates(t *testing.T) {
	a := file("a.jpg")
	l := attachments.NewList(a, a)
	if l.Len() != 2 {
		t.Fatalf("expected duplicates to be kept, got %d", l.Len())
	}
}

func TestList_RemoveAtOutOfRange(t *testing.T) {
	l := attachments.NewList(file("a"))
	for _, idx := range []int{-1, 1, 5} {
		if err := l.RemoveAt(idx); err == nil {
			t.Fatalf("RemoveAt(%d) expected error", idx)
		}
	}
	if l.Len() != 1 {
		t.Fatalf("failed removals must not change the list")
	}
}

func TestPolicy_ZeroAcceptsAnything(t *testing.T) {
	if err := (attachments.Policy{}).Check(attachments.NewList()); err != nil {
		t.Fatalf("zero policy must accept empty list: %v", err)
	}
}

func TestPolicy_MinCount(t *testing.T) {
	err := attachments.Policy{MinCount: 2}.Check(attachments.NewList(file("a")))
	var incomplete *attachments.IncompleteAttachmentError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteAttachmentError, got %v", err)
	}
	if incomplete.Required != 2 || incomplete.Got != 1 {
		t.Fatalf("unexpected counts %+v", incomplete)
	}
}

func TestPolicy_SizeAndType(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	text := []byte("just some notes")

	policy := attachments.Policy{MaxBytes: 20, AllowedTypes: []string{"image/*", "application/pdf"}}

	if err := policy.Check(attachments.NewList(file("big.png", png...))); !errors.Is(err, attachments.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	policy.MaxBytes = 0
	if err := policy.Check(attachments.NewList(file("photo.png", png...))); err != nil {
		t.Fatalf("png should be allowed: %v", err)
	}
	if err := policy.Check(attachments.NewList(file("notes.txt", text...))); !errors.Is(err, attachments.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestList_RemoveAtLeavesHandedOutItems(t *testing.T) {
	a, b := file("a.txt"), file("b.txt")
	l := attachments.NewList(a, b)

	before := l.Items()
	if err := l.RemoveAt(0); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(before) != 2 || before[0] != attachments.FileHandle(a) || before[1] != attachments.FileHandle(b) {
		t.Fatalf("earlier Items slice changed: %v", before)
	}
	if diff := cmp.Diff([]string{"b.txt"}, l.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
