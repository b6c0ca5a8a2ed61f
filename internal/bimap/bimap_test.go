package bimap

import "testing"

func TestPutAndGet_BothDirections(t *testing.T) {
	b := New[string, int]()
	b.Put("a", 1)

	v, ok := b.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v; want 1, true", v, ok)
	}
	k, ok := b.GetKey(1)
	if !ok || k != "a" {
		t.Fatalf("GetKey(1) = %v, %v; want a, true", k, ok)
	}
}

func TestPut_ReplacesPriorAssociationOnEitherSide(t *testing.T) {
	b := New[string, int]()
	b.Put("a", 1)
	b.Put("a", 2) // a now maps to 2; nothing should still map to 1

	if _, ok := b.GetKey(1); ok {
		t.Fatalf("GetKey(1) should be gone after a was repointed to 2")
	}
	v, ok := b.Get("a")
	if !ok || v != 2 {
		t.Fatalf("Get(a) = %v, %v; want 2, true", v, ok)
	}

	b.Put("b", 2) // 2 now maps to b; a should lose its association entirely
	if _, ok := b.Get("a"); ok {
		t.Fatalf("Get(a) should be gone after 2 was repointed to b")
	}
	k, ok := b.GetKey(2)
	if !ok || k != "b" {
		t.Fatalf("GetKey(2) = %v, %v; want b, true", k, ok)
	}
}

func TestDeleteKey_RemovesBothDirections(t *testing.T) {
	b := New[string, int]()
	b.Put("a", 1)
	b.DeleteKey("a")

	if _, ok := b.Get("a"); ok {
		t.Fatalf("Get(a) should be gone after DeleteKey")
	}
	if _, ok := b.GetKey(1); ok {
		t.Fatalf("GetKey(1) should be gone after DeleteKey(a)")
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d; want 0", b.Len())
	}
}

func TestDeleteKey_UnknownKeyIsNoop(t *testing.T) {
	b := New[string, int]()
	b.Put("a", 1)
	b.DeleteKey("missing")
	if b.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", b.Len())
	}
}

func TestLen_TracksAssociationCount(t *testing.T) {
	b := New[string, int]()
	if b.Len() != 0 {
		t.Fatalf("Len() = %d; want 0", b.Len())
	}
	b.Put("a", 1)
	b.Put("b", 2)
	if b.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", b.Len())
	}
}
