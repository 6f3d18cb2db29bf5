package params

import (
	"path/filepath"
	"testing"
)

func TestSetDefault_UnknownName(t *testing.T) {
	s := New("INS_ACCOFFS_X")

	if s.SetDefault("INS_NOPE", 1) {
		t.Error("SetDefault() on unknown name returned true")
	}
	if !s.SetDefault("INS_ACCOFFS_X", 0.25) {
		t.Fatal("SetDefault() on known name returned false")
	}
	if v, _ := s.Get("INS_ACCOFFS_X"); v != 0.25 {
		t.Errorf("Get() = %v, want 0.25", v)
	}
}

func TestCount_Cached(t *testing.T) {
	s := New("A", "B")
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}

	s.Register("C", 0)
	if s.Count() != 3 {
		t.Errorf("Count() after Register = %d, want 3", s.Count())
	}

	s.InvalidateCount()
	if s.Count() != 3 {
		t.Errorf("Count() after InvalidateCount = %d, want 3", s.Count())
	}
}

func TestNames_Sorted(t *testing.T) {
	s := New("B", "C", "A")
	names := s.Names()
	want := []string{"A", "B", "C"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")

	s := New("INS_ACCOFFS_X", "INS_GYROFFS_Z")
	s.SetDefault("INS_ACCOFFS_X", 0.125)
	s.SetDefault("INS_GYROFFS_Z", -0.5)
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v, ok := loaded.Get("INS_GYROFFS_Z"); !ok || v != -0.5 {
		t.Errorf("Get(INS_GYROFFS_Z) = %v, %v, want -0.5, true", v, ok)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := New()
	if err := s.Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("Load() of missing file error = %v", err)
	}
}
