package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleProfile = `
board: MatekH743
flash:
  base_address: 0x08000000
  pages: [0x20000, 0x20000]
update:
  max_attempts: 5
  retry_delay_ms: 50
  persist_params: true
calibration:
  imus:
    - accel_offset: {x: 0.01, y: -0.02, z: 0.03}
      accel_scale: {x: 1.0, y: 1.0, z: 1.0}
      temperature:
        enabled: true
        tmin: -10
        tmax: 60
params_file: params.yaml
`

func TestParse_Sample(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if p.Board != "MatekH743" {
		t.Errorf("Board = %q", p.Board)
	}
	g := p.Geometry()
	if g.BaseAddress != 0x08000000 || g.PageSize(0) != 0x20000 || g.Size() != 0x40000 {
		t.Errorf("Geometry() = %+v", g)
	}
	if p.Update.MaxAttempts != 5 || p.RetryDelay() != 50*time.Millisecond {
		t.Errorf("update = %+v", p.Update)
	}
	if p.Update.ImageName != DefaultImageName {
		t.Errorf("ImageName = %q, want default", p.Update.ImageName)
	}
	if !p.PersistEnabled() {
		t.Error("PersistEnabled() = false")
	}
	if len(p.Calibration.IMUs) != 1 || p.Calibration.IMUs[0].AccelOffset.Y != -0.02 {
		t.Errorf("Calibration = %+v", p.Calibration)
	}
}

func TestParse_Defaults(t *testing.T) {
	p, err := Parse([]byte("board: generic\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Update.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", p.Update.MaxAttempts, DefaultMaxAttempts)
	}
	if p.RetryDelay() != 100*time.Millisecond {
		t.Errorf("RetryDelay() = %v, want 100ms", p.RetryDelay())
	}
	if p.Geometry().PageSize(0) != 0x4000 {
		t.Errorf("PageSize(0) = 0x%X, want 0x4000", p.Geometry().PageSize(0))
	}
	if !p.PersistEnabled() {
		t.Error("PersistEnabled() should default to true")
	}
}

func TestParse_PersistDisabled(t *testing.T) {
	p, err := Parse([]byte("update:\n  persist_params: false\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.PersistEnabled() {
		t.Error("PersistEnabled() = true, want false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"zero page", "flash:\n  pages: [0x4000, 0]\n", "flash.pages[1]"},
		{"unaligned page", "flash:\n  pages: [1000]\n", "flash.pages[0]"},
		{"unaligned base", "flash:\n  base_address: 0x08000010\n", ""},
		{"negative attempts", "update:\n  max_attempts: -1\n", "update.max_attempts"},
		{"negative delay", "update:\n  retry_delay_ms: -5\n", "update.retry_delay_ms"},
		{"too many imus", "calibration:\n  imus: [{}, {}, {}, {}]\n", "calibration.imus"},
		{"inverted tcal", "calibration:\n  imus:\n    - temperature: {enabled: true, tmin: 50, tmax: 10}\n", "calibration.imus[0].temperature"},
	}

	for _, tc := range tests {
		_, err := Parse([]byte(tc.yaml))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("%s: Parse() error = %v, want *ValidationError", tc.name, err)
			continue
		}
		if tc.field != "" && vErr.Field != tc.field {
			t.Errorf("%s: Field = %q, want %q", tc.name, vErr.Field, tc.field)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte(sampleProfile), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.ParamsFile != "params.yaml" {
		t.Errorf("ParamsFile = %q", p.ParamsFile)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}
