// Package profile loads the board description the updater runs against.
package profile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bigbag/fcboot/internal/flash"
	"github.com/bigbag/fcboot/internal/persist"
)

type Profile struct {
	Board       string                      `yaml:"board"`
	Flash       FlashConfig                 `yaml:"flash"`
	Update      UpdateConfig                `yaml:"update"`
	Calibration persist.InertialCalibration `yaml:"calibration"`
	ParamsFile  string                      `yaml:"params_file"`
}

// ---- FLASH GEOMETRY ----

type FlashConfig struct {
	BaseAddress uint32   `yaml:"base_address"`
	Pages       []uint32 `yaml:"pages"`
}

// ---- UPDATE POLICY ----

type UpdateConfig struct {
	ImageName         string `yaml:"image_name"`
	MaxAttempts       int    `yaml:"max_attempts"`
	RetryDelayMs      int    `yaml:"retry_delay_ms"`
	WatchdogTimeoutMs int    `yaml:"watchdog_timeout_ms"`

	// Persistent parameter carriage (optional, default on)
	PersistParams *bool `yaml:"persist_params"`
}

// Load reads, normalizes and validates the profile at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a profile from YAML, then normalizes and validates it.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	normalize(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Geometry returns the flash layout described by the profile.
func (p *Profile) Geometry() flash.Geometry {
	return flash.Geometry{BaseAddress: p.Flash.BaseAddress, Pages: p.Flash.Pages}
}

// PersistEnabled reports whether calibration is carried in the bootloader sector.
func (p *Profile) PersistEnabled() bool {
	return p.Update.PersistParams == nil || *p.Update.PersistParams
}

// RetryDelay returns the pause between failed write attempts.
func (p *Profile) RetryDelay() time.Duration {
	return time.Duration(p.Update.RetryDelayMs) * time.Millisecond
}

// WatchdogTimeout returns the supervisory timeout.
func (p *Profile) WatchdogTimeout() time.Duration {
	return time.Duration(p.Update.WatchdogTimeoutMs) * time.Millisecond
}
