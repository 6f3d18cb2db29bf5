package profile

import (
	"fmt"

	"github.com/bigbag/fcboot/internal/flash"
	"github.com/bigbag/fcboot/internal/persist"
)

// ValidationError names the offending profile field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile: %s: %s", e.Field, e.Reason)
}

// Validate checks a normalized profile.
func Validate(p *Profile) error {
	var total uint64
	for i, size := range p.Flash.Pages {
		if size == 0 {
			return &ValidationError{Field: fmt.Sprintf("flash.pages[%d]", i), Reason: "page size must be non-zero"}
		}
		if size%flash.WriteGranularity != 0 {
			return &ValidationError{
				Field:  fmt.Sprintf("flash.pages[%d]", i),
				Reason: fmt.Sprintf("page size %d is not a multiple of %d", size, flash.WriteGranularity),
			}
		}
		total += uint64(size)
	}
	if p.Flash.BaseAddress%flash.WriteGranularity != 0 {
		return &ValidationError{Field: "flash.base_address", Reason: "not write aligned"}
	}
	if uint64(p.Flash.BaseAddress)+total > 1<<32 {
		return &ValidationError{Field: "flash.pages", Reason: "bank runs past the 32-bit address space"}
	}

	if p.Update.MaxAttempts < 1 {
		return &ValidationError{Field: "update.max_attempts", Reason: "must be at least 1"}
	}
	if p.Update.RetryDelayMs < 0 {
		return &ValidationError{Field: "update.retry_delay_ms", Reason: "must not be negative"}
	}
	if p.Update.WatchdogTimeoutMs < 0 {
		return &ValidationError{Field: "update.watchdog_timeout_ms", Reason: "must not be negative"}
	}

	if n := len(p.Calibration.IMUs); n > persist.MaxIMUs {
		return &ValidationError{
			Field:  "calibration.imus",
			Reason: fmt.Sprintf("%d instances configured, at most %d supported", n, persist.MaxIMUs),
		}
	}
	for i, imu := range p.Calibration.IMUs {
		tc := imu.Temperature
		if tc != nil && tc.Enabled && tc.TMin >= tc.TMax {
			return &ValidationError{
				Field:  fmt.Sprintf("calibration.imus[%d].temperature", i),
				Reason: "tmin must be below tmax",
			}
		}
	}
	return nil
}
