// Package updater replaces the secondary bootloader in flash sector 0 when
// the copy in the resource store differs from what is installed, and keeps
// the persistent parameter block at the tail of that sector current.
//
// An update is synchronous and runs to completion once erasing has begun;
// there is no cancellation. Every blocking step is declared to the watchdog
// first.
package updater

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bigbag/fcboot/internal/console"
	"github.com/bigbag/fcboot/internal/flash"
)

// ImageSource supplies candidate images. Every buffer returned by Find is
// handed back to Release exactly once.
type ImageSource interface {
	Find(name string) ([]byte, bool)
	Release(data []byte)
}

// Watchdog is the supervisory timeout.
type Watchdog interface {
	DeclareLongOperation(d time.Duration)
	Delay(d time.Duration)
}

// ParamCodec builds, locates and applies persistent parameter blocks.
type ParamCodec interface {
	Encode() []byte
	Decode(sector []byte) []byte
	Apply(block []byte) int
}

// Updater is the bootloader update state machine.
type Updater struct {
	dev    flash.Device
	images ImageSource
	wd     Watchdog
	config Config
	sink   console.Sink
	log    logrus.FieldLogger
}

// New creates an Updater over the given collaborators.
func New(dev flash.Device, images ImageSource, wd Watchdog, opts ...Option) *Updater {
	if dev == nil || images == nil || wd == nil {
		panic("updater: device, image source and watchdog are required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Updater{
		dev:    dev,
		images: images,
		wd:     wd,
		config: cfg,
		sink:   cfg.Sink,
		log:    cfg.Logger.WithField("image", cfg.ImageName),
	}
}

// reportProgress calls the progress callback if set.
func (u *Updater) reportProgress(p Progress) {
	if u.config.Progress != nil {
		u.config.Progress(p)
	}
}

// candidate is a padded image on loan from the image source.
type candidate struct {
	raw      []byte
	data     []byte
	images   ImageSource
	released bool
}

func (c *candidate) release() {
	if c.released {
		return
	}
	c.released = true
	c.images.Release(c.raw)
}

// acquire loads the candidate and pads it to the write granularity with
// erased-flash bytes.
func (u *Updater) acquire() (*candidate, bool) {
	raw, ok := u.images.Find(u.config.ImageName)
	if !ok {
		return nil, false
	}
	if len(raw) == 0 {
		u.images.Release(raw)
		return nil, false
	}

	data := bytes.Repeat([]byte{flash.ErasedByte}, flash.RoundUp(len(raw)))
	copy(data, raw)
	return &candidate{raw: raw, data: data, images: u.images}, true
}

// UpdateBootloader flashes the candidate bootloader if it, or the persistent
// parameter block, differs from what sector 0 holds.
func (u *Updater) UpdateBootloader() Outcome {
	name := u.config.ImageName
	u.wd.DeclareLongOperation(u.config.UpdateTimeout)
	u.reportProgress(Progress{Phase: PhaseChecking})

	img, ok := u.acquire()
	if !ok {
		u.sink.Printf("failed to find %s", name)
		return NotAvailable
	}
	defer img.release()

	base := u.dev.PageAddress(0)
	uptodate := u.flashMatches(base, img.data)

	block, changed := u.paramsBlock(len(img.data))
	if changed {
		// persistent parameters have changed, rewrite the sector to store them
		uptodate = false
	}

	if uptodate {
		u.sink.Printf("Bootloader up-to-date")
		return NoChange
	}

	if !u.erase(len(img.data)) {
		return Fail
	}

	u.sink.Printf("Flashing %s @%08x", name, base)
	return u.program(base, img.data, block)
}

// flashMatches compares data with the live flash contents at base.
func (u *Updater) flashMatches(base uint32, data []byte) bool {
	live, err := u.dev.Read(flash.Region{Addr: base, Len: uint32(len(data))})
	if err != nil {
		u.log.WithError(err).Debug("cannot read installed image")
		return false
	}
	return bytes.Equal(live, data)
}

// paramsBlock returns the block to store after an image of imageLen bytes,
// and whether it differs from the block already in flash. The block is nil
// when persistence is off, there is nothing to persist, or it does not fit.
func (u *Updater) paramsBlock(imageLen int) ([]byte, bool) {
	if !u.config.PersistParams || u.config.Codec == nil {
		return nil, false
	}

	block := u.config.Codec.Encode()
	if len(block) == 0 {
		return nil, false
	}

	space := int64(u.dev.PageSize(0)) - int64(imageLen)
	if space < int64(len(block)) {
		u.log.WithFields(logrus.Fields{
			"space": space,
			"need":  len(block),
		}).Warn("no room for persistent parameters")
		return nil, false
	}

	var old []byte
	if sector, err := u.readSector(); err == nil {
		old = u.config.Codec.Decode(sector)
	} else {
		u.log.WithError(err).Debug("cannot read bootloader sector")
	}

	// Compared including padding.
	return block, old == nil || !bytes.Equal(block, old)
}

// readSector returns the contents of page 0.
func (u *Updater) readSector() ([]byte, error) {
	size := u.dev.PageSize(0)
	if size == 0 {
		return nil, fmt.Errorf("page 0 has no size")
	}
	return u.dev.Read(flash.Region{Addr: u.dev.PageAddress(0), Len: size})
}

// erase erases pages from 0 until at least size bytes are clear.
func (u *Updater) erase(size int) bool {
	u.sink.Printf("Erasing")

	var erased uint64
	for page := 0; erased < uint64(size); page++ {
		pageSize := u.dev.PageSize(page)
		if pageSize == 0 {
			u.sink.Printf("Erase %d failed: unknown page size", page)
			return false
		}

		u.wd.DeclareLongOperation(u.config.PageTimeout)
		if !u.dev.ErasePage(page) {
			u.sink.Printf("Erase %d failed", page)
			return false
		}
		erased += uint64(pageSize)

		u.log.WithFields(logrus.Fields{"page": page, "size": pageSize}).Debug("erased")
		u.reportProgress(Progress{Phase: PhaseErasing, Current: int(min(erased, uint64(size))), Total: size})
	}
	return true
}

// program writes the image inside the unlock window, retrying on failure,
// then the parameter block at the end of the sector.
func (u *Updater) program(base uint32, data, block []byte) Outcome {
	u.dev.SetWriteUnlocked(true)
	defer u.dev.SetWriteUnlocked(false)

	maxAttempts := u.config.MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		u.reportProgress(Progress{Phase: PhaseWriting, Current: attempt, Total: maxAttempts})

		u.wd.DeclareLongOperation(u.config.PageTimeout)
		if !u.dev.Write(base, data) {
			u.sink.Printf("Flash failed! (attempt=%d/%d)", attempt, maxAttempts)
			u.wd.Delay(u.config.RetryDelay)
			continue
		}
		u.sink.Printf("Flash OK")

		if block != nil {
			u.writeParams(base, block)
		}
		u.reportProgress(Progress{Phase: PhaseComplete, Current: attempt, Total: maxAttempts})
		return OK
	}

	u.sink.Printf("Flash failed after %d attempts", maxAttempts)
	return Fail
}

// writeParams stores block right-aligned to the end of sector 0. A failure
// here leaves the new image in place and is only logged.
func (u *Updater) writeParams(base uint32, block []byte) {
	u.reportProgress(Progress{Phase: PhaseParams, Current: len(block), Total: len(block)})

	sector := flash.Region{Addr: base, Len: u.dev.PageSize(0)}
	tail, err := sector.Sub(sector.Len-uint32(len(block)), uint32(len(block)))
	if err != nil {
		u.log.WithError(err).Warn("persistent parameter block does not fit")
		return
	}

	u.wd.DeclareLongOperation(u.config.PageTimeout)
	if !u.dev.Write(tail.Addr, block) {
		u.log.WithField("addr", fmt.Sprintf("0x%08X", tail.Addr)).Warn("persistent parameter write failed")
	}
}

// ApplyPersistentParams installs the parameters stored in sector 0 as
// defaults and returns how many were accepted. It only reads flash.
func (u *Updater) ApplyPersistentParams() int {
	if !u.config.PersistParams || u.config.Codec == nil {
		return 0
	}

	sector, err := u.readSector()
	if err != nil {
		u.log.WithError(err).Debug("cannot read bootloader sector")
		return 0
	}

	block := u.config.Codec.Decode(sector)
	if block == nil {
		return 0
	}
	return u.config.Codec.Apply(block)
}
