package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bigbag/fcboot/embedded"
	"github.com/bigbag/fcboot/internal/console"
	"github.com/bigbag/fcboot/internal/flash"
	"github.com/bigbag/fcboot/internal/params"
	"github.com/bigbag/fcboot/internal/persist"
	"github.com/bigbag/fcboot/internal/profile"
	"github.com/bigbag/fcboot/internal/romfs"
	"github.com/bigbag/fcboot/internal/serial"
	"github.com/bigbag/fcboot/internal/updater"
	"github.com/bigbag/fcboot/internal/watchdog"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	profileFlag string
	flashFlag   string
	romfsFlag   string
	consoleFlag string
	paramsFlag  string
	baudFlag    int
	verboseFlag bool
)

var log = logrus.New()

var phaseLabels = map[string]string{
	updater.PhaseChecking: "Checking",
	updater.PhaseErasing:  "Erasing",
	updater.PhaseWriting:  "Writing",
	updater.PhaseParams:   "Params",
	updater.PhaseComplete: "Done",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "fcboot",
		Short: "Update a flight controller's bootloader sector",
		Long: `fcboot replaces the secondary bootloader stored in flash sector 0 when the
image in the resource store differs from the installed one, and keeps the
inertial calibration stored at the tail of that sector so it survives the
re-flash.

It runs against a flash dump file laid out by a board profile.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verboseFlag {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "c", "", "Board profile (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")

	// Update command
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Flash the bootloader if it or the persistent parameters changed",
		Long: `Compare the candidate bootloader and the persistent parameter block with
sector 0 and rewrite the sector if either differs.

The candidate comes from the embedded resource store unless --romfs names a
directory to use instead.`,
		RunE: runUpdate,
	}
	updateCmd.Flags().StringVarP(&flashFlag, "flash", "f", "", "Flash dump file")
	updateCmd.Flags().StringVar(&romfsFlag, "romfs", "", "Resource store directory (default: embedded)")
	updateCmd.Flags().StringVarP(&consoleFlag, "console", "p", "", "Mirror diagnostics to this serial port")
	updateCmd.Flags().IntVarP(&baudFlag, "baud", "b", serial.DefaultBaudRate, "Console baud rate")
	updateCmd.MarkFlagRequired("flash")

	// Apply command
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Load persistent parameters from sector 0 as defaults",
		RunE:  runApply,
	}
	applyCmd.Flags().StringVarP(&flashFlag, "flash", "f", "", "Flash dump file")
	applyCmd.Flags().StringVar(&paramsFlag, "params", "", "Parameter snapshot to update (default: profile params_file)")
	applyCmd.MarkFlagRequired("flash")

	// Inspect command
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show what sector 0 holds",
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVarP(&flashFlag, "flash", "f", "", "Flash dump file")
	inspectCmd.Flags().StringVar(&romfsFlag, "romfs", "", "Resource store directory (default: embedded)")
	inspectCmd.MarkFlagRequired("flash")

	// Encode command
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the persistent parameter block for the profile's calibration",
		RunE:  runEncode,
	}

	// Init command
	initCmd := &cobra.Command{
		Use:   "init <flash.bin>",
		Short: "Create a blank flash dump sized by the profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runInit,
	}

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fcboot %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}

	// Ports command
	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		RunE:  runPorts,
	}

	rootCmd.AddCommand(updateCmd, applyCmd, inspectCmd, encodeCmd, initCmd, versionCmd, portsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadProfile() (*profile.Profile, error) {
	if profileFlag == "" {
		return profile.Default(), nil
	}
	p, err := profile.Load(profileFlag)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func imageFS() fs.FS {
	if romfsFlag != "" {
		return os.DirFS(romfsFlag)
	}
	return embedded.ROMFS()
}

// loadStore builds the parameter table: every calibration name the profile
// can produce plus whatever the snapshot file already holds.
func loadStore(p *profile.Profile, path string) (*params.Store, error) {
	store := params.New(p.Calibration.Names()...)
	if path != "" {
		if err := store.Load(path); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// openSink returns the diagnostic sink and a func closing the console port.
func openSink() (console.Sink, func(), error) {
	sinks := console.Multi{console.NewLog(log)}
	if consoleFlag == "" {
		return sinks, func() {}, nil
	}

	port, err := serial.Open(consoleFlag, baudFlag)
	if err != nil {
		return nil, nil, err
	}
	sinks = append(sinks, console.NewWriter(port))
	return sinks, func() { port.Close() }, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}

	dev, err := flash.OpenFile(flashFlag, prof.Geometry())
	if err != nil {
		return err
	}
	defer dev.Close()

	sink, closeSink, err := openSink()
	if err != nil {
		return err
	}
	defer closeSink()

	store, err := loadStore(prof, prof.ParamsFile)
	if err != nil {
		return err
	}

	fmt.Printf("Board: %s\n", prof.Board)
	fmt.Printf("Flash: %s, sector 0 %s\n", dev.Name(), prof.Geometry().PageRegion(0))

	images := romfs.New(imageFS(), log)
	wd := watchdog.New(prof.WatchdogTimeout())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wd.Watch(ctx, 50*time.Millisecond, func() {
		log.Error("watchdog deadline passed during update")
	})

	bar := progressbar.NewOptions(1,
		progressbar.OptionSetDescription("Checking"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionThrottle(100),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	opts := []updater.Option{
		updater.WithImageName(prof.Update.ImageName),
		updater.WithMaxAttempts(prof.Update.MaxAttempts),
		updater.WithRetryDelay(prof.RetryDelay()),
		updater.WithSink(sink),
		updater.WithLogger(log),
		updater.WithProgressCallback(func(p updater.Progress) {
			if p.Total == 0 {
				return
			}
			bar.Describe(phaseLabels[p.Phase])
			bar.ChangeMax(p.Total)
			bar.Set(p.Current)
		}),
	}
	if prof.PersistEnabled() {
		opts = append(opts, updater.WithPersistentParams(persist.New(store, sink, &prof.Calibration)))
	}

	outcome := updater.New(dev, images, wd, opts...).UpdateBootloader()
	bar.Finish()

	if n := images.Outstanding(); n != 0 {
		log.WithField("buffers", n).Warn("image buffers not released")
	}

	fmt.Printf("\nResult: %s\n", outcome)
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}

	dev, err := flash.OpenFile(flashFlag, prof.Geometry())
	if err != nil {
		return err
	}
	defer dev.Close()

	path := paramsFlag
	if path == "" {
		path = prof.ParamsFile
	}
	store, err := loadStore(prof, path)
	if err != nil {
		return err
	}

	sink := console.NewLog(log)
	u := updater.New(dev, romfs.New(imageFS(), log), watchdog.New(prof.WatchdogTimeout()),
		updater.WithSink(sink),
		updater.WithLogger(log),
		updater.WithPersistentParams(persist.New(store, sink, &prof.Calibration)),
	)

	n := u.ApplyPersistentParams()
	fmt.Printf("Applied %d persistent parameters\n", n)
	if n == 0 || path == "" {
		return nil
	}

	if err := store.Save(path); err != nil {
		return err
	}
	fmt.Printf("Saved %d parameters to %s\n", store.Count(), path)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}

	dev, err := flash.OpenFile(flashFlag, prof.Geometry())
	if err != nil {
		return err
	}
	defer dev.Close()

	geom := prof.Geometry()
	sector, err := dev.Read(geom.PageRegion(0))
	if err != nil {
		return fmt.Errorf("failed to read sector 0: %w", err)
	}

	fmt.Printf("Sector 0: %s (%d bytes)\n", geom.PageRegion(0), len(sector))

	images := romfs.New(imageFS(), log)
	if image, ok := images.Find(prof.Update.ImageName); ok {
		size := flash.RoundUp(len(image))
		live, err := dev.Read(flash.Region{Addr: geom.BaseAddress, Len: uint32(size)})
		status := "differs"
		if err == nil && matchesPadded(live, image) {
			status = "up-to-date"
		}
		fmt.Printf("Image:    %s, %d bytes (%d padded), %s\n", prof.Update.ImageName, len(image), size, status)
		images.Release(image)
	} else {
		fmt.Printf("Image:    %s not available\n", prof.Update.ImageName)
	}

	block := persist.Decode(sector)
	if block == nil {
		fmt.Println("Params:   none")
		return nil
	}

	fmt.Printf("Params:   %d bytes at 0x%08X\n", len(block), geom.BaseAddress+uint32(len(sector)-len(block)))
	for _, line := range strings.Split(string(block[len(persist.Header):]), "\n") {
		if strings.Contains(line, "=") {
			fmt.Printf("  %s\n", line)
		}
	}
	return nil
}

// matchesPadded compares flash contents with an image padded by erased bytes.
func matchesPadded(live, image []byte) bool {
	for i, b := range live {
		want := byte(flash.ErasedByte)
		if i < len(image) {
			want = image[i]
		}
		if b != want {
			return false
		}
	}
	return true
}

func runEncode(cmd *cobra.Command, args []string) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}

	block := persist.New(nil, nil, &prof.Calibration).Encode()
	if block == nil {
		fmt.Println("No persistent parameters")
		return nil
	}

	os.Stdout.Write(block)
	fmt.Printf("\n(%d bytes)\n", len(block))
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}

	geom := prof.Geometry()
	if err := flash.CreateFile(args[0], geom); err != nil {
		return err
	}
	fmt.Printf("Created %s: %d pages, %d bytes at 0x%08X\n", args[0], len(geom.Pages), geom.Size(), geom.BaseAddress)
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}

	fmt.Println("Available serial ports:")
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}

	return nil
}
