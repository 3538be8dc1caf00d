// Package cliraid wires the RAID Device into a cobra CLI, adapted from the
// teacher's internal/cobra/cobra.go (a package-level rootCmd, subcommands
// registered in InitCLI, a single ExecuteCmd entry point) extended with the
// --raids= grammar (spec §6) and mkfs/list/fs-info demo subcommands. The
// enclosing filesystem's real CLI surface (df, backup, restore, dump, link,
// delete, rename, rmdir, ...) is out of scope (spec §1, §6) — these three
// commands exist to exercise the RAID Device through the Backend
// Abstraction, not to be a complete filesystem tool.
package cliraid

import (
	"fmt"

	"github.com/Anthya1104/zoneraid/internal/config"
	"github.com/Anthya1104/zoneraid/internal/raiddevice"
	"github.com/Anthya1104/zoneraid/internal/raidinfo"
	"github.com/Anthya1104/zoneraid/internal/raidmap"
	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/raiduri"
	"github.com/Anthya1104/zoneraid/internal/rlog"
	"github.com/Anthya1104/zoneraid/internal/zbd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	raidsFlag    string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "zoneraid",
	Short: "A RAID virtualization layer over zoned block devices",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return rlog.InitLogger(logLevelFlag)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		logrus.Infof("zoneraid %s", config.Version)
	},
}

var mkfsCmd = &cobra.Command{
	Use:   "mkfs",
	Short: "Build a RAID Device from --raids= and report its logical geometry",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, _, err := buildDevice(raidsFlag)
		if err != nil {
			return err
		}
		if _, _, err := dev.Open(false, false); err != nil {
			return fmt.Errorf("open: %w", err)
		}
		geo := dev.Geometry()
		logrus.Infof("filename=%s block_size=%d zone_size=%d nr_zones=%d",
			dev.Filename(), geo.BlockSize, geo.ZoneSize, geo.NrZones)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Build a RAID Device from --raids= and list its zones",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, _, err := buildDevice(raidsFlag)
		if err != nil {
			return err
		}
		if _, _, err := dev.Open(false, false); err != nil {
			return fmt.Errorf("open: %w", err)
		}
		zl, err := dev.ListZones()
		if err != nil {
			return fmt.Errorf("list_zones: %w", err)
		}
		for i, z := range zl {
			logrus.Infof("zone %d: start=%d capacity=%d wp=%d condition=%s", i, z.Start, z.Capacity, z.WP, z.Condition)
		}
		return nil
	},
}

var fsInfoCmd = &cobra.Command{
	Use:   "fs-info",
	Short: "Build a RAID Device and print its RaidInfoBasic compatibility fingerprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, spec, err := buildDevice(raidsFlag)
		if err != nil {
			return err
		}
		if _, _, err := dev.Open(false, false); err != nil {
			return fmt.Errorf("open: %w", err)
		}
		geo := dev.Geometry()
		n := uint32(len(spec.DevRefs))
		// dev.Geometry() is the logical geometry; undo the per-mode scaling
		// to recover the (identical) child geometry the fingerprint records.
		childGeo := zbd.Geometry{BlockSize: geo.BlockSize, ZoneSize: geo.ZoneSize, NrZones: geo.NrZones}
		switch spec.Mode {
		case raidmode.Raid0, raidmode.Auto:
			childGeo.ZoneSize = geo.ZoneSize / uint64(n)
		case raidmode.Concat:
			childGeo.NrZones = geo.NrZones / n
		}
		basic := raidinfo.NewRaidInfoBasic(spec.Mode, n, childGeo)
		logrus.Infof("main_mode=%s nr_devices=%d dev_block_size=%d dev_zone_size_in_blocks=%d dev_nr_zones=%d",
			basic.MainMode, basic.NrDevices, basic.DevBlockSize, basic.DevZoneSizeInBlocks, basic.DevNrZones)
		return nil
	},
}

// buildDevice parses raidsSpec and constructs a RAID Device over Mock
// backends (the demo's stand-in for the out-of-scope libzbd/zonefs
// drivers — spec §1). Auto mode gets a freshly installed meta region.
func buildDevice(raidsSpec string) (*raiddevice.Device, raiduri.Spec, error) {
	if raidsSpec == "" {
		return nil, raiduri.Spec{}, fmt.Errorf("--raids is required")
	}
	spec, err := raiduri.Parse(raidsSpec)
	if err != nil {
		return nil, raiduri.Spec{}, err
	}

	devices, err := raiduri.BuildDevices(spec, func(ref raiduri.DevRef) (zbd.Backend, error) {
		return zbd.NewMock(ref.Name, zbd.Geometry{BlockSize: 4096, ZoneSize: 1 << 20, NrZones: 16}), nil
	})
	if err != nil {
		return nil, raiduri.Spec{}, err
	}

	var alloc *raidmap.Allocator
	if spec.Mode == raidmode.Auto {
		alloc = raidmap.New(uint32(len(devices)), 16)
		if err := alloc.InstallMeta(config.MetaZones); err != nil {
			return nil, raiduri.Spec{}, err
		}
	}

	dev, err := raiddevice.New(logrus.StandardLogger(), spec.Mode, devices, alloc, config.MetaZones)
	if err != nil {
		return nil, raiduri.Spec{}, err
	}
	return dev, spec, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", config.LogLevelInfo, "log level (debug|info|warn|error)")

	for _, c := range []*cobra.Command{mkfsCmd, listCmd, fsInfoCmd} {
		c.Flags().StringVar(&raidsFlag, "raids", "", "RAID spec: <mode>:<devref>[,<devref>...]")
	}

	rootCmd.AddCommand(versionCmd, mkfsCmd, listCmd, fsInfoCmd)
}

// InitCLI returns the configured root command.
func InitCLI() *cobra.Command { return rootCmd }

// ExecuteCmd runs the CLI against os.Args.
func ExecuteCmd() error { return InitCLI().Execute() }
