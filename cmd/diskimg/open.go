package main

import (
	"strings"

	"github.com/google/uuid"

	"github.com/eightbit-archive/diskimg"
	"github.com/eightbit-archive/diskimg/fs"
	"github.com/eightbit-archive/diskimg/internal/loggy"
)

func parseOrder(s string) diskimg.Order {
	switch strings.ToLower(s) {
	case "physical":
		return diskimg.OrderPhysical
	case "dos":
		return diskimg.OrderDOS
	case "prodos":
		return diskimg.OrderProDOS
	case "cpm":
		return diskimg.OrderCPM
	default:
		return diskimg.OrderUnknown
	}
}

func openImage(path string, readOnly bool) (*diskimg.DiskImage, error) {
	progress := func(session uuid.UUID, message string, count int) diskimg.Signal {
		if verbose {
			loggy.GetSession(session).Logf("%s (%d)", message, count)
		}
		return diskimg.SignalContinue
	}
	di, err := diskimg.OpenPath(path, readOnly, progress)
	if err != nil {
		return nil, err
	}
	if forceOrder != "" {
		ord := parseOrder(forceOrder)
		if ord == diskimg.OrderUnknown {
			return nil, diskimg.New(diskimg.ErrInvalidArg, "unknown --order %q", forceOrder)
		}
		if err := di.ApplyOrderOverride(diskimg.FormatOverrideRequest{Order: ord, Physical: physicalOf(di)}); err != nil {
			di.Close()
			return nil, err
		}
	}
	return di, nil
}

func physicalOf(di *diskimg.DiskImage) diskimg.PhysicalFormat {
	switch {
	case di.HasNibbles():
		return diskimg.PhysicalNib525_6656
	default:
		return diskimg.PhysicalSectors
	}
}

func probeFilesystem(di *diskimg.DiskImage) (fs.ProbeResult, error) {
	fallback := diskimg.OrderDOS
	if forceOrder != "" {
		fallback = parseOrder(forceOrder)
	}
	return fs.ProbeOrGeneric(di, fallback)
}
