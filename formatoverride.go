package diskimg

// FormatOverrideRequest carries the physical and order parts of a
// caller-supplied format override (spec.md §4.7). It has no filesystem
// field, since package diskimg cannot import fs without creating an
// import cycle; callers that also import fs apply the filesystem part
// by running fs.ProbeNamed themselves.
type FormatOverrideRequest struct {
	Order    Order
	Physical PhysicalFormat // must equal di.geom.physical, or ErrUnsupportedPhysicalFmt
}

// ApplyOrderOverride re-derives the sector ordering a DiskImage reads and
// writes through (spec.md §4.7: "the override must re-run the
// corresponding probe with leniency enabled"). The fs_format half of the
// override lives in fs.ProbeNamed, which this only prepares the image
// for: callers sequence ApplyOrderOverride then fs.ProbeNamed, rolling
// back the order on rejection.
//
// "Physical format cannot be changed by override": req.Physical must
// match the format already derived from the image's bytes.
func (di *DiskImage) ApplyOrderOverride(req FormatOverrideRequest) error {
	di.mu.Lock()
	defer di.mu.Unlock()
	if err := di.checkOpen(); err != nil {
		return err
	}
	if req.Physical != di.geom.physical {
		return New(ErrUnsupportedPhysicalFmt,
			"override requested physical format %v but image is %v", req.Physical, di.geom.physical)
	}
	if req.Order == OrderUnknown {
		return New(ErrInvalidArg, "override requires a concrete sector order")
	}
	prev := di.geom.order
	di.geom.order = req.Order
	if di.cache != nil {
		di.cache.invalidate()
	}
	di.notes.Info("order override: %v -> %v", prev, req.Order)
	return nil
}
