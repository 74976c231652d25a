package compute

import (
	"fmt"
	"sort"
	"strings"
)

// Policy breaks ties between devices with equal memory. VendorPriority is
// an ordered list of case-insensitive vendor-name prefixes: a device whose
// vendor matches an earlier prefix ranks higher, and devices matching no
// prefix rank after all that do.
type Policy struct {
	VendorPriority []string
}

// DefaultPolicy prefers discrete GPU vendors in the order most batches
// benefit from. The ordering is a preference, not a law; override it via
// the vendor_priority config key.
func DefaultPolicy() Policy {
	return Policy{VendorPriority: []string{"nvidia", "amd", "intel"}}
}

func (p Policy) vendorRank(vendor string) int {
	v := strings.ToLower(vendor)
	for i, prefix := range p.VendorPriority {
		if strings.HasPrefix(v, strings.ToLower(prefix)) {
			return i
		}
	}
	return len(p.VendorPriority)
}

// Select picks one device from the catalog. An explicit override is
// bounds-checked and always wins. Otherwise devices are ranked by
// descending global memory with the policy breaking ties; the sort is
// stable, so selection is deterministic for a fixed catalog and policy.
func (c *Catalog) Select(override *int, policy Policy) (Device, error) {
	if override != nil {
		i := *override
		if i < 0 || i >= len(c.devices) {
			return Device{}, fmt.Errorf("%w: %d (catalog has %d devices)",
				ErrBadDeviceIndex, i, len(c.devices))
		}
		return c.devices[i], nil
	}

	ranked := make([]Device, len(c.devices))
	copy(ranked, c.devices)
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].GlobalMem != ranked[b].GlobalMem {
			return ranked[a].GlobalMem > ranked[b].GlobalMem
		}
		return policy.vendorRank(ranked[a].Vendor) < policy.vendorRank(ranked[b].Vendor)
	})
	return ranked[0], nil
}
