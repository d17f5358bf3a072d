package fingerprint

import "context"

// VendorRepository looks up device vendors by MAC address.
type VendorRepository interface {
	// LookupVendor returns the vendor name registered for the MAC's OUI.
	LookupVendor(ctx context.Context, mac MACAddress) (string, error)

	// Close releases any resources held by the repository.
	Close() error
}

// VendorWriter is the write side used by the OUI importer tool.
type VendorWriter interface {
	InsertOUI(ctx context.Context, entry OUIEntry) error
	BulkInsertOUIs(ctx context.Context, entries []OUIEntry) error
}

// CompositeVendorRepository tries each repository in order until one
// produces a usable vendor name.
type CompositeVendorRepository struct {
	repositories []VendorRepository
}

// NewCompositeVendorRepository chains repositories front to back.
func NewCompositeVendorRepository(repos ...VendorRepository) *CompositeVendorRepository {
	return &CompositeVendorRepository{repositories: repos}
}

// LookupVendor returns the first non-"Unknown" hit across the chain.
func (c *CompositeVendorRepository) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	if !mac.IsValid() {
		return "", ErrInvalidMAC
	}

	var lastErr error
	for _, repo := range c.repositories {
		vendor, err := repo.LookupVendor(ctx, mac)
		if err == nil && vendor != "" && vendor != "Unknown" {
			return vendor, nil
		}
		if err != nil && err != ErrVendorNotFound {
			lastErr = err
		}
	}

	if lastErr != nil {
		return "Unknown", lastErr
	}
	return "Unknown", ErrVendorNotFound
}

// Close closes every repository in the chain, returning the first error.
func (c *CompositeVendorRepository) Close() error {
	var firstErr error
	for _, repo := range c.repositories {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StaticVendorRepository serves lookups from an in-memory OUI map. It is
// the fallback when the sqlite registry is missing.
type StaticVendorRepository struct {
	vendors map[string]string
}

// NewStaticVendorRepository wraps a map keyed by "XX:XX:XX" prefixes.
func NewStaticVendorRepository(vendors map[string]string) *StaticVendorRepository {
	if vendors == nil {
		vendors = map[string]string{}
	}
	return &StaticVendorRepository{vendors: vendors}
}

func (s *StaticVendorRepository) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	if vendor, ok := s.vendors[mac.OUI()]; ok {
		return vendor, nil
	}
	return "", ErrVendorNotFound
}

func (s *StaticVendorRepository) Close() error { return nil }

// CommonOUIs covers the vendors most often seen in residential and office
// scans, so lookups degrade gracefully without the full IEEE registry.
var CommonOUIs = map[string]string{
	"00:0C:43": "Ralink Technology",
	"00:1A:2B": "Ayecom Technology",
	"00:22:F4": "AMPAK Technology",
	"08:EA:44": "Extreme Networks",
	"00:17:88": "Philips Lighting",
	"00:1B:63": "Apple",
	"3C:5A:B4": "Google",
	"18:B4:30": "Nest Labs",
	"B8:27:EB": "Raspberry Pi Foundation",
	"DC:A6:32": "Raspberry Pi Trading",
	"00:50:F2": "Microsoft",
	"00:0C:29": "VMware",
	"F4:F5:D8": "Google",
	"44:65:0D": "Amazon Technologies",
	"FC:FC:48": "Apple",
	"00:1D:D8": "Microsoft",
	"00:26:BB": "Apple",
	"5C:49:79": "AVM GmbH",
	"C0:25:E9": "TP-Link Technologies",
	"50:C7:BF": "TP-Link Technologies",
	"E8:DE:27": "TP-Link Technologies",
	"00:14:6C": "Netgear",
	"A0:40:A0": "Netgear",
	"00:18:39": "Cisco-Linksys",
	"58:6D:8F": "Cisco-Linksys",
	"00:0F:66": "Cisco-Linksys",
	"00:1E:58": "D-Link",
	"00:26:5A": "D-Link",
	"84:C9:B2": "D-Link",
	"00:09:5B": "Netgear",
	"00:24:B2": "Netgear",
	"F8:1A:67": "TP-Link Technologies",
	"EC:08:6B": "TP-Link Technologies",
	"00:25:9C": "Cisco-Linksys",
	"20:AA:4B": "Cisco-Linksys",
	"00:23:69": "Cisco-Linksys",
	"00:1F:33": "Netgear",
	"30:46:9A": "Netgear",
	"28:C6:8E": "Netgear",
}
