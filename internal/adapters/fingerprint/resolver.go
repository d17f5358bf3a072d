package fingerprint

import (
	"context"

	"github.com/afraa786/wichain/internal/core/ports"
)

// Resolver adapts a VendorRepository chain to the never-failing
// ports.VendorResolver contract: malformed or unregistered BSSIDs resolve
// to "Unknown" instead of erroring.
type Resolver struct {
	repo VendorRepository
}

// NewResolver wraps a repository (usually a composite of database cache and
// static fallback).
func NewResolver(repo VendorRepository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveVendor implements ports.VendorResolver.
func (r *Resolver) ResolveVendor(ctx context.Context, bssid string) string {
	mac, err := ParseMAC(bssid)
	if err != nil {
		return "Unknown"
	}

	vendor, err := r.repo.LookupVendor(ctx, mac)
	if err != nil || vendor == "" {
		return "Unknown"
	}
	return vendor
}

var _ ports.VendorResolver = (*Resolver)(nil)
