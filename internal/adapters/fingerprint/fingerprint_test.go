package fingerprint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMAC_Formats(t *testing.T) {
	cases := []string{
		"00:1A:2B:3C:4D:5E",
		"00-1A-2B-3C-4D-5E",
		"001A2B3C4D5E",
		"001a.2b3c.4d5e",
	}
	for _, c := range cases {
		mac, err := ParseMAC(c)
		require.NoError(t, err, c)
		assert.Equal(t, "00:1A:2B", mac.OUI())
		assert.Equal(t, "001A2B", mac.HexPrefix())
	}
}

func TestParseMAC_Invalid(t *testing.T) {
	_, err := ParseMAC("")
	assert.ErrorIs(t, err, ErrEmptyMAC)

	_, err = ParseMAC("not-a-mac")
	assert.ErrorIs(t, err, ErrInvalidMAC)
}

func TestMACAddress_LocallyAdministered(t *testing.T) {
	assert.True(t, MustParseMAC("02:00:00:00:00:01").IsLocallyAdministered())
	assert.True(t, MustParseMAC("A6:9A:98:11:22:33").IsLocallyAdministered())
	assert.False(t, MustParseMAC("00:1A:2B:3C:4D:5E").IsLocallyAdministered())
}

func TestStaticRepository(t *testing.T) {
	repo := NewStaticVendorRepository(map[string]string{"00:1A:2B": "Ayecom Technology"})
	defer repo.Close()

	vendor, err := repo.LookupVendor(context.Background(), MustParseMAC("00:1A:2B:00:00:01"))
	require.NoError(t, err)
	assert.Equal(t, "Ayecom Technology", vendor)

	_, err = repo.LookupVendor(context.Background(), MustParseMAC("FF:FF:00:00:00:01"))
	assert.ErrorIs(t, err, ErrVendorNotFound)
}

func TestCompositeRepository_FallsThrough(t *testing.T) {
	primary := NewStaticVendorRepository(map[string]string{"AA:BB:CC": "Primary Corp"})
	secondary := NewStaticVendorRepository(map[string]string{"11:22:33": "Secondary Inc"})
	composite := NewCompositeVendorRepository(primary, secondary)

	vendor, err := composite.LookupVendor(context.Background(), MustParseMAC("11:22:33:00:00:01"))
	require.NoError(t, err)
	assert.Equal(t, "Secondary Inc", vendor)

	vendor, _ = composite.LookupVendor(context.Background(), MustParseMAC("DE:AD:00:00:00:01"))
	assert.Equal(t, "Unknown", vendor)
}

func TestOUIDatabase_InsertAndLookup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "oui.db")
	db, err := NewOUIDatabase(dbPath, 100, NewStaticVendorRepository(CommonOUIs))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.InsertOUI(ctx, OUIEntry{
		Prefix:      "10:27:F5",
		Vendor:      "TP-Link Corporation",
		LastUpdated: time.Now(),
	}))

	vendor, err := db.LookupVendor(ctx, MustParseMAC("10:27:F5:A9:10:45"))
	require.NoError(t, err)
	assert.Equal(t, "TP-Link Corporation", vendor)

	// Second hit comes from the cache.
	vendor, err = db.LookupVendor(ctx, MustParseMAC("10:27:F5:00:00:00"))
	require.NoError(t, err)
	assert.Equal(t, "TP-Link Corporation", vendor)
	hits, _ := db.cache.Stats()
	assert.GreaterOrEqual(t, hits, int64(1))

	// Miss falls through to the static fallback.
	vendor, err = db.LookupVendor(ctx, MustParseMAC("00:1A:2B:00:00:00"))
	require.NoError(t, err)
	assert.Equal(t, "Ayecom Technology", vendor)
}

func TestOUIDatabase_BulkInsert(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "oui.db")
	db, err := NewOUIDatabase(dbPath, 10, nil)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	entries := []OUIEntry{
		{Prefix: "00:00:01", Vendor: "Vendor A", LastUpdated: time.Now()},
		{Prefix: "00:00:02", Vendor: "Vendor B", LastUpdated: time.Now()},
		{Prefix: "00:00:03", Vendor: "Vendor C", LastUpdated: time.Now()},
	}
	require.NoError(t, db.BulkInsertOUIs(ctx, entries))

	count, err := db.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestResolver_NeverFails(t *testing.T) {
	resolver := NewResolver(NewStaticVendorRepository(map[string]string{"00:1A:2B": "Ayecom Technology"}))

	assert.Equal(t, "Ayecom Technology", resolver.ResolveVendor(context.Background(), "00:1A:2B:99:88:77"))
	assert.Equal(t, "Unknown", resolver.ResolveVendor(context.Background(), "garbage"))
	assert.Equal(t, "Unknown", resolver.ResolveVendor(context.Background(), ""))
	assert.Equal(t, "Unknown", resolver.ResolveVendor(context.Background(), "DE:AD:BE:EF:00:01"))
}

func TestVendorCache_Eviction(t *testing.T) {
	cache := NewVendorCache(2)
	cache.Set("A", "1")
	cache.Set("B", "2")
	cache.Set("C", "3") // evicts A

	_, ok := cache.Get("A")
	assert.False(t, ok)
	v, ok := cache.Get("C")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Equal(t, 2, cache.Len())
}
