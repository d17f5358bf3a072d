package fingerprint

import (
	"fmt"
	"net"
	"strings"
)

// MACAddress is a value object wrapping a validated hardware address.
type MACAddress struct {
	address net.HardwareAddr
}

// ParseMAC parses a MAC address string. Accepted forms:
// "XX:XX:XX:XX:XX:XX", "XX-XX-XX-XX-XX-XX", "XXXX.XXXX.XXXX", "XXXXXXXXXXXX".
func ParseMAC(s string) (MACAddress, error) {
	if s == "" {
		return MACAddress{}, ErrEmptyMAC
	}

	normalized := strings.ReplaceAll(s, "-", ":")
	normalized = strings.ReplaceAll(normalized, ".", "")

	if !strings.Contains(normalized, ":") && len(normalized) == 12 {
		var parts []string
		for i := 0; i < 12; i += 2 {
			parts = append(parts, normalized[i:i+2])
		}
		normalized = strings.Join(parts, ":")
	}

	hw, err := net.ParseMAC(normalized)
	if err != nil {
		return MACAddress{}, &ValidationError{Field: "mac", Value: s, Err: ErrInvalidMAC}
	}
	return MACAddress{address: hw}, nil
}

// MustParseMAC parses a MAC address and panics on error. Test helper.
func MustParseMAC(s string) MACAddress {
	mac, err := ParseMAC(s)
	if err != nil {
		panic(fmt.Sprintf("invalid MAC address %q: %v", s, err))
	}
	return mac
}

// OUI returns the first three octets as "XX:XX:XX".
func (m MACAddress) OUI() string {
	if len(m.address) < 3 {
		return ""
	}
	return fmt.Sprintf("%02X:%02X:%02X", m.address[0], m.address[1], m.address[2])
}

// HexPrefix returns the OUI as 6 bare uppercase hex characters ("001A2B"),
// the key form used by the risk tier tables.
func (m MACAddress) HexPrefix() string {
	if len(m.address) < 3 {
		return ""
	}
	return fmt.Sprintf("%02X%02X%02X", m.address[0], m.address[1], m.address[2])
}

// IsLocallyAdministered reports whether bit 1 (0x02) of the first octet is
// set, which marks randomized/software-assigned addresses.
func (m MACAddress) IsLocallyAdministered() bool {
	if len(m.address) == 0 {
		return false
	}
	return (m.address[0] & 0x02) != 0
}

// IsMulticast reports whether bit 0 (0x01) of the first octet is set.
func (m MACAddress) IsMulticast() bool {
	if len(m.address) == 0 {
		return false
	}
	return (m.address[0] & 0x01) != 0
}

// IsValid returns true for a non-empty parsed address.
func (m MACAddress) IsValid() bool {
	return len(m.address) > 0
}

// String returns the canonical colon-separated uppercase form.
func (m MACAddress) String() string {
	return strings.ToUpper(m.address.String())
}
