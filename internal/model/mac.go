package model

import (
	"errors"
	"strings"
)

// OUI errors.
var (
	// ErrInvalidOUI is returned when the prefix format is invalid.
	ErrInvalidOUI = errors.New("invalid OUI prefix format")
	// ErrEmptyOUI is returned when the prefix is empty.
	ErrEmptyOUI = errors.New("OUI prefix cannot be empty")
)

const (
	// ouiOctets is the number of octets in an OUI prefix.
	ouiOctets = 3
	// macOctets is the number of octets in a full MAC address.
	macOctets = 6
)

// OUI is an immutable value object representing the vendor prefix of a
// MAC address (the first three octets). It normalizes the many textual
// forms a MAC appears in: Unix tools print colon-separated lowercase,
// Windows getmac prints dash-separated uppercase.
type OUI struct {
	prefix string // Normalized form: uppercase, colon-separated ("08:00:27")
}

// NewOUI creates an OUI from a three-octet prefix string.
// Accepts colon-separated, dash-separated, and bare hex forms in any
// case ("08:00:27", "08-00-27", "080027"). Returns an error if the
// string is not exactly three hex octets.
func NewOUI(prefix string) (OUI, error) {
	if prefix == "" {
		return OUI{}, ErrEmptyOUI
	}
	octets, err := splitOctets(prefix, ouiOctets)
	if err != nil {
		return OUI{}, err
	}
	return OUI{prefix: strings.Join(octets, ":")}, nil
}

// MustNewOUI creates an OUI or panics if invalid.
// Use only for known-valid prefixes in denylist tables and tests.
func MustNewOUI(prefix string) OUI {
	oui, err := NewOUI(prefix)
	if err != nil {
		panic(err)
	}
	return oui
}

// OUIFromMAC extracts the OUI from a full six-octet MAC address string.
// Accepts the same separator and case variants as NewOUI.
func OUIFromMAC(mac string) (OUI, error) {
	if mac == "" {
		return OUI{}, ErrEmptyOUI
	}
	octets, err := splitOctets(mac, macOctets)
	if err != nil {
		return OUI{}, err
	}
	return OUI{prefix: strings.Join(octets[:ouiOctets], ":")}, nil
}

// splitOctets normalizes a separator-or-bare hex string into uppercase
// two-character octets and validates the octet count.
func splitOctets(s string, want int) ([]string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", ":")

	var octets []string
	if strings.Contains(normalized, ":") {
		octets = strings.Split(normalized, ":")
	} else {
		if len(normalized)%2 != 0 {
			return nil, ErrInvalidOUI
		}
		for i := 0; i < len(normalized); i += 2 {
			octets = append(octets, normalized[i:i+2])
		}
	}

	if len(octets) != want {
		return nil, ErrInvalidOUI
	}
	for _, octet := range octets {
		if !isHexOctet(octet) {
			return nil, ErrInvalidOUI
		}
	}
	return octets, nil
}

// isHexOctet checks that a string is exactly two hex digits.
func isHexOctet(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isHexLetter := c >= 'A' && c <= 'F'
		if !isDigit && !isHexLetter {
			return false
		}
	}
	return true
}

// String returns the normalized prefix ("08:00:27").
func (o OUI) String() string {
	return o.prefix
}

// Bare returns the prefix without separators ("080027").
func (o OUI) Bare() string {
	return strings.ReplaceAll(o.prefix, ":", "")
}

// IsZero returns true if this is a zero value (empty) OUI.
func (o OUI) IsZero() bool {
	return o.prefix == ""
}

// Equals returns true if two OUI values are equal.
func (o OUI) Equals(other OUI) bool {
	return o.prefix == other.prefix
}
