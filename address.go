package ethabi

import (
	"strings"

	"github.com/pkg/errors"
)

/*
True if the input is 40 hex digits with an optional "0x" prefix, and either has
uniform letter case (no checksum to verify) or a valid mixed-case checksum.
*/
func (self Coder) IsAddress(str string) bool {
	digits := Strip0x(str)
	if len(digits) != 40 || !isHexDigits(digits) {
		return false
	}
	if isUniformCase(digits) {
		return true
	}
	return self.CheckAddressChecksum(str)
}

/*
Converts an address to its mixed-case checksum form (EIP-55), salted with
".ChainId" when set (EIP-1191). Input case is ignored. Fails with
"ErrInvalidHex" if the input isn't 40 hex digits with an optional "0x" prefix.
*/
func (self Coder) ToChecksumAddress(str string) (string, error) {
	digits := Strip0x(str)
	if len(digits) != 40 || !isHexDigits(digits) {
		return "", errors.Wrapf(ErrInvalidHex, "%q is not a valid address", str)
	}
	return "0x" + self.checksumDigits(strings.ToLower(digits)), nil
}

/*
True if the input, after the optional "0x" prefix, exactly matches its checksum
form character by character. All-lowercase and all-uppercase addresses usually
fail this check; use "IsAddress" to accept them.
*/
func (self Coder) CheckAddressChecksum(str string) bool {
	digits := Strip0x(str)
	if len(digits) != 40 || !isHexDigits(digits) {
		return false
	}
	return self.checksumDigits(strings.ToLower(digits)) == digits
}

/*
Strict address parsing for values coming from users. Uniform-case input is
accepted as-is. Mixed-case input must match its checksum, otherwise this fails
with "ErrChecksumMismatch".
*/
func (self Coder) ParseChecksumAddress(str string) (Address, error) {
	digits := Strip0x(str)
	if len(digits) != 40 || !isHexDigits(digits) {
		return Address{}, errors.Wrapf(ErrInvalidHex, "%q is not a valid address", str)
	}
	if !self.IsAddress(str) {
		return Address{}, errors.Wrapf(ErrChecksumMismatch, "%q", str)
	}
	var out Address
	err := out.UnmarshalText(stringToBytesUnsafe("0x" + digits))
	return out, err
}

// Expects 40 lowercase hex digits.
func (self Coder) checksumDigits(lower string) string {
	input := lower
	if self.ChainId != nil {
		input = self.ChainId.String() + "0x" + lower
	}
	hash := self.Keccak256(stringToBytesUnsafe(input))

	out := []byte(lower)
	for i, char := range out {
		if char < 'a' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0xf >= 8 {
			out[i] = char - ('a' - 'A')
		}
	}
	return bytesToMutableString(out)
}

// Returns the EIP-55 mixed-case form of the address, prefixed with "0x".
func (self Address) Checksum() string {
	return "0x" + Coder{}.checksumDigits(Strip0x(self.String()))
}

// Package-level version of "Coder.IsAddress" without a chain id.
func IsAddress(str string) bool { return Coder{}.IsAddress(str) }

// Package-level version of "Coder.ToChecksumAddress" without a chain id.
func ToChecksumAddress(str string) (string, error) { return Coder{}.ToChecksumAddress(str) }

// Package-level version of "Coder.CheckAddressChecksum" without a chain id.
func CheckAddressChecksum(str string) bool { return Coder{}.CheckAddressChecksum(str) }

// Package-level version of "Coder.ParseChecksumAddress" without a chain id.
func ParseChecksumAddress(str string) (Address, error) { return Coder{}.ParseChecksumAddress(str) }
