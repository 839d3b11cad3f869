package ethabi

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

/*
Hashing capability used for checksums, signatures and packed hashing. The
default is "LegacyKeccak"; tests and alternative runtimes may substitute their
own via "Coder.Hasher".
*/
type Hasher interface {
	Keccak256([]byte) Hash
}

// Ethereum's pre-standard Keccak256, from "golang.org/x/crypto/sha3".
type LegacyKeccak struct{}

// Implements "Hasher".
func (LegacyKeccak) Keccak256(input []byte) Hash {
	var out Hash
	hash := sha3.NewLegacyKeccak256()
	hash.Write(input)
	hash.Sum(out[:0])
	return out
}

/*
Configuration shared by hash-dependent operations: checksums, signatures,
packed hashing, log decoding. The zero value is ready to use and corresponds
to the package-level functions: legacy Keccak256, no chain id.

A Coder is a plain value; copy it freely. It holds no mutable state.
*/
type Coder struct {
	// Defaults to "LegacyKeccak".
	Hasher Hasher

	// Optional salt for address checksums (EIP-1191). Nil means plain EIP-55.
	ChainId *big.Int
}

func (self Coder) hasher() Hasher {
	if self.Hasher == nil {
		return LegacyKeccak{}
	}
	return self.Hasher
}

// Hashes the input with the configured hasher.
func (self Coder) Keccak256(input []byte) Hash {
	return self.hasher().Keccak256(input)
}

/*
Like "Keccak256", but returns "ZeroHash" when the digest equals the hash of
empty input. ZeroHash JSON-encodes as "null". This lets callers tell "hashed
nothing" apart from a real digest.
*/
func (self Coder) Sha3(input []byte) Hash {
	out := self.Keccak256(input)
	if out == emptyKeccak {
		return ZeroHash
	}
	return out
}

// Keccak256 of zero-length input.
var emptyKeccak = MustParseHash(`0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470`)

// Package-level version of "Coder.Keccak256" with default settings.
func Keccak256(input []byte) Hash { return Coder{}.Keccak256(input) }

// Package-level version of "Coder.Sha3" with default settings.
func Sha3(input []byte) Hash { return Coder{}.Sha3(input) }
