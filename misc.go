package ethabi

import (
	"math/big"
	"unsafe"

	"github.com/pkg/errors"
)

// "Magic" words understood by RPC methods that expect a block number.
const (
	BlockNumberEarliest = "earliest"
	BlockNumberLatest   = "latest"
	BlockNumberPending  = "pending"
)

// Zero-initialized arrays for equality comparisons.
var (
	ZeroAddress  Address
	ZeroWord     Word
	ZeroHash     Hash
	ZeroSelector Selector
)

var bigOne = big.NewInt(1)

/*
Reinterprets a byte slice as a string, saving an allocation.
Borrowed from the standard library. Reasonably safe.
*/
func bytesToMutableString(bytes []byte) string {
	return unsafe.String(unsafe.SliceData(bytes), len(bytes))
}

/*
Returns a byte slice backed by the provided string. Mutations are reflected in
the source string, unless it's backed by constant storage, in which case they
trigger a segfault. Should be safe as long as the bytes are treated as
read-only.
*/
func stringToBytesUnsafe(str string) []byte {
	return unsafe.Slice(unsafe.StringData(str), len(str))
}

// Launches a goroutine, returning a channel that will close on completion,
// transmitting its error or panic, if any.
func gogo(fun func() error) chan error {
	out := make(chan error, 1)

	go func() {
		defer func() {
			val := recover()
			if val != nil {
				err, ok := val.(error)
				if !ok {
					err = errors.Errorf(`panic: %v`, val)
				}
				select {
				case out <- err:
				default:
				}
			}
			close(out)
		}()

		err := fun()
		if err != nil {
			out <- err
		}
	}()

	return out
}
