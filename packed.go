package ethabi

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

/*
Explicitly typed argument for "EncodePacked" and "SoliditySha3". ".Type" is
a Solidity type name: "uint8", "int", "address", "bytes4", "bytes", "string",
"bool", or an array of those, such as "uint256[]" or "address[2]".
*/
type PackedArg struct {
	Type  string
	Value interface{}
}

/*
Encodes the arguments in the non-standard packed mode used by
"abi.encodePacked" in Solidity: no padding and no offsets, values simply
concatenated. Array elements are the exception: each one occupies a full
32-byte word, as in Solidity.

Each argument is either a "PackedArg" or a bare value whose type is inferred:

	bool                             bool
	string "-0x..."                  int256
	string of 40 hex digits, with
	or without "0x", uniform case
	or checksummed                   address
	string "0x..."                   bytes
	decimal string, Go number,
	*big.Int, *HexInt, *uint256.Int  int256 if negative, otherwise uint256
	Address                          address
	Word, Hash                       bytes32
	[]byte, HexBytes                 bytes
	other strings                    string

Other slices and arrays fail with "ErrAmbiguousArrayType": element width can't
be inferred from a bare array.
*/
func (self Coder) EncodePacked(args ...interface{}) ([]byte, error) {
	var out []byte
	for i, arg := range args {
		var err error
		out, err = self.appendPackedArg(out, arg)
		if err != nil {
			return nil, errors.WithMessagef(err, `packed argument %v`, i)
		}
	}
	return out, nil
}

// Package-level version of "Coder.EncodePacked" with default settings.
func EncodePacked(args ...interface{}) ([]byte, error) { return Coder{}.EncodePacked(args...) }

/*
Keccak256 of "EncodePacked". Like "Sha3", returns "ZeroHash" when the packed
encoding is empty, which happens only for empty strings and bytes.
*/
func (self Coder) SoliditySha3(args ...interface{}) (Hash, error) {
	packed, err := self.EncodePacked(args...)
	if err != nil {
		return Hash{}, err
	}
	return self.Sha3(packed), nil
}

// Package-level version of "Coder.SoliditySha3" with default settings.
func SoliditySha3(args ...interface{}) (Hash, error) { return Coder{}.SoliditySha3(args...) }

func (self Coder) appendPackedArg(out []byte, arg interface{}) ([]byte, error) {
	switch arg := arg.(type) {
	case PackedArg:
		return self.appendPackedTyped(out, arg.Type, arg.Value)
	case *PackedArg:
		if arg == nil {
			return out, errors.Wrap(ErrTypeMismatch, `nil *PackedArg`)
		}
		return self.appendPackedTyped(out, arg.Type, arg.Value)
	case bool:
		return appendPackedBool(out, arg), nil
	case Address:
		return append(out, arg[:]...), nil
	case Word:
		return append(out, arg[:]...), nil
	case Hash:
		return append(out, arg[:]...), nil
	case []byte:
		return append(out, arg...), nil
	case HexBytes:
		return append(out, arg...), nil
	case string:
		return self.appendPackedString(out, arg)
	}

	val := reflect.ValueOf(arg)
	if val.Kind() == reflect.Slice || val.Kind() == reflect.Array {
		return out, errors.Wrapf(ErrAmbiguousArrayType, `can't infer the element type of %T; use PackedArg`, arg)
	}

	num, err := toBigInt(arg)
	if err != nil {
		return out, err
	}
	if num.Sign() < 0 {
		return appendPackedNumber(out, num, 256, true, 256/8)
	}
	return appendPackedNumber(out, num, 256, false, 256/8)
}

func (self Coder) appendPackedString(out []byte, str string) ([]byte, error) {
	switch {
	// With or without "0x"; mixed case must be a valid checksum.
	case self.IsAddress(str):
		buf, err := HexToBytes(str)
		if err != nil {
			return out, err
		}
		return append(out, buf...), nil

	case strings.HasPrefix(str, "-0x") || strings.HasPrefix(str, "-0X"):
		num, err := parseNumber(str)
		if err != nil {
			return out, err
		}
		return appendPackedNumber(out, num, 256, true, 256/8)

	case Has0x(str):
		buf, err := packedHexBytes(str)
		if err != nil {
			return out, err
		}
		return append(out, buf...), nil

	case isNumericString(str):
		num, err := parseNumber(str)
		if err != nil {
			return out, err
		}
		return appendPackedNumber(out, num, 256, num.Sign() < 0, 256/8)

	default:
		return append(out, strings.Trim(str, "\x00")...), nil
	}
}

func (self Coder) appendPackedTyped(out []byte, typeName string, input interface{}) ([]byte, error) {
	atype, err := ParseAbiType(typeName)
	if err != nil {
		return out, err
	}

	switch atype.Kind() {
	case AbiKindArray, AbiKindFixedArray:
		return self.appendPackedArray(out, atype, input)
	default:
		return self.appendPackedScalar(out, atype, input, false)
	}
}

func (self Coder) appendPackedArray(out []byte, atype AbiType, input interface{}) ([]byte, error) {
	val := deref(reflect.ValueOf(input))
	if !val.IsValid() || (val.Kind() != reflect.Slice && val.Kind() != reflect.Array) {
		return out, errors.Wrapf(ErrTypeMismatch, `%v requires a slice or array, got %T`, atype, input)
	}

	length := val.Len()
	if atype.Kind() == AbiKindFixedArray && length != atype.Size() {
		return out, errors.Wrapf(ErrInvalidArrayLength, `%v requires %v elements, got %v`,
			atype, atype.Size(), length)
	}

	elem := atype.Elem()
	switch elem.Kind() {
	case AbiKindArray, AbiKindFixedArray, AbiKindTuple, AbiKindBytes, AbiKindString:
		return out, errors.Wrapf(ErrInvalidType, `packed encoding of %v is not supported`, atype)
	}

	for i := 0; i < length; i++ {
		var err error
		out, err = self.appendPackedScalar(out, elem, val.Index(i).Interface(), true)
		if err != nil {
			return out, errors.WithMessagef(err, `element %v of %v`, i, atype)
		}
	}
	return out, nil
}

// Array elements are padded to a full word.
func (self Coder) appendPackedScalar(out []byte, atype AbiType, input interface{}, padded bool) ([]byte, error) {
	switch atype.Kind() {
	case AbiKindBool:
		val, ok := input.(bool)
		if !ok {
			break
		}
		if padded {
			word := boolWord(val)
			return append(out, word[:]...), nil
		}
		return appendPackedBool(out, val), nil

	case AbiKindUint, AbiKindInt:
		num, err := toBigInt(input)
		if err != nil {
			return out, err
		}
		width := atype.Size() / 8
		if padded {
			width = wordSize
		}
		return appendPackedNumber(out, num, atype.Size(), atype.Kind() == AbiKindInt, width)

	case AbiKindAddress:
		var addr Address
		switch input := input.(type) {
		case Address:
			addr = input
		case string:
			var err error
			addr, err = self.ParseChecksumAddress(input)
			if err != nil {
				return out, err
			}
		default:
			return out, errors.Wrapf(ErrTypeMismatch, `%v requires an address, got %T`, atype, input)
		}
		if padded {
			return appendLeftPadded(out, addr[:]), nil
		}
		return append(out, addr[:]...), nil

	case AbiKindFixedBytes:
		buf, err := packedBytesInput(atype, input)
		if err != nil {
			return out, err
		}
		if len(buf) > atype.Size() {
			return out, errors.Wrapf(ErrInvalidBytes, `%v can't hold %v bytes`, atype, len(buf))
		}
		fixed := make([]byte, atype.Size())
		copy(fixed, buf)
		if padded {
			return appendRightPadded(out, fixed), nil
		}
		return append(out, fixed...), nil

	case AbiKindBytes:
		buf, err := packedBytesInput(atype, input)
		if err != nil {
			return out, err
		}
		return append(out, buf...), nil

	case AbiKindString:
		str, ok := input.(string)
		if !ok {
			break
		}
		return append(out, strings.Trim(str, "\x00")...), nil
	}

	return out, errors.Wrapf(ErrTypeMismatch, `can't pack %T as %v`, input, atype)
}

func packedBytesInput(atype AbiType, input interface{}) ([]byte, error) {
	switch input := input.(type) {
	case string:
		return packedHexBytes(input)
	case []byte:
		return input, nil
	case HexBytes:
		return input, nil
	case Word:
		return input[:], nil
	case Hash:
		return input[:], nil
	case Address:
		return input[:], nil
	}
	return nil, errors.Wrapf(ErrTypeMismatch, `%v requires hex or bytes, got %T`, atype, input)
}

// Hex with an optional "0x" prefix and an even number of digits.
func packedHexBytes(str string) ([]byte, error) {
	digits := Strip0x(str)
	if len(digits)%2 != 0 || !isHexDigits(digits) {
		return nil, errors.Wrapf(ErrInvalidHex, `%q is not valid hex with an even number of digits`, str)
	}
	return HexToBytes(digits)
}

/*
The low "width" bytes of the 256-bit two's complement of "num", after checking
that it fits into "bits".
*/
func appendPackedNumber(out []byte, num *big.Int, bits int, signed bool, width int) ([]byte, error) {
	word, err := bigToWord(num, bits, signed)
	if err != nil {
		return out, err
	}
	buf := word.Bytes32()
	return append(out, buf[wordSize-width:]...), nil
}

func appendPackedBool(out []byte, val bool) []byte {
	if val {
		return append(out, 1)
	}
	return append(out, 0)
}

func boolWord(val bool) Word {
	if val {
		return trueWord
	}
	return falseWord
}

// Decimal digits with an optional minus sign.
func isNumericString(str string) bool {
	return isDecimalDigits(strings.TrimPrefix(str, "-"))
}
