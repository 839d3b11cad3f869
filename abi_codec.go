package ethabi

/*
See https://docs.soliditylang.org/en/latest/abi-spec.html#formal-specification-of-the-encoding
*/

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

/*
ABI-encodes the values as a tuple of the given types, using the head/tail
layout. Static values occupy the head in place; dynamic values are appended to
the tail and referenced from the head by an offset relative to the start of the
encoding. The output length is always a multiple of 32.
*/
func EncodeValues(types []AbiType, values []Value) ([]byte, error) {
	if len(types) != len(values) {
		return nil, errors.Wrapf(ErrTypeMismatch, `arity mismatch: expected %v values, got %v`,
			len(types), len(values))
	}
	return appendSeq(nil, func(i int) AbiType { return types[i] }, values)
}

/*
Inverse of "EncodeValues". Every offset, length and padding is validated;
malformed input fails with "ErrInvalidBytes". Trailing bytes past the last
value are ignored.
*/
func DecodeValues(types []AbiType, data []byte) ([]Value, error) {
	return newAbiDecoder(data).decodeSeq(data, len(types), func(i int) AbiType { return types[i] })
}

// Encodes a single value. Equivalent to a tuple of one.
func EncodeValue(atype AbiType, val Value) ([]byte, error) {
	return EncodeValues([]AbiType{atype}, []Value{val})
}

// Decodes a single value. Equivalent to a tuple of one.
func DecodeValue(atype AbiType, data []byte) (Value, error) {
	out, err := DecodeValues([]AbiType{atype}, data)
	if err != nil {
		return Value{}, err
	}
	return out[0], nil
}

func appendSeq(out []byte, typeAt func(int) AbiType, values []Value) ([]byte, error) {
	headSize := 0
	for i := range values {
		headSize += typeAt(i).HeadSize()
	}

	head := make([]byte, 0, headSize)
	var tail []byte

	for i, val := range values {
		atype := typeAt(i)
		var err error

		if !atype.IsDynamic() {
			head, err = appendValue(head, atype, val)
			if err != nil {
				return out, errors.WithMessagef(err, `failed to encode value %v of type %q`, i, atype)
			}
			continue
		}

		head = abiAppendUint64(head, uint64(headSize+len(tail)))
		tail, err = appendValue(tail, atype, val)
		if err != nil {
			return out, errors.WithMessagef(err, `failed to encode value %v of type %q`, i, atype)
		}
	}

	if len(head) != headSize {
		return out, errors.Errorf(`internal error: expected a head of %v bytes, got %v`, headSize, len(head))
	}

	out = append(out, head...)
	return append(out, tail...), nil
}

func appendValue(out []byte, atype AbiType, val Value) ([]byte, error) {
	switch atype.Kind() {
	case AbiKindBool:
		if val.Kind != ValueBool {
			break
		}
		if val.Bool {
			return append(out, trueWord[:]...), nil
		}
		return append(out, falseWord[:]...), nil

	case AbiKindUint, AbiKindInt:
		if val.Kind != ValueNumber || val.Number == nil {
			break
		}
		word, err := bigToWord(val.Number, atype.Size(), atype.Kind() == AbiKindInt)
		if err != nil {
			return out, err
		}
		buf := word.Bytes32()
		return append(out, buf[:]...), nil

	case AbiKindAddress:
		if val.Kind != ValueAddress {
			break
		}
		return appendLeftPadded(out, val.Address[:]), nil

	case AbiKindFixedBytes, AbiKindFunction:
		if val.Kind != ValueBytes {
			break
		}
		if len(val.Bytes) != atype.Size() {
			return out, errors.Wrapf(ErrTypeMismatch, `%v requires exactly %v bytes, got %v`,
				atype, atype.Size(), len(val.Bytes))
		}
		return appendRightPadded(out, val.Bytes), nil

	case AbiKindBytes:
		if val.Kind != ValueBytes {
			break
		}
		out = abiAppendUint64(out, uint64(len(val.Bytes)))
		return appendRightPadded(out, val.Bytes), nil

	case AbiKindString:
		if val.Kind != ValueString {
			break
		}
		out = abiAppendUint64(out, uint64(len(val.Text)))
		return appendRightPadded(out, stringToBytesUnsafe(val.Text)), nil

	case AbiKindFixedArray:
		if val.Kind != ValueList {
			break
		}
		if len(val.List) != atype.Size() {
			return out, errors.Wrapf(ErrTypeMismatch, `%v requires %v elements, got %v`,
				atype, atype.Size(), len(val.List))
		}
		elem := atype.Elem()
		return appendSeq(out, func(int) AbiType { return elem }, val.List)

	case AbiKindArray:
		if val.Kind != ValueList {
			break
		}
		out = abiAppendUint64(out, uint64(len(val.List)))
		elem := atype.Elem()
		return appendSeq(out, func(int) AbiType { return elem }, val.List)

	case AbiKindTuple:
		if val.Kind != ValueList {
			break
		}
		if len(val.List) != atype.NumComponents() {
			return out, errors.Wrapf(ErrTypeMismatch, `%v requires %v components, got %v`,
				atype, atype.NumComponents(), len(val.List))
		}
		return appendSeq(out, atype.Component, val.List)
	}

	return out, errors.Wrapf(ErrTypeMismatch, `can't encode %v as %q`, val.Kind, atype)
}

/*
Decoding state shared by one call. Each scalar, "bytes", "string" and dynamic
array length occupies its own word in a well-formed encoding, so decoding more
of them than the input has words means the offsets alias each other. The budget
enforces this, keeping the output linear in the input size.
*/
type abiDecoder struct{ budget int }

func newAbiDecoder(data []byte) *abiDecoder {
	return &abiDecoder{budget: len(data)/wordSize + 1}
}

func (self *abiDecoder) spend(atype AbiType) error {
	if self.budget <= 0 {
		return errors.Wrapf(ErrInvalidBytes, `decoding %v exceeds the size of the input; offsets overlap`, atype)
	}
	self.budget--
	return nil
}

/*
Decodes "count" values laid out head/tail at the start of "data". Offsets read
from the head are relative to the start of "data".
*/
func (self *abiDecoder) decodeSeq(data []byte, count int, typeAt func(int) AbiType) ([]Value, error) {
	out := make([]Value, count)
	pos := 0

	for i := range out {
		atype := typeAt(i)
		start := pos

		if atype.IsDynamic() {
			offset, err := readOffset(data, pos)
			if err != nil {
				return nil, errors.WithMessagef(err, `value %v of type %q`, i, atype)
			}
			start = offset
		}

		val, err := self.decodeValueAt(data, start, atype)
		if err != nil {
			return nil, errors.WithMessagef(err, `value %v of type %q`, i, atype)
		}
		out[i] = val
		pos += atype.HeadSize()
	}
	return out, nil
}

// Decodes one value whose encoding starts at "data[pos]".
func (self *abiDecoder) decodeValueAt(data []byte, pos int, atype AbiType) (Value, error) {
	// Fixed arrays and tuples consist of their elements.
	if kind := atype.Kind(); kind != AbiKindFixedArray && kind != AbiKindTuple {
		err := self.spend(atype)
		if err != nil {
			return Value{}, err
		}
	}

	switch atype.Kind() {
	case AbiKindBool:
		word, err := readWord(data, pos)
		if err != nil {
			return Value{}, err
		}
		if !isZeros(word[:wordSize-1]) || word[wordSize-1] > 1 {
			return Value{}, errors.Wrapf(ErrInvalidBytes, `malformed bool word %x`, word)
		}
		return BoolValue(word[wordSize-1] == 1), nil

	case AbiKindUint:
		word, err := readUint256(data, pos)
		if err != nil {
			return Value{}, err
		}
		if word.BitLen() > atype.Size() {
			return Value{}, errors.Wrapf(ErrInvalidBytes, `%v overflows %v`, word, atype)
		}
		return NumberValue(word.ToBig()), nil

	case AbiKindInt:
		word, err := readUint256(data, pos)
		if err != nil {
			return Value{}, err
		}
		extended := new(uint256.Int).ExtendSign(word, uint256.NewInt(uint64(atype.Size()/8-1)))
		if !extended.Eq(word) {
			return Value{}, errors.Wrapf(ErrInvalidBytes, `%x is not a sign-extended %v`, word.Bytes32(), atype)
		}
		return NumberValue(wordToBig(word, true)), nil

	case AbiKindAddress:
		word, err := readWord(data, pos)
		if err != nil {
			return Value{}, err
		}
		var addr Address
		if !isZeros(word[:wordSize-len(addr)]) {
			return Value{}, errors.Wrapf(ErrInvalidBytes, `malformed address word %x`, word)
		}
		copy(addr[:], word[wordSize-len(addr):])
		return AddressValue(addr), nil

	case AbiKindFixedBytes, AbiKindFunction:
		word, err := readWord(data, pos)
		if err != nil {
			return Value{}, err
		}
		size := atype.Size()
		if !isZeros(word[size:]) {
			return Value{}, errors.Wrapf(ErrInvalidBytes, `malformed %v word %x: non-zero padding`, atype, word)
		}
		return BytesValue(append([]byte{}, word[:size]...)), nil

	case AbiKindBytes, AbiKindString:
		body, err := readDynamicBytes(data, pos)
		if err != nil {
			return Value{}, err
		}
		if atype.Kind() == AbiKindString {
			return StringValue(string(body)), nil
		}
		return BytesValue(append([]byte{}, body...)), nil

	case AbiKindFixedArray:
		if pos > len(data) {
			return Value{}, lenMismatch(pos, len(data))
		}
		elem := atype.Elem()
		if atype.Size() > (len(data)-pos)/elem.HeadSize() {
			return Value{}, lenMismatch(pos+atype.Size()*elem.HeadSize(), len(data))
		}
		list, err := self.decodeSeq(data[pos:], atype.Size(), func(int) AbiType { return elem })
		return ListValue(list...), err

	case AbiKindArray:
		count, err := readLength(data, pos)
		if err != nil {
			return Value{}, err
		}
		elem := atype.Elem()
		base := pos + wordSize
		if count > (len(data)-base)/elem.HeadSize() {
			return Value{}, errors.Wrapf(ErrInvalidBytes, `array of %v elements of %v doesn't fit into %v bytes`,
				count, elem, len(data)-base)
		}
		list, err := self.decodeSeq(data[base:], count, func(int) AbiType { return elem })
		return ListValue(list...), err

	case AbiKindTuple:
		if pos > len(data) {
			return Value{}, lenMismatch(pos, len(data))
		}
		list, err := self.decodeSeq(data[pos:], atype.NumComponents(), atype.Component)
		return ListValue(list...), err
	}

	return Value{}, errors.Wrapf(ErrInvalidType, `can't decode %q`, atype)
}

func readWord(data []byte, pos int) (Word, error) {
	var out Word
	if pos < 0 || pos > len(data)-wordSize {
		return out, lenMismatch(pos+wordSize, len(data))
	}
	copy(out[:], data[pos:pos+wordSize])
	return out, nil
}

func readUint256(data []byte, pos int) (*uint256.Int, error) {
	word, err := readWord(data, pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(word[:]), nil
}

/*
Reads a word used as an offset or a length. It must fit into 64 bits and must
not exceed the data length, which also keeps it within "int".
*/
func readLength(data []byte, pos int) (int, error) {
	word, err := readWord(data, pos)
	if err != nil {
		return 0, err
	}
	if !isZeros(word[:wordSize-8]) {
		return 0, errors.Wrapf(ErrInvalidBytes, `offset or length %x is out of range`, word)
	}
	num := binary.BigEndian.Uint64(word[wordSize-8:])
	if num > uint64(len(data)) {
		return 0, errors.Wrapf(ErrInvalidBytes, `offset or length %v exceeds the data length %v`, num, len(data))
	}
	return int(num), nil
}

func readOffset(data []byte, pos int) (int, error) { return readLength(data, pos) }

// Length-prefixed content of "bytes" and "string". Trailing padding is optional.
func readDynamicBytes(data []byte, pos int) ([]byte, error) {
	length, err := readLength(data, pos)
	if err != nil {
		return nil, err
	}
	start := pos + wordSize
	if length > len(data)-start {
		return nil, lenMismatch(start+length, len(data))
	}
	return data[start : start+length], nil
}

func isZeros(buf []byte) bool {
	for _, char := range buf {
		if char != 0 {
			return false
		}
	}
	return true
}

func lenMismatch(expected, actual int) error {
	return errors.Wrapf(ErrInvalidBytes, `length mismatch: expected at least %v bytes, got %v`, expected, actual)
}

func abiPaddedLen(length int) int {
	if length <= 0 {
		return length
	}
	return (length + wordSize - 1) / wordSize * wordSize
}

func abiPaddingDelta(length int) int {
	if length <= 0 {
		return 0
	}
	return abiPaddedLen(length) - length
}

var zeros32 [wordSize]byte

func appendLeftPadded(out []byte, buf []byte) []byte {
	out = append(out, zeros32[:abiPaddingDelta(len(buf))]...)
	return append(out, buf...)
}

func appendRightPadded(out []byte, buf []byte) []byte {
	out = append(out, buf...)
	return append(out, zeros32[:abiPaddingDelta(len(buf))]...)
}

func abiAppendUint64(out []byte, num uint64) []byte {
	out = append(out, zeros32[:wordSize-8]...)
	return binary.BigEndian.AppendUint64(out, num)
}

var (
	trueWord = func() Word {
		var out Word
		out[len(out)-1] = 1
		return out
	}()
	falseWord Word
)
