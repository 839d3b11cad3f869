package ethabi

import (
	"math/big"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Examples from the Solidity ABI documentation.
var abiDocVectors = []struct {
	name     string
	types    []string
	selector string
	args     []interface{}
	words    []string
}{
	{
		name:     "baz",
		types:    []string{"uint32", "bool"},
		selector: "0xcdcd77c0",
		args:     []interface{}{uint32(69), true},
		words: []string{
			"0000000000000000000000000000000000000000000000000000000000000045",
			"0000000000000000000000000000000000000000000000000000000000000001",
		},
	},
	{
		name:     "sam",
		types:    []string{"bytes", "bool", "uint256[]"},
		selector: "0xa5643bf2",
		args:     []interface{}{[]byte("dave"), true, []int{1, 2, 3}},
		words: []string{
			"0000000000000000000000000000000000000000000000000000000000000060",
			"0000000000000000000000000000000000000000000000000000000000000001",
			"00000000000000000000000000000000000000000000000000000000000000a0",
			"0000000000000000000000000000000000000000000000000000000000000004",
			"6461766500000000000000000000000000000000000000000000000000000000",
			"0000000000000000000000000000000000000000000000000000000000000003",
			"0000000000000000000000000000000000000000000000000000000000000001",
			"0000000000000000000000000000000000000000000000000000000000000002",
			"0000000000000000000000000000000000000000000000000000000000000003",
		},
	},
	{
		name:     "f",
		types:    []string{"uint256", "uint32[]", "bytes10", "bytes"},
		selector: "0x8be65246",
		args: []interface{}{
			0x123,
			[]uint32{0x456, 0x789},
			[10]byte{'1', '2', '3', '4', '5', '6', '7', '8', '9', '0'},
			[]byte("Hello, world!"),
		},
		words: []string{
			"0000000000000000000000000000000000000000000000000000000000000123",
			"0000000000000000000000000000000000000000000000000000000000000080",
			"3132333435363738393000000000000000000000000000000000000000000000",
			"00000000000000000000000000000000000000000000000000000000000000e0",
			"0000000000000000000000000000000000000000000000000000000000000002",
			"0000000000000000000000000000000000000000000000000000000000000456",
			"0000000000000000000000000000000000000000000000000000000000000789",
			"000000000000000000000000000000000000000000000000000000000000000d",
			"48656c6c6f2c20776f726c642100000000000000000000000000000000000000",
		},
	},
	{
		name:     "g",
		types:    []string{"uint256[][]", "string[]"},
		selector: "0x2289b18c",
		args:     []interface{}{[][]int{{1, 2}, {3}}, []string{"one", "two", "three"}},
		words: []string{
			"0000000000000000000000000000000000000000000000000000000000000040",
			"0000000000000000000000000000000000000000000000000000000000000140",
			"0000000000000000000000000000000000000000000000000000000000000002",
			"0000000000000000000000000000000000000000000000000000000000000040",
			"00000000000000000000000000000000000000000000000000000000000000a0",
			"0000000000000000000000000000000000000000000000000000000000000002",
			"0000000000000000000000000000000000000000000000000000000000000001",
			"0000000000000000000000000000000000000000000000000000000000000002",
			"0000000000000000000000000000000000000000000000000000000000000001",
			"0000000000000000000000000000000000000000000000000000000000000003",
			"0000000000000000000000000000000000000000000000000000000000000003",
			"0000000000000000000000000000000000000000000000000000000000000060",
			"00000000000000000000000000000000000000000000000000000000000000a0",
			"00000000000000000000000000000000000000000000000000000000000000e0",
			"0000000000000000000000000000000000000000000000000000000000000003",
			"6f6e650000000000000000000000000000000000000000000000000000000000",
			"0000000000000000000000000000000000000000000000000000000000000003",
			"74776f0000000000000000000000000000000000000000000000000000000000",
			"0000000000000000000000000000000000000000000000000000000000000005",
			"7468726565000000000000000000000000000000000000000000000000000000",
		},
	},
}

func TestEncodeAbiDocVectors(t *testing.T) {
	for _, test := range abiDocVectors {
		params := mustParams(t, test.types...)
		expected := "0x" + strings.Join(test.words, "")

		out, err := EncodeParameters(params, test.args...)
		require.NoError(t, err, test.name)
		assert.Equal(t, expected, out, test.name)

		fn := NewAbiFunction(test.name, params, nil)
		assert.Equal(t, test.selector, fn.Selector.String(), test.name)

		call, err := EncodeFunctionCall(fn, test.args...)
		require.NoError(t, err, test.name)
		assert.Equal(t, test.selector+expected[2:], call, test.name)
	}
}

func TestDecodeAbiDocVectors(t *testing.T) {
	for _, test := range abiDocVectors {
		params := mustParams(t, test.types...)
		result, err := DecodeParameters(params, "0x"+strings.Join(test.words, ""))
		require.NoError(t, err, test.name)
		require.Equal(t, len(test.types), result.Len(), test.name)

		args := make([]interface{}, result.Len())
		for i, val := range result.Values {
			args[i] = val
		}
		out, err := EncodeParameters(params, args...)
		require.NoError(t, err, test.name)
		assert.Equal(t, "0x"+strings.Join(test.words, ""), out, test.name)
	}

	result, err := DecodeParameters(mustParams(t, "uint256[][]", "string[]"),
		"0x"+strings.Join(abiDocVectors[3].words, ""))
	require.NoError(t, err)

	var nums [][]uint64
	var strs []string
	require.NoError(t, result.Unmarshal(&nums, &strs))
	assert.Equal(t, [][]uint64{{1, 2}, {3}}, nums)
	assert.Equal(t, []string{"one", "two", "three"}, strs)
}

func TestEncodeMixedLayout(t *testing.T) {
	type pair struct {
		Name string
		Num  uint8
	}

	types := mustTypes(t, "(string,uint8)[2]", "int8", "bytes", "uint8[]", "address")
	addr := MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")

	values := []Value{
		ListValue(
			ListValue(StringValue("a"), Int64Value(1)),
			ListValue(StringValue("b"), Int64Value(2)),
		),
		Int64Value(-1),
		BytesValue([]byte{}),
		ListValue(),
		AddressValue(addr),
	}

	expected := hexWords(t,
		"00000000000000000000000000000000000000000000000000000000000000a0",
		"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		"00000000000000000000000000000000000000000000000000000000000001e0",
		"0000000000000000000000000000000000000000000000000000000000000200",
		"0000000000000000000000005aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0000000000000000000000000000000000000000000000000000000000000040",
		"00000000000000000000000000000000000000000000000000000000000000c0",
		"0000000000000000000000000000000000000000000000000000000000000040",
		"0000000000000000000000000000000000000000000000000000000000000001",
		"0000000000000000000000000000000000000000000000000000000000000001",
		"6100000000000000000000000000000000000000000000000000000000000000",
		"0000000000000000000000000000000000000000000000000000000000000040",
		"0000000000000000000000000000000000000000000000000000000000000002",
		"0000000000000000000000000000000000000000000000000000000000000001",
		"6200000000000000000000000000000000000000000000000000000000000000",
		"0000000000000000000000000000000000000000000000000000000000000000",
		"0000000000000000000000000000000000000000000000000000000000000000",
	)

	out, err := EncodeValues(types, values)
	require.NoError(t, err)
	assert.Equal(t, BytesToHex(expected), BytesToHex(out))

	decoded, err := DecodeValues(types, out)
	require.NoError(t, err, spew.Sdump(out))
	require.Len(t, decoded, len(values))
	for i := range values {
		assertValueEqual(t, values[i], decoded[i])
	}

	var pairs [2]pair
	var signed int8
	var buf []byte
	var small []uint8
	var decodedAddr Address
	result := Result{Values: decoded, Types: types}
	require.NoError(t, result.Unmarshal(&pairs, &signed, &buf, &small, &decodedAddr))

	assert.Equal(t, [2]pair{{"a", 1}, {"b", 2}}, pairs)
	assert.Equal(t, int8(-1), signed)
	assert.NotNil(t, buf, "empty bytes decode to a non-nil slice")
	assert.Empty(t, buf)
	assert.Empty(t, small)
	assert.Equal(t, addr, decodedAddr)
}

func TestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		typeName string
		input    interface{}
	}{
		{"bool", false},
		{"uint256", "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
		{"int256", "-57896044618658097711785492504343953926634992332820282019728792003956564819968"},
		{"int24", -8388608},
		{"int24", 8388607},
		{"uint8", 255},
		{"bytes1", []byte{0xff}},
		{"bytes32", "0x0102030405060708091011121314151617181920212223242526272829303132"},
		{"function", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed70a08231"},
		{"string", "我能吞下玻璃而不伤身体。"},
		{"string", ""},
		{"bytes", strings.Repeat("ab", 65)},
		{"string[2]", []string{"one", "two"}},
		{"uint8[][2]", [][]uint8{{1, 2}, {}}},
		{"(uint8,(bool,string)[],bytes4)", []interface{}{7, []interface{}{[]interface{}{true, "x"}}, "0xdeadbeef"}},
	}

	for _, test := range tests {
		atype := MustParseAbiType(test.typeName)
		input := test.input
		if test.typeName == "bytes" {
			input = "0x" + input.(string)
		}

		val, err := ToValue(atype, input)
		require.NoError(t, err, test.typeName)

		out, err := EncodeValue(atype, val)
		require.NoError(t, err, test.typeName)
		assert.Zero(t, len(out)%32, test.typeName)

		decoded, err := DecodeValue(atype, out)
		require.NoError(t, err, test.typeName)
		assertValueEqual(t, val, decoded)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		typeName string
		input    interface{}
		cause    error
	}{
		{"uint8", 256, ErrInvalidNumber},
		{"uint8", -1, ErrInvalidNumber},
		{"int8", 128, ErrInvalidNumber},
		{"int8", -129, ErrInvalidNumber},
		{"uint256", "12a", ErrInvalidNumber},
		{"bool", "true", ErrTypeMismatch},
		{"bool", 1, ErrTypeMismatch},
		{"string", []byte("hi"), ErrTypeMismatch},
		{"bytes4", []byte{1, 2, 3}, ErrTypeMismatch},
		{"bytes4", "0xzz", ErrInvalidHex},
		{"bytes", "abcd", ErrInvalidHex},
		{"address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", ErrChecksumMismatch},
		{"address", []byte{1, 2, 3}, ErrTypeMismatch},
		{"uint8[2]", []int{1, 2, 3}, ErrTypeMismatch},
		{"uint8[]", 1, ErrTypeMismatch},
		{"(uint8,bool)", []interface{}{1}, ErrTypeMismatch},
		{"(uint8,bool)", map[string]interface{}{"a": 1}, ErrTypeMismatch},
		{"uint8", nil, ErrTypeMismatch},
	}

	for _, test := range tests {
		_, err := AbiMarshal(MustParseAbiType(test.typeName), test.input)
		assert.Equal(t, test.cause, errors.Cause(err), "%v %#v", test.typeName, test.input)
	}

	_, err := EncodeValues(mustTypes(t, "uint8", "bool"), []Value{Int64Value(1)})
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	_, err = EncodeValue(MustParseAbiType("uint8"), BoolValue(true))
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	_, err = EncodeValue(MustParseAbiType("bytes2"), BytesValue([]byte{1}))
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	_, err = EncodeValue(MustParseAbiType("(uint8,bool)"), ListValue(Int64Value(1)))
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	_, err = EncodeParameters(mustParams(t, "uint8", "bool"), 1)
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))
}

func TestDecodeMalformed(t *testing.T) {
	zero := "0000000000000000000000000000000000000000000000000000000000000000"
	one := "0000000000000000000000000000000000000000000000000000000000000001"

	tests := []struct {
		desc     string
		typeName string
		words    []string
	}{
		{"empty", "uint256", nil},
		{"bool out of range", "bool", []string{"0000000000000000000000000000000000000000000000000000000000000002"}},
		{"bool high bytes", "bool", []string{"0100000000000000000000000000000000000000000000000000000000000001"}},
		{"uint8 overflow", "uint8", []string{"0000000000000000000000000000000000000000000000000000000000000100"}},
		{"int8 not sign-extended", "int8", []string{"0000000000000000000000000000000000000000000000000000000000000080"}},
		{"int8 bad negative", "int8", []string{"ff0000000000000000000000000000000000000000000000000000000000ff80"}},
		{"address padding", "address", []string{"0000000000000000000000015aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}},
		{"bytes4 padding", "bytes4", []string{"deadbeef00000000000000000000000000000000000000000000000000000001"}},
		{"offset past end", "bytes", []string{"0000000000000000000000000000000000000000000000000000000000000040"}},
		{"offset high bytes", "bytes", []string{"0100000000000000000000000000000000000000000000000000000000000020", one, zero}},
		{"offset into nothing", "bytes", []string{"0000000000000000000000000000000000000000000000000000000000000020"}},
		{"length past end", "string", []string{
			"0000000000000000000000000000000000000000000000000000000000000020",
			"0000000000000000000000000000000000000000000000000000000000000021",
			zero,
		}},
		{"huge length", "bytes", []string{
			"0000000000000000000000000000000000000000000000000000000000000020",
			"00000000000000000000000000000000000000000000000000000000ffffffff",
		}},
		{"huge count", "uint256[]", []string{
			"0000000000000000000000000000000000000000000000000000000000000020",
			"0000000000000000000000000000000000000000000000000000000000000003",
			one,
		}},
		{"huge count with dynamic elements", "string[]", []string{
			"0000000000000000000000000000000000000000000000000000000000000020",
			"000000000000000000000000000000000000000000000000ffffffffffffffff",
		}},
		{"truncated fixed array", "uint8[3]", []string{one, one}},
		{"truncated tuple", "(uint8,bool)", []string{one}},
	}

	for _, test := range tests {
		_, err := DecodeValue(MustParseAbiType(test.typeName), hexWords(t, test.words...))
		assert.Equal(t, ErrInvalidBytes, errors.Cause(err), test.desc)
	}
}

func TestDecodeLenient(t *testing.T) {
	// Trailing bytes are ignored.
	val, err := DecodeValue(MustParseAbiType("uint8"), hexWords(t,
		"0000000000000000000000000000000000000000000000000000000000000007",
		"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	))
	require.NoError(t, err)
	assert.Equal(t, "7", val.String())

	// Trailing padding of dynamic bytes is optional.
	data := hexWords(t,
		"0000000000000000000000000000000000000000000000000000000000000020",
		"0000000000000000000000000000000000000000000000000000000000000002",
	)
	data = append(data, 0xca, 0xfe)
	val, err = DecodeValue(MustParseAbiType("bytes"), data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, val.Bytes)

	// Negative ints must be properly sign-extended.
	val, err = DecodeValue(MustParseAbiType("int8"), hexWords(t,
		"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff80",
	))
	require.NoError(t, err)
	assert.Equal(t, "-128", val.String())

	// Strings aren't validated as UTF-8.
	data = hexWords(t,
		"0000000000000000000000000000000000000000000000000000000000000020",
		"0000000000000000000000000000000000000000000000000000000000000001",
		"ff00000000000000000000000000000000000000000000000000000000000000",
	)
	val, err = DecodeValue(MustParseAbiType("string"), data)
	require.NoError(t, err)
	assert.Equal(t, "\xff", val.Text)
}

func TestEncodeParameterSingle(t *testing.T) {
	out, err := EncodeParameter("uint256", "0x10")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000010", out)

	val, err := DecodeParameter("uint256", out)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(16).Cmp(val.Number))

	_, err = EncodeParameter("uint7", 1)
	assert.Equal(t, ErrInvalidType, errors.Cause(err))
}

func mustTypes(t *testing.T, typeNames ...string) []AbiType {
	out := make([]AbiType, len(typeNames))
	for i, name := range typeNames {
		var err error
		out[i], err = ParseAbiType(name)
		require.NoError(t, err, name)
	}
	return out
}

func mustParams(t *testing.T, typeNames ...string) []AbiParam {
	out, err := ParseAbiParams(typeNames...)
	require.NoError(t, err)
	return out
}

func hexWords(t *testing.T, words ...string) []byte {
	out, err := HexToBytes("0x" + strings.Join(words, ""))
	require.NoError(t, err)
	return out
}

func assertValueEqual(t *testing.T, expected, actual Value) {
	t.Helper()
	if !valuesEqual(expected, actual) {
		assert.Fail(t, "values differ", "expected: %v\nactual:   %v\n%v", expected, actual, spew.Sdump(actual))
	}
}

func valuesEqual(one, other Value) bool {
	if one.Kind != other.Kind {
		return false
	}
	switch one.Kind {
	case ValueBool:
		return one.Bool == other.Bool
	case ValueNumber:
		return one.Number != nil && other.Number != nil && one.Number.Cmp(other.Number) == 0
	case ValueAddress:
		return one.Address == other.Address
	case ValueBytes:
		return string(one.Bytes) == string(other.Bytes)
	case ValueString:
		return one.Text == other.Text
	case ValueList:
		if len(one.List) != len(other.List) {
			return false
		}
		for i := range one.List {
			if !valuesEqual(one.List[i], other.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func TestDecodeAliasedOffsets(t *testing.T) {
	const count = 50
	word := func(out []byte, num int) []byte { return abiAppendUint64(out, uint64(num)) }

	// Every element of the outer array points at the same inner array.
	shared := func(inner []byte) []byte {
		out := word(nil, 0x20)
		out = word(out, count)
		for i := 0; i < count; i++ {
			out = word(out, count*wordSize)
		}
		return append(out, inner...)
	}

	inner := word(nil, count)
	for i := 0; i < count; i++ {
		inner = word(inner, i)
	}
	_, err := DecodeValues(mustTypes(t, "uint256[][]"), shared(inner))
	assert.Equal(t, ErrInvalidBytes, errors.Cause(err))

	// Same, one level deeper, with an empty innermost array.
	middle := word(nil, count)
	for i := 0; i < count; i++ {
		middle = word(middle, count*wordSize)
	}
	middle = word(middle, 0)
	_, err = DecodeValues(mustTypes(t, "uint256[][][]"), shared(middle))
	assert.Equal(t, ErrInvalidBytes, errors.Cause(err))

	// Without aliasing, the same values take enough space to decode.
	rows := make([][]int, count)
	for i := range rows {
		rows[i] = make([]int, count)
		for j := range rows[i] {
			rows[i][j] = j
		}
	}
	types := mustTypes(t, "uint256[][]")
	val, err := ToValue(types[0], rows)
	require.NoError(t, err)
	data, err := EncodeValues(types, []Value{val})
	require.NoError(t, err)

	out, err := DecodeValues(types, data)
	require.NoError(t, err)
	assertValueEqual(t, val, out[0])
}
