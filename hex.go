package ethabi

import (
	"encoding/hex"
	"math"
	"math/big"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

/*
Similar to "hex.Encode" from "encoding/hex". Writes a hex-encoded string
representing the input into the output buffer, prepending "0x". Requires the
input and output sizes to match exactly. Specifically, the output size must be
"HexEncodedLen(len(input))".
*/
func HexEncodeTo(output []byte, input []byte) error {
	if HexEncodedLen(len(input)) != len(output) {
		return errors.Errorf("hex-encoded output has %d bytes, have space for %d",
			HexEncodedLen(len(input)), len(output))
	}
	output[0] = '0'
	output[1] = 'x'
	hex.Encode(output[2:], input)
	return nil
}

// Version of "HexEncodeTo" that always allocates the output.
func HexEncode(input []byte) []byte {
	out := make([]byte, HexEncodedLen(len(input)))
	err := HexEncodeTo(out, input)
	if err != nil {
		panic(err)
	}
	return out
}

/*
Similar to "hex.Decode" from "encoding/hex". Hex-decodes the input, dropping the
mandatory "0x" prefix, and writes it to the output. Requires the input and
output sizes to match exactly. Specifically, the output size must be
"HexDecodedLen(len(input))". Doesn't modify the output on error.

Empty or nil input is ok.
*/
func HexDecodeTo(output []byte, input []byte) error {
	raw, err := drop0x(input)
	if err != nil {
		return err
	}
	if HexDecodedLen(len(input)) != len(output) || len(raw)%2 != 0 {
		return errors.Wrapf(ErrInvalidHex, "hex input %s has %d digits, want %d",
			input, len(raw), len(output)*2)
	}
	if !isHexDigits(bytesToMutableString(raw)) {
		return errors.Wrapf(ErrInvalidHex, "malformed hex input %s", input)
	}
	hex.Decode(output, raw)
	return nil
}

// Version of "HexDecodeTo" that always allocates the output.
func HexDecode(input []byte) ([]byte, error) {
	output := make([]byte, HexDecodedLen(len(input)))
	err := HexDecodeTo(output, input)
	return output, err
}

// Version of "HexDecode" that panics on error. Convenient for initializing
// global variables.
func MustHexDecode(input []byte) []byte {
	output, err := HexDecode(input)
	if err != nil {
		panic(err)
	}
	return output
}

// Version of "HexDecode" that accepts a string and panics on error. Convenient
// for initializing global variables.
func MustHexParse(input string) []byte {
	return MustHexDecode(stringToBytesUnsafe(input))
}

func drop0x(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}
	if len(input) >= 2 && input[0] == '0' && (input[1] == 'x' || input[1] == 'X') {
		return input[2:], nil
	}
	return input, errors.Wrapf(ErrInvalidHex, "malformed input %s: missing 0x prefix", input)
}

/*
Similar to "hex.EncodedLen" from "encoding/hex". Takes an unencoded byte count
and returns how many bytes are needed to hex-encode it with the "0x" prefix.
Namely, it returns "(len * 2) + 2".
*/
func HexEncodedLen(len int) int {
	return (len * 2) + 2
}

/*
Similar to "hex.DecodedLen" from "encoding/hex". Takes an encoded byte count,
which must include the "0x" prefix, and returns how many bytes are necessary to
hold the decoded output. Namely, it returns "(len - 2) / 2". Empty input size is
ok and requires zero output.
*/
func HexDecodedLen(len int) int {
	if len < 2 {
		return 0
	}
	return (len - 2) / 2
}

func hexEncodeQuoted(input []byte) []byte {
	out := make([]byte, HexEncodedLen(len(input))+2)
	out[0] = '"'
	HexEncodeTo(out[1:len(out)-1], input)
	out[len(out)-1] = '"'
	return out
}

// True if the string starts with "0x" or "0X".
func Has0x(str string) bool {
	return len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X')
}

// Drops the "0x" or "0X" prefix, if any.
func Strip0x(str string) string {
	if Has0x(str) {
		return str[2:]
	}
	return str
}

/*
True if the input is "0x"-prefixed hex, optionally preceded by a minus sign.
Case-insensitive. "0x" alone is valid and represents empty data.
*/
func IsHexStrict(str string) bool {
	str = strings.TrimPrefix(str, "-")
	return Has0x(str) && isHexDigits(str[2:])
}

/*
Lenient version of "IsHexStrict": the "0x" or "-0x" prefix is optional. A bare
"-" without the prefix is not allowed.
*/
func IsHex(str string) bool {
	if strings.HasPrefix(str, "-") {
		return IsHexStrict(str)
	}
	return isHexDigits(Strip0x(str))
}

/*
True if the input is 64 hex digits, optionally "0x"-prefixed, in uniform case.
Mixed case is rejected since topics carry no checksum.
*/
func IsTopic(str string) bool {
	str = Strip0x(str)
	return len(str) == 64 && isHexDigits(str) && isUniformCase(str)
}

/*
Hex-encodes the bytes with the "0x" prefix. Keeps every byte, including
leading zeros, so that "HexToBytes(BytesToHex(val))" reproduces "val" exactly.
*/
func BytesToHex(input []byte) string {
	return bytesToMutableString(HexEncode(input))
}

/*
Decodes hex into bytes. The "0x" prefix is optional. An odd digit count is
left-padded with a single "0". Fails with "ErrInvalidHex" on any non-hex
character, including a sign.
*/
func HexToBytes(str string) ([]byte, error) {
	digits := Strip0x(str)
	if !isHexDigits(digits) {
		return nil, errors.Wrapf(ErrInvalidHex, "%q is not a valid hex string", str)
	}
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}
	out := make([]byte, len(digits)/2)
	hex.Decode(out, stringToBytesUnsafe(digits))
	return out, nil
}

/*
Hex-encodes UTF-8 text. Contiguous runs of NUL characters are trimmed at both
ends; interior NULs are kept.
*/
func Utf8ToHex(str string) string {
	return BytesToHex([]byte(strings.Trim(str, "\x00")))
}

/*
Decodes strict hex (see "IsHexStrict") into UTF-8 text. Zero bytes are trimmed
at both ends; interior zero bytes are kept. Fails with "ErrInvalidHex" if the
input is not strict hex or the bytes are not valid UTF-8.
*/
func HexToUtf8(str string) (string, error) {
	if !IsHexStrict(str) || strings.HasPrefix(str, "-") {
		return "", errors.Wrapf(ErrInvalidHex, "%q must be a valid hex string", str)
	}
	buf, err := HexToBytes(str)
	if err != nil {
		return "", err
	}
	buf = trimZeroBytes(buf)
	if !utf8.Valid(buf) {
		return "", errors.Wrapf(ErrInvalidHex, "%q doesn't encode valid UTF-8", str)
	}
	return string(buf), nil
}

/*
Converts any supported numeric input into a Quantity. Accepts Go integers,
integral floats, "*big.Int", "*HexInt", "*uint256.Int", decimal strings with an
optional minus sign, and "0x"/"-0x" hex strings. Fails with "ErrInvalidNumber"
otherwise.
*/
func ToQuantity(value interface{}) (*HexInt, error) {
	num, err := toBigInt(value)
	if err != nil {
		return nil, err
	}
	return (*HexInt)(num), nil
}

/*
Same as "ToQuantity", but returns the canonical text form: "0x" followed by
lowercase hex digits without leading zeros, with "-0x" for negatives.

	NumberToHex(15)     // "0xf"
	NumberToHex("-0x01") // "-0x1"
*/
func NumberToHex(value interface{}) (string, error) {
	num, err := toBigInt(value)
	if err != nil {
		return "", err
	}
	return FormatQuantity(num), nil
}

/*
Parses a Quantity: "0x" or "-0x" followed by at least one hex digit. Leading
zeros are tolerated. Fails with "ErrInvalidNumber".
*/
func ParseQuantity(str string) (*big.Int, error) {
	digits := strings.TrimPrefix(str, "-")
	if !Has0x(digits) || len(digits) == 2 {
		return nil, errors.Wrapf(ErrInvalidNumber, "%q is not a hex quantity", str)
	}
	return parseNumber(str)
}

/*
Formats the integer as a Quantity: "0x" followed by lowercase hex digits
without leading zeros, with "-0x" for negatives. Nil formats as "".
*/
func FormatQuantity(num *big.Int) string {
	if num == nil {
		return ""
	}
	if num.Sign() < 0 {
		return "-0x" + new(big.Int).Abs(num).Text(16)
	}
	return "0x" + num.Text(16)
}

/*
Converts strict hex into a base 10 string. Fails with "ErrInvalidHex" if the
input isn't strict hex. "0x" alone converts to "0".
*/
func HexToNumberString(str string) (string, error) {
	if !IsHexStrict(str) {
		return "", errors.Wrapf(ErrInvalidHex, "%q is not a valid hex string", str)
	}
	if len(strings.TrimPrefix(str, "-")) == 2 {
		return "0", nil
	}
	num, err := parseNumber(str)
	if err != nil {
		return "", err
	}
	return num.String(), nil
}

/*
Converts the number into its 256-bit two's complement representation. Accepts
the same inputs as "ToQuantity". Fails with "ErrInvalidNumber" if the value is
outside of "[-2^255, 2^256)".
*/
func ToTwosComplement(value interface{}) (Word, error) {
	num, err := toBigInt(value)
	if err != nil {
		return Word{}, err
	}
	word, err := bigToWord(num, 256, num.Sign() < 0)
	if err != nil {
		return Word{}, err
	}
	return word.Bytes32(), nil
}

/*
Converts the number to a 256-bit word. When "signed", the value must fit into
an intN, otherwise into a uintN. Negative numbers become two's complement.
*/
func bigToWord(num *big.Int, bits int, signed bool) (*uint256.Int, error) {
	if signed {
		limit := new(big.Int).Lsh(bigOne, uint(bits-1))
		if num.Cmp(limit) >= 0 || num.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, errors.Wrapf(ErrInvalidNumber, "%v overflows int%v", num, bits)
		}
	} else if num.Sign() < 0 || num.BitLen() > bits {
		return nil, errors.Wrapf(ErrInvalidNumber, "%v overflows uint%v", num, bits)
	}
	word, _ := uint256.FromBig(num)
	return word, nil
}

// Inverse of "bigToWord".
func wordToBig(word *uint256.Int, signed bool) *big.Int {
	if signed && word.Sign() < 0 {
		out := new(uint256.Int).Neg(word).ToBig()
		return out.Neg(out)
	}
	return word.ToBig()
}

func toBigInt(value interface{}) (*big.Int, error) {
	switch value := value.(type) {
	case nil:
		return nil, errors.Wrap(ErrInvalidNumber, "nil is not a number")
	case *big.Int:
		if value == nil {
			return nil, errors.Wrap(ErrInvalidNumber, "nil is not a number")
		}
		return new(big.Int).Set(value), nil
	case big.Int:
		return new(big.Int).Set(&value), nil
	case *HexInt:
		if value == nil {
			return nil, errors.Wrap(ErrInvalidNumber, "nil is not a number")
		}
		return new(big.Int).Set((*big.Int)(value)), nil
	case *uint256.Int:
		if value == nil {
			return nil, errors.Wrap(ErrInvalidNumber, "nil is not a number")
		}
		return value.ToBig(), nil
	case HexUint64:
		return new(big.Int).SetUint64(uint64(value)), nil
	case float64:
		return floatToBig(value)
	case float32:
		return floatToBig(float64(value))
	case string:
		return parseNumber(value)
	}

	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(val.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(val.Uint()), nil
	case reflect.String:
		return parseNumber(val.String())
	}
	return nil, errors.Wrapf(ErrInvalidNumber, "can't convert %T to a number", value)
}

func floatToBig(value float64) (*big.Int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return nil, errors.Wrapf(ErrInvalidNumber, "%v is not an integer", value)
	}
	out, _ := big.NewFloat(value).Int(nil)
	return out, nil
}

// Parses a decimal or "0x"-prefixed hex numeral with an optional minus sign.
func parseNumber(str string) (*big.Int, error) {
	digits := strings.TrimPrefix(str, "-")
	base := 10
	if Has0x(digits) {
		digits = digits[2:]
		base = 16
		if !isHexDigits(digits) {
			digits = ""
		}
	} else if !isDecimalDigits(digits) {
		digits = ""
	}

	if digits == "" {
		return nil, errors.Wrapf(ErrInvalidNumber, "%q is not a number", str)
	}

	out, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidNumber, "%q is not a number", str)
	}
	if strings.HasPrefix(str, "-") {
		out.Neg(out)
	}
	return out, nil
}

func isHexDigits(str string) bool {
	for i := 0; i < len(str); i++ {
		if !isHexDigit(str[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(char byte) bool {
	return (char >= '0' && char <= '9') ||
		(char >= 'a' && char <= 'f') ||
		(char >= 'A' && char <= 'F')
}

func isDecimalDigits(str string) bool {
	for i := 0; i < len(str); i++ {
		if str[i] < '0' || str[i] > '9' {
			return false
		}
	}
	return len(str) > 0
}

// True if the hex letters in the string are all lowercase or all uppercase.
func isUniformCase(str string) bool {
	return str == strings.ToLower(str) || str == strings.ToUpper(str)
}

func trimZeroBytes(buf []byte) []byte {
	for len(buf) > 0 && buf[0] == 0 {
		buf = buf[1:]
	}
	for len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return buf
}
