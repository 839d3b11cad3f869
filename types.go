package ethabi

import (
	"database/sql/driver"
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

var null = []byte{'n', 'u', 'l', 'l'}

// Version of "[]byte" that uses "0x"-prefixed hex encoding and decoding.
type HexBytes []byte

/*
Decodes the provided input. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func DecodeHexBytes(input []byte) (HexBytes, error) {
	var out HexBytes
	err := out.UnmarshalText(input)
	return out, err
}

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func ParseHexBytes(input string) (HexBytes, error) {
	return DecodeHexBytes(stringToBytesUnsafe(input))
}

/*
Same as "ParseHexBytes", but panics on error. Convenient for initializing
global variables.
*/
func MustParseHexBytes(input string) HexBytes {
	out, err := ParseHexBytes(input)
	if err != nil {
		panic(err)
	}
	return out
}

// Implements "encoding.Marshaler". Uses hex encoding prefixed with "0x".
func (self HexBytes) MarshalText() ([]byte, error) {
	return HexEncode([]byte(self)), nil
}

/*
Implements "encoding.Unmarshaler". Empty input and "0x" both decode to nil.
Otherwise, the input must be prefixed with "0x".
*/
func (self *HexBytes) UnmarshalText(input []byte) error {
	out, err := HexDecode(input)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		out = nil
	}
	*self = HexBytes(out)
	return nil
}

/*
Implements "json.Marshaler". A zero-length value encodes as "null". Otherwise,
it encodes as a hex string, prefixed with "0x".
*/
func (self HexBytes) MarshalJSON() ([]byte, error) {
	if len(self) == 0 {
		return null, nil
	}
	return hexEncodeQuoted(self), nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self HexBytes) String() string {
	return bytesToMutableString(HexEncode([]byte(self)))
}

/*
Version of "big.Int" that encodes and decodes as a Quantity: base 16 with the
"0x" prefix, no leading zeros, and "-0x" for negative values.
*/
type HexInt big.Int

// Implements "encoding.Marshaler". See "FormatQuantity".
func (self *HexInt) MarshalText() ([]byte, error) {
	return stringToBytesUnsafe(FormatQuantity((*big.Int)(self))), nil
}

// Implements "encoding.Unmarshaler". See "ParseQuantity".
func (self *HexInt) UnmarshalText(input []byte) error {
	num, err := ParseQuantity(string(input))
	if err != nil {
		return err
	}
	(*big.Int)(self).Set(num)
	return nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self *HexInt) String() string {
	return FormatQuantity((*big.Int)(self))
}

// Version of "uint64" that encodes/decodes in base 16 with the "0x" prefix.
type HexUint64 uint64

// Implements "encoding.Marshaler". Uses hex encoding prefixed with "0x".
func (self HexUint64) MarshalText() ([]byte, error) {
	out := make([]byte, 0, 18)
	out = append(out, '0', 'x')
	return strconv.AppendUint(out, uint64(self), 16), nil
}

/*
Implements "encoding.Unmarshaler". The input must be in base 16, prefixed with
"0x".
*/
func (self *HexUint64) UnmarshalText(input []byte) error {
	digits, err := drop0x(input)
	if err != nil {
		return err
	}
	out, err := strconv.ParseUint(bytesToMutableString(digits), 16, 64)
	if err != nil {
		return errors.Wrapf(ErrInvalidNumber, "%q is not a uint64 quantity", input)
	}
	*self = HexUint64(out)
	return nil
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self HexUint64) String() string {
	bytes, _ := self.MarshalText()
	return bytesToMutableString(bytes)
}

/*
Compact representation of an Ethereum address. Uses hex-encoding and
hex-decoding with the mandatory "0x" prefix. Decoding accepts any letter case
and doesn't verify checksums; see "ParseChecksumAddress" for that.

To avoid gotchas, a zero-initialized Address{} JSON-encodes as "null" and
text-encodes as "".
*/
type Address [20]byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func ParseAddress(input string) (Address, error) {
	var out Address
	err := out.UnmarshalText(stringToBytesUnsafe(input))
	return out, err
}

/*
Same as "ParseAddress", but panics on error. Convenient for initializing
global variables.
*/
func MustParseAddress(input string) Address {
	out, err := ParseAddress(input)
	if err != nil {
		panic(err)
	}
	return out
}

/*
Implements "encoding.Marshaler". A zero-initialized value encodes as "",
otherwise uses lowercase hex encoding prefixed with "0x".
*/
func (self Address) MarshalText() ([]byte, error) {
	if self == ZeroAddress {
		return nil, nil
	}
	return HexEncode(self[:]), nil
}

/*
Implements "encoding.Unmarshaler". Empty input is ok. Otherwise, it must be
prefixed with "0x".
*/
func (self *Address) UnmarshalText(input []byte) error {
	if len(input) == 0 {
		*self = Address{}
		return nil
	}
	return HexDecodeTo(self[:], input)
}

/*
Implements "json.Marshaler". A zero-initialized value encodes as "null".
Otherwise, it encodes as a hex string, prefixed with "0x".
*/
func (self Address) MarshalJSON() ([]byte, error) {
	if self == ZeroAddress {
		return null, nil
	}
	return hexEncodeQuoted(self[:]), nil
}

/*
Implements "fmt.Stringer". Uses lowercase hex prefixed with "0x". Unlike
"MarshalText" and "MarshalJSON", doesn't have special rules for
zero-initialized values. For the mixed-case form, see "Checksum".
*/
func (self Address) String() string {
	return bytesToMutableString(HexEncode(self[:]))
}

// Converts into a Word for event log filtering, zero-padded on the left.
func (self Address) Word() Word {
	var out Word
	copy(out[len(out)-len(self):], self[:])
	return out
}

// Implements "sql.Scanner" in terms of "UnmarshalText".
func (self *Address) Scan(src interface{}) error {
	switch src := src.(type) {
	case string:
		return self.UnmarshalText(stringToBytesUnsafe(src))
	case []byte:
		return self.UnmarshalText(src)
	default:
		return errors.Errorf("unrecognized input for %T: %T %v", self, src, src)
	}
}

// Implements "sql/driver.Valuer". A zero-initialized Address{} becomes NULL.
func (self Address) Value() (driver.Value, error) {
	if self == ZeroAddress {
		return nil, nil
	}
	return self.String(), nil
}

/*
A Word represents the standard memory granularity of the EVM: 32 bytes of
arbitrary content. Every ABI-encoded value occupies a whole number of words.
This size is also used for hashes and log topics.

Note that Hash has exactly the same structure, but a slightly different
interpretation. A Word is not assumed to be a hash.

Uses the 0x-prefixed hex notation for encoding and decoding. An empty Word{}
will text-encode as "" and JSON-encode as `null` rather than
"0x0000000000000000000000000000000000000000000000000000000000000000".
*/
type Word [32]byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func ParseWord(input string) (Word, error) {
	var out Word
	err := out.UnmarshalText(stringToBytesUnsafe(input))
	return out, err
}

/*
Same as "ParseWord", but panics on error. Convenient for initializing global
variables.
*/
func MustParseWord(input string) Word {
	out, err := ParseWord(input)
	if err != nil {
		panic(err)
	}
	return out
}

/*
Implements "encoding.Marshaler". A zero-initialized value encodes as "",
otherwise uses hex encoding prefixed with "0x".
*/
func (self Word) MarshalText() ([]byte, error) {
	if self == ZeroWord {
		return nil, nil
	}
	return HexEncode(self[:]), nil
}

/*
Implements "encoding.Unmarshaler". Empty input is ok. Otherwise, it must be
prefixed with "0x".
*/
func (self *Word) UnmarshalText(input []byte) error {
	if len(input) == 0 {
		*self = Word{}
		return nil
	}
	return HexDecodeTo(self[:], input)
}

/*
Implements "json.Marshaler". A zero-initialized value encodes as "null".
Otherwise, it encodes as a hex string, prefixed with "0x".
*/
func (self Word) MarshalJSON() ([]byte, error) {
	if self == ZeroWord {
		return null, nil
	}
	return hexEncodeQuoted(self[:]), nil
}

/*
Implements "fmt.Stringer". Uses hex encoding prefixed with "0x". Unlike
"MarshalText" and "MarshalJSON", doesn't have special rules for zero-initialized
values.
*/
func (self Word) String() string {
	return bytesToMutableString(HexEncode(self[:]))
}

/*
Usually represents a Keccak256 digest: an event topic, a packed hash, a block
or transaction hash.

Shares structure and encoding rules with Word. In particular, ZeroHash
JSON-encodes as "null", which is how "Sha3" reports the hash of empty input.
*/
type Hash [32]byte

/*
Decodes the provided string. Zero-length input is ok. Otherwise, it must be
prefixed with "0x".
*/
func ParseHash(input string) (Hash, error) {
	hash, err := ParseWord(input)
	return Hash(hash), err
}

/*
Same as "ParseHash", but panics on error. Convenient for initializing global
variables.
*/
func MustParseHash(input string) Hash { return Hash(MustParseWord(input)) }

// Implements "encoding.Marshaler". Same rules as "Word.MarshalText".
func (self Hash) MarshalText() ([]byte, error) { return Word(self).MarshalText() }

// Implements "encoding.Unmarshaler". Same rules as "Word.UnmarshalText".
func (self *Hash) UnmarshalText(input []byte) error { return (*Word)(self).UnmarshalText(input) }

// Implements "json.Marshaler". Same rules as "Word.MarshalJSON".
func (self Hash) MarshalJSON() ([]byte, error) { return Word(self).MarshalJSON() }

// Implements "fmt.Stringer". Same rules as "Word.String".
func (self Hash) String() string { return Word(self).String() }

/*
Function selector: the first 4 bytes of the Keccak256 of a function's canonical
signature. Unlike Word, always encodes as hex, including the zero value.
*/
type Selector [4]byte

// Implements "encoding.Marshaler". Uses hex encoding prefixed with "0x".
func (self Selector) MarshalText() ([]byte, error) {
	return HexEncode(self[:]), nil
}

// Implements "encoding.Unmarshaler". The input must be "0x" and 8 hex digits.
func (self *Selector) UnmarshalText(input []byte) error {
	return HexDecodeTo(self[:], input)
}

// Implements "fmt.Stringer". Follows the same rules as "MarshalText".
func (self Selector) String() string {
	return bytesToMutableString(HexEncode(self[:]))
}

type either struct {
	val []byte
	err error
}

// https://www.jsonrpc.org/specification#request_object
type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Id      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Variant of rpcRequest without an ID, used for subscription payloads:
// https://www.jsonrpc.org/specification#notification
type rpcNotification struct {
	Jsonrpc string              `json:"jsonrpc"`
	Method  string              `json:"method"`
	Params  rpcNotificationBody `json:"params"`
}

type rpcNotificationBody struct {
	Subscription string          `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// https://www.jsonrpc.org/specification#response_object
type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"` // assign `*someType` to decode as that type
	Error   *RpcError       `json:"error"`
}

/*
Represents an error that arrives over JSON RPC. See
https://www.jsonrpc.org/specification#error_object for details.

Reverted calls usually carry the ABI-encoded revert reason in ".Data"; see
"Abi.DecodeRevert".
*/
type RpcError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Implements "error". Includes the RPC error details if possible.
func (self RpcError) Error() string {
	str := "RPC error " + strconv.FormatInt(self.Code, 10) + ": " + self.Message
	if len(self.Data) > 0 {
		str += " Additional details: " + string(self.Data)
	}
	return str
}

/*
Input to a non-mutating contract call, passed to "EthCall". Only addresses,
hex bytes and hex quantities; the codec produces ".Data".
*/
type TxMsg struct {
	From     Address  `json:"from,omitempty"`
	To       Address  `json:"to"`
	Data     HexBytes `json:"data"`
	Value    *HexInt  `json:"value,omitempty"`
	GasPrice *HexInt  `json:"gasPrice,omitempty"`
	GasLimit *HexInt  `json:"gas,omitempty"`
}

/*
A log entry, typically obtained via "EthGetLogs" and decoded via
"Abi.DecodeLogEntry".

Original definitions in "go-ethereum" and Parity:
https://github.com/ethereum/go-ethereum/blob/0ae462fb80b8a95e38af08d894ea9ecf9e45f2e7/core/types/log.go#L31
https://github.com/paritytech/parity-ethereum/blob/1f2426226b99a318da03c2bc261ac7d91e362d0c/rpc/src/v1/types/log.rs#L22
*/
type LogEntry struct {
	Address          Address   `json:"address"`
	Topics           []Word    `json:"topics"`
	Data             HexBytes  `json:"data"`
	BlockHash        Hash      `json:"blockHash"`
	BlockNumber      HexUint64 `json:"blockNumber"`
	TransactionHash  Hash      `json:"transactionHash"`
	TransactionIndex HexUint64 `json:"transactionIndex"`
	LogIndex         HexUint64 `json:"logIndex"`
	Removed          bool      `json:"removed"`
}

/*
Stand-in for anything representing a block number. Makes the signatures of
RPC functions more readable.

RPC methods accept block numbers in several formats: a regular number, a
hex-encoded number, or the magic strings "earliest", "latest", "pending". See
the "BlockNumberX" constants.
*/
type BlockNumber interface{}

/*
Converts Go integers and "*big.Int" into quantities; passes other values
through. Negative numbers fail with "ErrInvalidNumber".
*/
func blockNumberParam(num BlockNumber) (interface{}, error) {
	switch num := num.(type) {
	case nil:
		return nil, nil
	case *big.Int:
		if num == nil {
			return nil, nil
		}
		if num.Sign() < 0 {
			return nil, errors.Wrapf(ErrInvalidNumber, `negative block number %v`, num)
		}
		return (*HexInt)(num), nil
	}

	val := reflect.ValueOf(num)
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if val.Int() < 0 {
			return nil, errors.Wrapf(ErrInvalidNumber, `negative block number %v`, val.Int())
		}
		return HexUint64(val.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return HexUint64(val.Uint()), nil
	}
	return num, nil
}

/*
LogFilter is passed to "EthGetLogs". See
https://ethereum.org/en/developers/docs/apis/json-rpc/#eth_newfilter for
details on log filtering.

"Topics" represent indexed event parameters. Each position is either nil
(wildcard), a Word, or a slice of Words (any of). For an event, position 0 is
its topic; see "AbiEvent.Topic".
*/
type LogFilter struct {
	FromBlock BlockNumber   `json:"fromBlock,omitempty"`
	ToBlock   BlockNumber   `json:"toBlock,omitempty"`
	Address   []Address     `json:"address,omitempty"`
	Topics    []interface{} `json:"topics,omitempty"`
}

// Implements "json.Marshaler". Converts Go block numbers into quantities.
func (self LogFilter) MarshalJSON() ([]byte, error) {
	type plain LogFilter
	var err error
	self.FromBlock, err = blockNumberParam(self.FromBlock)
	if err != nil {
		return nil, errors.WithMessage(err, `"fromBlock"`)
	}
	self.ToBlock, err = blockNumberParam(self.ToBlock)
	if err != nil {
		return nil, errors.WithMessage(err, `"toBlock"`)
	}
	return json.Marshal(plain(self))
}

/*
String256 is a regular string that behaves as "bytes32" for ABI encoding and
decoding. When encoding, it's interpreted as raw bytes, zero-padded on the
right. If the string is longer than 32 bytes, encoding fails. When decoding, it
takes 32 bytes from the input and truncates them at the first zero byte.

Useful for indexed event parameters. Marking a "string" parameter as "indexed"
replaces it with its hash in the log, losing the content; a "bytes32"
parameter survives as-is.
*/
type String256 string

// Implements "AbiMarshaler".
func (self String256) EthAbiMarshal() ([]byte, error) {
	word, err := self.Word()
	if err != nil {
		return nil, err
	}
	return word[:], nil
}

// Implements "AbiUnmarshaler".
func (self *String256) EthAbiUnmarshal(input []byte) error {
	if len(input) < len(Word{}) {
		return errors.Wrapf(ErrInvalidBytes, "expected %v bytes, got %v", len(Word{}), len(input))
	}
	input = input[:len(Word{})]
	*self = String256(input[:strlen(input)])
	return nil
}

// Converts to a Word for use in log filtering.
func (self String256) Word() (Word, error) {
	var out Word
	if len(self) > len(out) {
		return out, errors.Wrapf(ErrTypeMismatch, `can't fit string %q into %v bytes`, string(self), len(out))
	}
	copy(out[:], self)
	return out, nil
}

// Length of a C-style zero-terminated string.
func strlen(input []byte) int {
	for i, char := range input {
		if char == 0 {
			return i
		}
	}
	return len(input)
}
