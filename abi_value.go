package ethabi

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Discriminant of "Value".
type ValueKind byte

const (
	ValueBool ValueKind = iota + 1
	ValueNumber
	ValueAddress
	ValueBytes // bytes, bytesN, function
	ValueString
	ValueList // arrays and tuples
)

// Implements "fmt.Stringer".
func (self ValueKind) String() string {
	switch self {
	case ValueBool:
		return "ValueBool"
	case ValueNumber:
		return "ValueNumber"
	case ValueAddress:
		return "ValueAddress"
	case ValueBytes:
		return "ValueBytes"
	case ValueString:
		return "ValueString"
	case ValueList:
		return "ValueList"
	default:
		return ""
	}
}

/*
An ABI value in a form the codec works with directly. Exactly one payload field
is meaningful, selected by ".Kind". Go inputs are converted into Values once,
via "ToValue", and decoded data comes out as Values; see "Value.Interface" and
"Value.Unmarshal" for the way back.
*/
type Value struct {
	Kind    ValueKind
	Bool    bool
	Number  *big.Int
	Address Address
	Bytes   []byte
	Text    string
	List    []Value
}

func BoolValue(val bool) Value {
	return Value{Kind: ValueBool, Bool: val}
}

func NumberValue(val *big.Int) Value {
	return Value{Kind: ValueNumber, Number: val}
}

func AddressValue(val Address) Value {
	return Value{Kind: ValueAddress, Address: val}
}

func BytesValue(val []byte) Value {
	return Value{Kind: ValueBytes, Bytes: val}
}

func StringValue(val string) Value {
	return Value{Kind: ValueString, Text: val}
}

func ListValue(vals ...Value) Value {
	return Value{Kind: ValueList, List: vals}
}

func Int64Value(val int64) Value {
	return NumberValue(big.NewInt(val))
}

func Uint64Value(val uint64) Value {
	return NumberValue(new(big.Int).SetUint64(val))
}

/*
Converts the value into plain Go: "bool", "*big.Int", "Address", "[]byte",
"string", "[]interface{}".
*/
func (self Value) Interface() interface{} {
	switch self.Kind {
	case ValueBool:
		return self.Bool
	case ValueNumber:
		return self.Number
	case ValueAddress:
		return self.Address
	case ValueBytes:
		return self.Bytes
	case ValueString:
		return self.Text
	case ValueList:
		out := make([]interface{}, len(self.List))
		for i, val := range self.List {
			out[i] = val.Interface()
		}
		return out
	default:
		return nil
	}
}

/*
Implements "json.Marshaler". Numbers encode as decimal strings, addresses in
checksum form, bytes as "0x"-prefixed hex.
*/
func (self Value) MarshalJSON() ([]byte, error) {
	switch self.Kind {
	case ValueBool:
		return json.Marshal(self.Bool)
	case ValueNumber:
		if self.Number == nil {
			return null, nil
		}
		return json.Marshal(self.Number.String())
	case ValueAddress:
		return json.Marshal(self.Address.Checksum())
	case ValueBytes:
		return json.Marshal(BytesToHex(self.Bytes))
	case ValueString:
		return json.Marshal(self.Text)
	case ValueList:
		if self.List == nil {
			return []byte(`[]`), nil
		}
		return json.Marshal(self.List)
	default:
		return null, nil
	}
}

// Implements "fmt.Stringer". Intended for debugging and CLI output.
func (self Value) String() string {
	switch self.Kind {
	case ValueBool:
		return strconv.FormatBool(self.Bool)
	case ValueNumber:
		return self.Number.String()
	case ValueAddress:
		return self.Address.Checksum()
	case ValueBytes:
		return BytesToHex(self.Bytes)
	case ValueString:
		return strconv.Quote(self.Text)
	case ValueList:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, val := range self.List {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(val.String())
		}
		buf.WriteByte(']')
		return buf.String()
	default:
		return "<invalid>"
	}
}

/*
Converts a Go value into a Value of the given ABI type. Accepted inputs:

	bool                       bool
	uintN, intN                Go integers, integral floats, *big.Int, *HexInt,
	                           *uint256.Int, decimal and "0x" strings
	address                    Address, [20]byte, checksum-valid hex strings
	bytesN, function           [N]byte, []byte or hex string of exactly N bytes
	bytes                      []byte, HexBytes, [N]byte, "0x"-prefixed hex strings
	string                     string
	T[N], T[]                  slices and arrays
	tuple                      slices and arrays by position, maps by component
	                           name, structs by "abi" tag or field name

Values and "AbiMarshaler" implementations are accepted for any type.
Mismatches fail with "ErrTypeMismatch"; numbers that don't fit fail with
"ErrInvalidNumber". Mixed-case address strings are checked against
".ChainId" (EIP-1191) when set.
*/
func (self Coder) ToValue(atype AbiType, input interface{}) (Value, error) {
	return self.toValue(atype, reflect.ValueOf(input))
}

// Package-level version of "Coder.ToValue" with default settings.
func ToValue(atype AbiType, input interface{}) (Value, error) { return Coder{}.ToValue(atype, input) }

func (self Coder) toValue(atype AbiType, val reflect.Value) (Value, error) {
	val = deref(val)
	if !val.IsValid() {
		return Value{}, errors.Wrapf(ErrTypeMismatch, "can't encode nil as %v", atype)
	}
	input := val.Interface()

	switch input := input.(type) {
	case Value:
		return input, nil
	case AbiMarshaler:
		chunk, err := input.EthAbiMarshal()
		if err != nil {
			return Value{}, err
		}
		return newAbiDecoder(chunk).decodeValueAt(chunk, 0, atype)
	}

	switch atype.Kind() {
	case AbiKindBool:
		if val.Kind() == reflect.Bool {
			return BoolValue(val.Bool()), nil
		}

	case AbiKindUint, AbiKindInt:
		num, err := toBigInt(input)
		if err != nil {
			if val.Kind() == reflect.String {
				return Value{}, err
			}
			break
		}
		_, err = bigToWord(num, atype.Size(), atype.Kind() == AbiKindInt)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(num), nil

	case AbiKindAddress:
		if val.Kind() == reflect.String {
			addr, err := self.ParseChecksumAddress(val.String())
			return AddressValue(addr), err
		}
		buf, ok := toByteSlice(val)
		if ok && len(buf) == len(Address{}) {
			var addr Address
			copy(addr[:], buf)
			return AddressValue(addr), nil
		}

	case AbiKindFixedBytes, AbiKindFunction:
		buf, ok, err := toBytesInput(val)
		if err != nil {
			return Value{}, err
		}
		if ok && len(buf) == atype.Size() {
			return BytesValue(buf), nil
		}

	case AbiKindBytes:
		buf, ok, err := toBytesInput(val)
		if err != nil {
			return Value{}, err
		}
		if ok {
			return BytesValue(buf), nil
		}

	case AbiKindString:
		if val.Kind() == reflect.String {
			return StringValue(val.String()), nil
		}

	case AbiKindFixedArray, AbiKindArray:
		if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
			break
		}
		length := val.Len()
		if atype.Kind() == AbiKindFixedArray && length != atype.Size() {
			return Value{}, errors.Wrapf(ErrTypeMismatch, "%v: expected %v elements, got %v",
				atype, atype.Size(), length)
		}
		elem := atype.Elem()
		out := make([]Value, length)
		for i := range out {
			var err error
			out[i], err = self.toValue(elem, val.Index(i))
			if err != nil {
				return Value{}, errors.WithMessagef(err, "element %v of %v", i, atype)
			}
		}
		return ListValue(out...), nil

	case AbiKindTuple:
		return self.tupleToValue(atype, val)
	}

	return Value{}, errors.Wrapf(ErrTypeMismatch, `Solidity type %q, Go type %q`, atype, val.Type())
}

func (self Coder) tupleToValue(atype AbiType, val reflect.Value) (Value, error) {
	count := atype.NumComponents()
	out := make([]Value, count)

	field := func(i int) (reflect.Value, bool) {
		switch val.Kind() {
		case reflect.Slice, reflect.Array:
			if val.Len() != count {
				return reflect.Value{}, false
			}
			return val.Index(i), true
		case reflect.Map:
			if val.Type().Key().Kind() != reflect.String {
				return reflect.Value{}, false
			}
			elem := val.MapIndex(reflect.ValueOf(atype.ComponentName(i)).Convert(val.Type().Key()))
			return elem, elem.IsValid()
		case reflect.Struct:
			return structField(val, atype, i)
		}
		return reflect.Value{}, false
	}

	for i := range out {
		elem, ok := field(i)
		if !ok {
			return Value{}, errors.Wrapf(ErrTypeMismatch, "can't find component %v %q of %v in Go type %q",
				i, atype.ComponentName(i), atype, val.Type())
		}
		var err error
		out[i], err = self.toValue(atype.Component(i), elem)
		if err != nil {
			return Value{}, errors.WithMessagef(err, "component %v of %v", i, atype)
		}
	}
	return ListValue(out...), nil
}

/*
Finds the struct field for the Nth tuple component: by "abi" tag, then by
case-insensitive field name. Unnamed components are matched by position among
exported fields.
*/
func structField(val reflect.Value, atype AbiType, index int) (reflect.Value, bool) {
	fields := exportedFields(val.Type())
	name := atype.ComponentName(index)

	if name == "" {
		if len(fields) != atype.NumComponents() {
			return reflect.Value{}, false
		}
		return val.FieldByIndex(fields[index].Index), true
	}

	for _, field := range fields {
		if field.Tag.Get("abi") == name {
			return val.FieldByIndex(field.Index), true
		}
	}
	for _, field := range fields {
		if strings.EqualFold(field.Name, strings.TrimLeft(name, "_")) {
			return val.FieldByIndex(field.Index), true
		}
	}
	return reflect.Value{}, false
}

func exportedFields(typ reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath == "" && field.Tag.Get("abi") != "-" {
			out = append(out, field)
		}
	}
	return out
}

// Byte slices and byte arrays of any length.
func toByteSlice(val reflect.Value) ([]byte, bool) {
	typ := val.Type()
	if typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Uint8 {
		return append([]byte(nil), val.Bytes()...), true
	}
	if typ.Kind() == reflect.Array && typ.Elem().Kind() == reflect.Uint8 {
		out := make([]byte, typ.Len())
		reflect.Copy(reflect.ValueOf(out), val)
		return out, true
	}
	return nil, false
}

// Same as "toByteSlice", but also accepts "0x"-prefixed hex strings.
func toBytesInput(val reflect.Value) ([]byte, bool, error) {
	if val.Kind() == reflect.String {
		str := val.String()
		if !IsHexStrict(str) || strings.HasPrefix(str, "-") {
			return nil, false, errors.Wrapf(ErrInvalidHex, "%q is not a valid hex string", str)
		}
		buf, err := HexToBytes(str)
		return buf, err == nil, err
	}
	buf, ok := toByteSlice(val)
	return buf, ok, nil
}

/*
Assigns the value into the provided output, which must be a pointer. Rules,
by value kind:

	ValueBool     bool
	ValueNumber   uint8..uint64, int8..int64 (with overflow checks), big.Int,
	              *big.Int, HexInt, *HexInt, uint256.Int, *uint256.Int
	ValueAddress  Address or any [20]byte type
	ValueBytes    []byte, HexBytes, [N]byte of the same length, Word, Hash
	ValueString   string
	ValueList     slices, arrays of the same length, structs by field position

Pointers to "interface{}" receive "Value.Interface()".
*/
func (self Value) Unmarshal(out interface{}) error {
	val := reflect.ValueOf(out)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() {
		return errors.Errorf(`can't unmarshal into non-pointer or nil of type %T`, out)
	}
	return self.assign(val.Elem())
}

func (self Value) assign(val reflect.Value) error {
	typ := val.Type()

	if typ.Kind() == reflect.Interface && typ.NumMethod() == 0 {
		val.Set(reflect.ValueOf(self.Interface()))
		return nil
	}
	if typ.Kind() == reflect.Ptr && !isNumberPtrType(typ) {
		if val.IsNil() {
			val.Set(reflect.New(typ.Elem()))
		}
		return self.assign(val.Elem())
	}

	switch self.Kind {
	case ValueBool:
		if typ.Kind() == reflect.Bool {
			val.SetBool(self.Bool)
			return nil
		}

	case ValueNumber:
		return assignNumber(self.Number, val)

	case ValueAddress:
		if typ.Kind() == reflect.Array && typ.Elem().Kind() == reflect.Uint8 && typ.Len() == len(Address{}) {
			reflect.Copy(val, reflect.ValueOf(self.Address[:]))
			return nil
		}

	case ValueBytes:
		if typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Uint8 {
			val.SetBytes(append([]byte{}, self.Bytes...))
			return nil
		}
		if typ.Kind() == reflect.Array && typ.Elem().Kind() == reflect.Uint8 && typ.Len() == len(self.Bytes) {
			reflect.Copy(val, reflect.ValueOf(self.Bytes))
			return nil
		}

	case ValueString:
		if typ.Kind() == reflect.String {
			val.SetString(self.Text)
			return nil
		}

	case ValueList:
		return self.assignList(val)
	}

	return errors.Wrapf(ErrTypeMismatch, "can't unmarshal %v into Go type %q", self.Kind, typ)
}

func (self Value) assignList(val reflect.Value) error {
	typ := val.Type()
	count := len(self.List)

	switch typ.Kind() {
	case reflect.Slice:
		storage := reflect.MakeSlice(typ, count, count)
		for i, elem := range self.List {
			err := elem.assign(storage.Index(i))
			if err != nil {
				return errors.WithMessagef(err, "element %v", i)
			}
		}
		val.Set(storage)
		return nil

	case reflect.Array:
		if typ.Len() != count {
			break
		}
		for i, elem := range self.List {
			err := elem.assign(val.Index(i))
			if err != nil {
				return errors.WithMessagef(err, "element %v", i)
			}
		}
		return nil

	case reflect.Struct:
		fields := exportedFields(typ)
		if len(fields) != count {
			break
		}
		for i, elem := range self.List {
			err := elem.assign(val.FieldByIndex(fields[i].Index))
			if err != nil {
				return errors.WithMessagef(err, "field %v", fields[i].Name)
			}
		}
		return nil
	}

	return errors.Wrapf(ErrTypeMismatch, "can't unmarshal a list of %v into Go type %q", count, typ)
}

var (
	bigMaxUint8  = new(big.Int).SetUint64(math.MaxUint8)
	bigMaxUint16 = new(big.Int).SetUint64(math.MaxUint16)
	bigMaxUint32 = new(big.Int).SetUint64(math.MaxUint32)
	bigMaxUint64 = new(big.Int).SetUint64(math.MaxUint64)

	bigMaxInt8  = big.NewInt(math.MaxInt8)
	bigMaxInt16 = big.NewInt(math.MaxInt16)
	bigMaxInt32 = big.NewInt(math.MaxInt32)
	bigMaxInt64 = big.NewInt(math.MaxInt64)

	bigMinInt8  = big.NewInt(math.MinInt8)
	bigMinInt16 = big.NewInt(math.MinInt16)
	bigMinInt32 = big.NewInt(math.MinInt32)
	bigMinInt64 = big.NewInt(math.MinInt64)
)

var (
	bigIntType     = reflect.TypeOf(big.Int{})
	bigIntPtrType  = reflect.TypeOf((*big.Int)(nil))
	uint256Type    = reflect.TypeOf(uint256.Int{})
	uint256PtrType = reflect.TypeOf((*uint256.Int)(nil))
)

func isNumberPtrType(typ reflect.Type) bool {
	return typ.ConvertibleTo(bigIntPtrType) || typ == uint256PtrType
}

func assignNumber(num *big.Int, val reflect.Value) error {
	typ := val.Type()

	switch typ.Kind() {
	case reflect.Uint, reflect.Int:
		return errors.Errorf(`can't unmarshal into non-portable type %q, please use a fixed-size type`, typ)
	case reflect.Uint8:
		return assignUint(num, val, bigMaxUint8)
	case reflect.Uint16:
		return assignUint(num, val, bigMaxUint16)
	case reflect.Uint32:
		return assignUint(num, val, bigMaxUint32)
	case reflect.Uint64:
		return assignUint(num, val, bigMaxUint64)
	case reflect.Int8:
		return assignInt(num, val, bigMinInt8, bigMaxInt8)
	case reflect.Int16:
		return assignInt(num, val, bigMinInt16, bigMaxInt16)
	case reflect.Int32:
		return assignInt(num, val, bigMinInt32, bigMaxInt32)
	case reflect.Int64:
		return assignInt(num, val, bigMinInt64, bigMaxInt64)
	}

	switch {
	case typ == bigIntType:
		val.Set(reflect.ValueOf(*new(big.Int).Set(num)))
	case bigIntType.ConvertibleTo(typ):
		val.Set(reflect.ValueOf(*new(big.Int).Set(num)).Convert(typ))
	case typ == bigIntPtrType:
		val.Set(reflect.ValueOf(new(big.Int).Set(num)))
	case bigIntPtrType.ConvertibleTo(typ):
		val.Set(reflect.ValueOf(new(big.Int).Set(num)).Convert(typ))
	case typ == uint256Type || typ == uint256PtrType:
		word, err := bigToWord(num, 256, false)
		if err != nil {
			return err
		}
		if typ == uint256Type {
			val.Set(reflect.ValueOf(*word))
		} else {
			val.Set(reflect.ValueOf(word))
		}
	default:
		return errors.Wrapf(ErrTypeMismatch, "can't unmarshal a number into Go type %q", typ)
	}
	return nil
}

func assignUint(num *big.Int, val reflect.Value, max *big.Int) error {
	if num.Sign() < 0 || num.Cmp(max) > 0 {
		return errors.Wrapf(ErrInvalidNumber, "%v overflows %v", num, val.Type())
	}
	val.SetUint(num.Uint64())
	return nil
}

func assignInt(num *big.Int, val reflect.Value, min, max *big.Int) error {
	if num.Cmp(max) > 0 {
		return errors.Wrapf(ErrInvalidNumber, "%v overflows %v", num, val.Type())
	}
	if num.Cmp(min) < 0 {
		return errors.Wrapf(ErrInvalidNumber, "%v underflows %v", num, val.Type())
	}
	val.SetInt(num.Int64())
	return nil
}

// Unwraps interfaces and pointers, stopping at pointer types that represent
// numbers by themselves.
func deref(val reflect.Value) reflect.Value {
	for val.IsValid() {
		switch val.Kind() {
		case reflect.Interface:
			val = val.Elem()
		case reflect.Ptr:
			if val.IsNil() || isNumberPtrType(val.Type()) || val.Type().Implements(abiMarshalerType) {
				return val
			}
			val = val.Elem()
		default:
			return val
		}
	}
	return val
}

var abiMarshalerType = reflect.TypeOf((*AbiMarshaler)(nil)).Elem()
