package ethabi

/*
See https://docs.soliditylang.org/en/latest/abi-spec.html
*/

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

/*
Decodes output from a Solidity compiler. Expects JSON produced by the following
incantation:

	solc --combined-json=abi,bin --optimize

Maps contract identifiers to decoded "ContractDef" values. Each identifier has
the form "filePath:contractName".

Note: check the "abitool gen" command for a simpler way of dealing with solc.
*/
func ReadContractDefs(src io.Reader) (map[string]ContractDef, error) {
	var input struct {
		Contracts map[string]struct {
			Abi json.RawMessage
			Bin string
		}
	}

	err := json.NewDecoder(src).Decode(&input)
	if err != nil {
		return nil, errors.Wrap(err, `failed to read Solidity output`)
	}

	out := make(map[string]ContractDef, len(input.Contracts))
	for name, inp := range input.Contracts {
		path := strings.SplitN(name, ":", 2)
		if len(path) != 2 {
			return nil, errors.Errorf(`unexpected contract identifier %q in Solidity output`, name)
		}

		// Older compilers emit the ABI as a JSON string, newer ones inline it.
		abiJson := inp.Abi
		if len(abiJson) > 0 && abiJson[0] == '"' {
			var str string
			err := json.Unmarshal(abiJson, &str)
			if err != nil {
				return nil, errors.Wrap(err, `failed to decode Solidity output`)
			}
			abiJson = json.RawMessage(str)
		}

		def := ContractDef{
			FileName:     path[0],
			ContractName: path[1],
			AbiJson:      string(abiJson),
		}

		err := json.Unmarshal(abiJson, &def.Abi)
		if err != nil {
			return nil, errors.Wrap(err, `failed to decode Solidity output`)
		}

		code, err := HexToBytes(inp.Bin)
		if err != nil {
			return nil, errors.WithMessage(err, `failed to decode Solidity output`)
		}
		def.Code = HexBytes(code)

		out[name] = def
	}

	return out, nil
}

// Decodes output from a Solidity compiler. See ReadContractDefs for details.
func DecodeContractDefs(input []byte) (map[string]ContractDef, error) {
	return ReadContractDefs(bytes.NewReader(input))
}

/*
A structure representing the output of a Solidity compiler for a single
contract. See "ReadContractDefs" for details.
*/
type ContractDef struct {
	FileName     string
	ContractName string
	Abi          Abi
	AbiJson      string
	Code         HexBytes
}

/*
Abi represents the functions, events and errors of a Solidity contract. It's
parsed from the JSON output of a Solidity compiler; see "abitool gen" for a
convenient bridge from Solidity to Go.

See the "AbiMethod" definition.
*/
type Abi []AbiMethod

/*
^^^
Implementation note. Defining this type as a slice of method definitions is
conceptually simple and corresponds 1-to-1 to the JSON, allowing reversible
deserialization and serialization. Lookups loop through the slice; pre-built
maps would be faster, but the costs are dominated by ABI encoding and decoding.
*/

// Parses a JSON ABI definition, such as the output of a Solidity compiler.
func ParseAbiJson(input string) (Abi, error) {
	var abi Abi
	err := abi.UnmarshalJSON(stringToBytesUnsafe(input))
	return abi, err
}

/*
Same as "ParseAbiJson", but panics on failure. Convenient for initializing
global variables on startup:

	var TestAbi = ethabi.MustParseAbiJson(`[{"name": "test", "type": "function", "inputs": [...]}]`)
*/
func MustParseAbiJson(input string) Abi {
	abi, err := ParseAbiJson(input)
	if err != nil {
		panic(err)
	}
	return abi
}

// Attempts to find the constructor definition. Boolean indicates success or failure.
func (self Abi) MaybeConstructor() (AbiConstructor, bool) {
	for _, entry := range self {
		switch entry := entry.(type) {
		case AbiConstructor:
			return entry, true
		}
	}
	return AbiConstructor{}, false
}

// Returns the constructor definition. Panics if the constructor is not present.
func (self Abi) Constructor() AbiConstructor {
	out, ok := self.MaybeConstructor()
	if !ok {
		panic("constructor not found in ABI definition")
	}
	return out
}

// Attempts to find the function by name. Boolean indicates success or failure.
func (self Abi) MaybeFunction(name string) (AbiFunction, bool) {
	for _, entry := range self {
		switch entry := entry.(type) {
		case AbiFunction:
			if entry.Name == name {
				return entry, true
			}
		}
	}
	return AbiFunction{}, false
}

// Finds the function by name. Panics if not found.
func (self Abi) Function(name string) AbiFunction {
	out, ok := self.MaybeFunction(name)
	if !ok {
		panic(fmt.Sprintf("function %v not found in ABI definition", name))
	}
	return out
}

// Finds the function whose selector prefixes a call payload.
func (self Abi) FunctionBySelector(selector Selector) (AbiFunction, bool) {
	for _, entry := range self {
		switch entry := entry.(type) {
		case AbiFunction:
			if entry.Selector == selector {
				return entry, true
			}
		}
	}
	return AbiFunction{}, false
}

// Attempts to find the event by name. Boolean indicates success or failure.
func (self Abi) MaybeEvent(name string) (AbiEvent, bool) {
	for _, entry := range self {
		switch entry := entry.(type) {
		case AbiEvent:
			if entry.Name == name {
				return entry, true
			}
		}
	}
	return AbiEvent{}, false
}

// Finds the event by name. Panics if not found.
func (self Abi) Event(name string) AbiEvent {
	out, ok := self.MaybeEvent(name)
	if !ok {
		panic(fmt.Sprintf("event %v not found in ABI definition", name))
	}
	return out
}

// Finds a non-anonymous event by its topic, which is the first topic of its logs.
func (self Abi) EventByTopic(topic Word) (AbiEvent, bool) {
	for _, entry := range self {
		switch entry := entry.(type) {
		case AbiEvent:
			if !entry.Anonymous && entry.Topic == topic {
				return entry, true
			}
		}
	}
	return AbiEvent{}, false
}

// Attempts to find the custom error by name.
func (self Abi) MaybeError(name string) (AbiError, bool) {
	for _, entry := range self {
		switch entry := entry.(type) {
		case AbiError:
			if entry.Name == name {
				return entry, true
			}
		}
	}
	return AbiError{}, false
}

// Finds the custom error whose selector prefixes the revert data.
func (self Abi) ErrorBySelector(selector Selector) (AbiError, bool) {
	for _, entry := range self {
		switch entry := entry.(type) {
		case AbiError:
			if entry.Selector == selector {
				return entry, true
			}
		}
	}
	return AbiError{}, false
}

/*
Implements "json.Unmarshaler". Decodes a JSON ABI definition produced by a
Solidity compiler. Automatically selects the appropriate data structures for
constructors, functions, events, errors and fallbacks, based on their type.
*/
func (self *Abi) UnmarshalJSON(input []byte) error {
	var chunks []json.RawMessage

	err := json.Unmarshal(input, &chunks)
	if err != nil {
		return errors.WithStack(err)
	}

	for i, chunk := range chunks {
		val, err := unmarshalAbiMethod(chunk)
		if err != nil {
			return errors.WithMessagef(err, `ABI entry %v`, i)
		}
		*self = append(*self, val)
	}
	return nil
}

func unmarshalAbiMethod(input []byte) (AbiMethod, error) {
	var tag struct{ Type string }

	err := json.Unmarshal(input, &tag)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var out AbiMethod
	switch tag.Type {
	case "constructor":
		var val AbiConstructor
		err = json.Unmarshal(input, &val)
		out = val
	case "function", "":
		var val AbiFunction
		err = json.Unmarshal(input, &val)
		out = val
	case "event":
		var val AbiEvent
		err = json.Unmarshal(input, &val)
		out = val
	case "error":
		var val AbiError
		err = json.Unmarshal(input, &val)
		out = val
	case "fallback", "receive":
		var val AbiFallback
		err = json.Unmarshal(input, &val)
		out = val
	default:
		return nil, errors.Errorf("unknown ABI type: %v", tag.Type)
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

/*
Represents one of several possible ABI definitions. Possible types:

	AbiConstructor
	AbiFunction
	AbiEvent
	AbiError
	AbiFallback
*/
type AbiMethod interface{}

/*
Represents a contract constructor. Its arguments are ABI-encoded and appended
to the contract's code when deploying.
*/
type AbiConstructor struct {
	Type            string     `json:"type"` // "constructor"
	Name            string     `json:"name"` // ""
	Inputs          []AbiParam `json:"inputs"`
	Payable         bool       `json:"payable"`
	StateMutability string     `json:"stateMutability"`
}

/*
Appends the ABI-encoded constructor arguments to the contract code. The result
is the payload of a contract-creating transaction.
*/
func (self AbiConstructor) Marshal(code []byte, args ...interface{}) ([]byte, error) {
	out := append([]byte(nil), code...)
	return abiAppendTuple(out, self.Inputs, args)
}

/*
Represents a contract function. Useful for ABI-encoding arguments and
ABI-decoding return values. Usually obtained via "Abi.Function()".
*/
type AbiFunction struct {
	Type            string     `json:"type"` // "function" | ""
	Name            string     `json:"name"`
	Constant        bool       `json:"constant"`
	Inputs          []AbiParam `json:"inputs"`
	Outputs         []AbiParam `json:"outputs"`
	Payable         bool       `json:"payable"`
	StateMutability string     `json:"stateMutability"`
	Selector        Selector   `json:"-"`
}

/*
Builds a function definition by hand, computing its selector. Parameter types
are parsed lazily; see "AbiParam".
*/
func NewAbiFunction(name string, inputs []AbiParam, outputs []AbiParam) AbiFunction {
	out := AbiFunction{Type: "function", Name: name, Inputs: inputs, Outputs: outputs}
	out.Selector = EncodeFunctionSignature(out)
	return out
}

/*
Parses a human-readable function signature with optional return types:

	transfer(address,uint256)
	balanceOf(address) returns (uint256)
*/
func ParseAbiFunction(signature string) (AbiFunction, error) {
	sig, ret := signature, ""
	if index := strings.Index(signature, " returns "); index >= 0 {
		sig, ret = signature[:index], strings.TrimSpace(signature[index+len(" returns "):])
	}

	name, inputs, err := parseAbiSignature(strings.TrimSpace(sig))
	if err != nil {
		return AbiFunction{}, err
	}

	var outputs []AbiParam
	if ret != "" {
		_, outputs, err = parseAbiSignature(ret)
		if err != nil {
			return AbiFunction{}, err
		}
	}
	return NewAbiFunction(name, inputs, outputs), nil
}

func parseAbiSignature(sig string) (string, []AbiParam, error) {
	open := strings.IndexByte(sig, '(')
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return "", nil, errors.Wrapf(ErrInvalidType, `malformed signature %q`, sig)
	}
	if sig[open+1:] == ")" {
		return sig[:open], nil, nil
	}

	tuple, err := ParseAbiType(sig[open:])
	if err != nil {
		return "", nil, errors.WithMessagef(err, `malformed signature %q`, sig)
	}

	params := make([]AbiParam, tuple.NumComponents())
	for i := range params {
		comp := tuple.Component(i)
		params[i] = AbiParam{Type: comp.String(), AbiType: comp}
	}
	return sig[:open], params, nil
}

// Implements "AbiSigner".
func (self AbiFunction) Signature() string { return AbiSignature(self.Name, self.Inputs) }

/*
ABI-encodes the arguments, which must exactly match this function's parameter
signature. Prepends the function's ".Selector". The result should be used as a
transaction payload, i.e. "TxMsg.Data". Returns an error in case of arity or
type mismatch.
*/
func (self AbiFunction) Marshal(args ...interface{}) ([]byte, error) {
	return abiAppendTuple(self.Selector[:], self.Inputs, args)
}

/*
ABI-decodes raw bytes into the provided Go values, which must exactly match this
function's return signature. The outputs must be pointers. Returns an error in
case of arity mismatch, type mismatch, or malformed input.
*/
func (self AbiFunction) Unmarshal(input []byte, outs ...interface{}) error {
	return AbiUnmarshalTuple(input, self.Outputs, outs)
}

// Decodes the return data of a call to this function.
func (self AbiFunction) DecodeOutput(input []byte) (Result, error) {
	return decodeResult(self.Outputs, input)
}

/*
Decodes a call payload for this function: the selector followed by the
ABI-encoded arguments. Fails with "ErrInvalidBytes" if the selector doesn't
match.
*/
func (self AbiFunction) DecodeInput(input []byte) (Result, error) {
	if len(input) < len(Selector{}) || !bytes.Equal(input[:len(Selector{})], self.Selector[:]) {
		return Result{}, errors.Wrapf(ErrInvalidBytes, `payload doesn't start with the selector %v of %v`,
			self.Selector, self.Name)
	}
	return decodeResult(self.Inputs, input[len(Selector{}):])
}

/*
Implements "json.Unmarshaler". In addition to parsing the JSON structure, this
precomputes the function's ".Selector", which is used when ABI-encoding
arguments for function calls.
*/
func (self *AbiFunction) UnmarshalJSON(input []byte) error {
	var plain struct {
		Type            string
		Name            string
		Constant        bool
		Inputs          []AbiParam
		Outputs         []AbiParam
		Payable         bool
		StateMutability string
	}

	err := json.Unmarshal(input, &plain)
	if err != nil {
		return errors.WithStack(err)
	}

	*self = AbiFunction{
		Type:            plain.Type,
		Name:            plain.Name,
		Constant:        plain.Constant,
		Inputs:          plain.Inputs,
		Outputs:         plain.Outputs,
		Payable:         plain.Payable,
		StateMutability: plain.StateMutability,
	}
	self.Selector = EncodeFunctionSignature(*self)
	return nil
}

/*
Represents a contract event. Useful for filtering and decoding event logs.
Usually obtained via "Abi.Event()".
*/
type AbiEvent struct {
	Type             string     `json:"type"` // "event"
	Name             string     `json:"name"`
	Inputs           []AbiParam `json:"inputs"`
	Anonymous        bool       `json:"anonymous"`
	Topic            Word       `json:"-"`
	IndexedInputs    []AbiParam `json:"-"`
	NonIndexedInputs []AbiParam `json:"-"`
}

// Implements "AbiSigner".
func (self AbiEvent) Signature() string { return AbiSignature(self.Name, self.Inputs) }

/*
Implements "json.Unmarshaler". In addition to parsing the JSON structure, this
precomputes the event's ".Topic", which is used for filtering logs.
*/
func (self *AbiEvent) UnmarshalJSON(input []byte) error {
	var plain struct {
		Type      string
		Name      string
		Inputs    []AbiParam
		Anonymous bool
	}

	err := json.Unmarshal(input, &plain)
	if err != nil {
		return errors.WithStack(err)
	}

	var indexed []AbiParam
	var nonIndexed []AbiParam
	for _, param := range plain.Inputs {
		if param.Indexed {
			indexed = append(indexed, param)
		} else {
			nonIndexed = append(nonIndexed, param)
		}
	}

	*self = AbiEvent{
		Type:             plain.Type,
		Name:             plain.Name,
		Inputs:           plain.Inputs,
		Anonymous:        plain.Anonymous,
		IndexedInputs:    indexed,
		NonIndexedInputs: nonIndexed,
	}
	self.Topic = EncodeEventSignature(*self)
	return nil
}

/*
Attempts to ABI-decode event parameters from the log entry into the provided
outputs, which must exactly match the event's signature. The outputs must be
pointers. Log entries are usually obtained via "EthGetLogs".

Returns an error in case of event mismatch, arity mismatch, type mismatch, or
malformed input. Indexed parameters of reference types are hashed in the log;
their outputs receive the raw 32-byte topic.
*/
func (self AbiEvent) UnmarshalLogEntry(input LogEntry, outs ...interface{}) error {
	decoded, err := Coder{}.DecodeLogEntry(self, input)
	if err != nil {
		return err
	}
	return decoded.ReturnValues.Unmarshal(outs...)
}

/*
Represents a custom error declared with "error Name(...)". Reverting with it
produces its selector followed by the ABI-encoded arguments.
*/
type AbiError struct {
	Type     string     `json:"type"` // "error"
	Name     string     `json:"name"`
	Inputs   []AbiParam `json:"inputs"`
	Selector Selector   `json:"-"`
}

// Implements "AbiSigner".
func (self AbiError) Signature() string { return AbiSignature(self.Name, self.Inputs) }

// Implements "json.Unmarshaler". Precomputes the error's ".Selector".
func (self *AbiError) UnmarshalJSON(input []byte) error {
	var plain struct {
		Type   string
		Name   string
		Inputs []AbiParam
	}

	err := json.Unmarshal(input, &plain)
	if err != nil {
		return errors.WithStack(err)
	}

	*self = AbiError{Type: plain.Type, Name: plain.Name, Inputs: plain.Inputs}
	self.Selector = EncodeFunctionSignature(*self)
	return nil
}

// Represents the "fallback" and "receive" functions. They have no parameters.
type AbiFallback struct {
	Type            string `json:"type"` // "fallback" | "receive"
	Payable         bool   `json:"payable"`
	StateMutability string `json:"stateMutability"`
}

// Built-in errors produced by "require", "revert" and runtime checks.
var (
	AbiErrorString = AbiError{Type: "error", Name: "Error", Inputs: []AbiParam{{Name: "message", Type: "string"}}}
	AbiErrorPanic  = AbiError{Type: "error", Name: "Panic", Inputs: []AbiParam{{Name: "code", Type: "uint256"}}}
)

func init() {
	AbiErrorString.Selector = EncodeFunctionSignature(AbiErrorString)
	AbiErrorPanic.Selector = EncodeFunctionSignature(AbiErrorPanic)
}

// Decoded revert data of a failed call. See "Abi.DecodeRevert".
type Revert struct {
	Error AbiError
	Args  Result
}

/*
Human-readable form, such as:

	Error("insufficient balance")
	Panic(17)
	Unauthorized(0x00000000000000000000000000000000000000aa)
*/
func (self Revert) String() string {
	var buf strings.Builder
	buf.WriteString(self.Error.Name)
	buf.WriteByte('(')
	for i, val := range self.Args.Values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(val.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

/*
Decodes the data of a reverted call: "Error(string)" from "require" and
"revert", "Panic(uint256)" from runtime checks, or one of the custom errors
declared in this ABI. Fails with "ErrInvalidBytes" for an unknown selector or
malformed data.
*/
func (self Abi) DecodeRevert(data []byte) (Revert, error) {
	if len(data) < len(Selector{}) {
		return Revert{}, errors.Wrapf(ErrInvalidBytes, `revert data of %v bytes has no selector`, len(data))
	}

	var selector Selector
	copy(selector[:], data)

	var def AbiError
	switch selector {
	case AbiErrorString.Selector:
		def = AbiErrorString
	case AbiErrorPanic.Selector:
		def = AbiErrorPanic
	default:
		var ok bool
		def, ok = self.ErrorBySelector(selector)
		if !ok {
			return Revert{}, errors.Wrapf(ErrInvalidBytes, `unknown error selector %v`, selector)
		}
	}

	args, err := decodeResult(def.Inputs, data[len(selector):])
	if err != nil {
		return Revert{}, errors.WithMessagef(err, `failed to decode error %v`, def.Name)
	}
	return Revert{Error: def, Args: args}, nil
}

/*
Represents a function parameter, function return value, error or event
parameter. Part of an ABI definition, used for encoding and decoding.

".AbiType" is parsed when decoding JSON. Params built by hand may leave it
zero; it's then parsed from ".Type" and ".Components" on use.
*/
type AbiParam struct {
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	InternalType string     `json:"internalType,omitempty"`
	Components   []AbiParam `json:"components,omitempty"` // tuple type only
	Indexed      bool       `json:"indexed,omitempty"`    // event only
	AbiType      AbiType    `json:"-"`
}

// Implements "json.Unmarshaler".
func (self *AbiParam) UnmarshalJSON(input []byte) error {
	var plain struct {
		Name         string
		Type         string
		InternalType string
		Components   []AbiParam
		Indexed      bool
	}

	err := json.Unmarshal(input, &plain)
	if err != nil {
		return errors.WithStack(err)
	}

	abiType, err := ParseAbiTypeWithComponents(plain.Type, plain.Components)
	if err != nil {
		return errors.WithMessagef(err, `parameter %q`, plain.Name)
	}

	*self = AbiParam{
		Name:         plain.Name,
		Type:         plain.Type,
		InternalType: plain.InternalType,
		Components:   plain.Components,
		Indexed:      plain.Indexed,
		AbiType:      abiType,
	}
	return nil
}

// Returns ".AbiType", parsing it from ".Type" if necessary.
func (self AbiParam) ParsedType() (AbiType, error) {
	if self.AbiType.IsValid() {
		return self.AbiType, nil
	}
	return ParseAbiTypeWithComponents(self.Type, self.Components)
}

/*
Builds unnamed parameters from type names, such as "uint256" or
"(address,bytes)[]".
*/
func ParseAbiParams(typeNames ...string) ([]AbiParam, error) {
	out := make([]AbiParam, len(typeNames))
	for i, name := range typeNames {
		atype, err := ParseAbiType(name)
		if err != nil {
			return nil, err
		}
		out[i] = AbiParam{Type: atype.String(), AbiType: atype}
	}
	return out, nil
}

func paramTypes(params []AbiParam) ([]AbiType, error) {
	out := make([]AbiType, len(params))
	for i, param := range params {
		atype, err := param.ParsedType()
		if err != nil {
			return nil, errors.WithMessagef(err, `parameter %v %q`, i, param.Name)
		}
		out[i] = atype
	}
	return out, nil
}

/*
Builds a canonical signature: the name followed by the parenthesized,
comma-separated canonical type names, without spaces or parameter names:

	AbiSignature("transfer", params) // "transfer(address,uint256)"

Tuples are spelled as "(t1,t2)". Unparseable types are used as written.
*/
func AbiSignature(name string, params []AbiParam) string {
	var buf strings.Builder
	buf.WriteString(name)
	buf.WriteByte('(')
	for i, param := range params {
		if i > 0 {
			buf.WriteByte(',')
		}
		atype, err := param.ParsedType()
		if err != nil {
			buf.WriteString(param.Type)
		} else {
			buf.WriteString(atype.String())
		}
	}
	buf.WriteByte(')')
	return buf.String()
}

// Anything that has a canonical signature: functions, events, errors.
type AbiSigner interface {
	Signature() string
}

// A signature provided as text, such as "Transfer(address,address,uint256)".
type RawSignature string

// Implements "AbiSigner".
func (self RawSignature) Signature() string { return string(self) }

// First 4 bytes of the Keccak256 of the canonical signature.
func (self Coder) EncodeFunctionSignature(sig AbiSigner) Selector {
	var out Selector
	hash := self.Keccak256(stringToBytesUnsafe(sig.Signature()))
	copy(out[:], hash[:])
	return out
}

// Full Keccak256 of the canonical signature. Used as topic 0 of event logs.
func (self Coder) EncodeEventSignature(sig AbiSigner) Word {
	return Word(self.Keccak256(stringToBytesUnsafe(sig.Signature())))
}

// Package-level version of "Coder.EncodeFunctionSignature".
func EncodeFunctionSignature(sig AbiSigner) Selector { return Coder{}.EncodeFunctionSignature(sig) }

// Package-level version of "Coder.EncodeEventSignature".
func EncodeEventSignature(sig AbiSigner) Word { return Coder{}.EncodeEventSignature(sig) }

/*
Allows a user-defined type to implement its own ABI encoding. Invoked by
ABI-encoding functions. Must return the complete encoding of the value as it
would appear in the head (static types) or the tail (dynamic types).
*/
type AbiMarshaler interface {
	EthAbiMarshal() ([]byte, error)
}

/*
Allows a user-defined type to implement its own ABI decoding. Invoked by
ABI-decoding functions with the encoding of the value, in the same form as
produced by "AbiMarshaler".
*/
type AbiUnmarshaler interface {
	EthAbiUnmarshal([]byte) error
}

/*
ABI-encodes an arbitrary Go value as a single value of the given type. Returns
an error in case of type mismatch. See "ToValue" for accepted inputs.
*/
func AbiMarshal(atype AbiType, input interface{}) ([]byte, error) {
	val, err := ToValue(atype, input)
	if err != nil {
		return nil, err
	}
	return EncodeValue(atype, val)
}

/*
ABI-decodes a single value of the given type into a Go value. The output must
be a pointer. Returns an error in case of type mismatch or malformed input.
*/
func AbiUnmarshal(input []byte, atype AbiType, out interface{}) error {
	result, err := decodeResultTypes([]AbiType{atype}, nil, input)
	if err != nil {
		return err
	}
	return result.Unmarshal(out)
}

/*
ABI-encodes multiple values, typically arguments to a function call. Returns
an error in case of arity mismatch, type mismatch, or malformed input.
*/
func AbiMarshalTuple(params []AbiParam, args ...interface{}) ([]byte, error) {
	return abiAppendTuple(nil, params, args)
}

func abiAppendTuple(out []byte, params []AbiParam, inputs []interface{}) ([]byte, error) {
	if len(params) != len(inputs) {
		return out, errors.Wrapf(ErrTypeMismatch, `arity mismatch: expected %v inputs, got %v`,
			len(params), len(inputs))
	}

	types, err := paramTypes(params)
	if err != nil {
		return out, err
	}

	values := make([]Value, len(inputs))
	for i, input := range inputs {
		values[i], err = ToValue(types[i], input)
		if err != nil {
			return out, errors.WithMessagef(err, `failed to encode param %v of type %q`, i, types[i])
		}
	}

	return appendSeq(out, func(i int) AbiType { return types[i] }, values)
}

/*
ABI-decodes multiple values, typically return values from a function call, or
event parameters. The outputs must be pointers. Returns an error in case of
arity mismatch, type mismatch, or malformed input.
*/
func AbiUnmarshalTuple(input []byte, params []AbiParam, outs []interface{}) error {
	result, err := decodeResult(params, input)
	if err != nil {
		return err
	}
	return result.Unmarshal(outs...)
}

/*
ABI-encodes the arguments and returns "0x"-prefixed hex. Arguments follow
"ToValue" rules for the corresponding parameter types.
*/
func EncodeParameters(params []AbiParam, args ...interface{}) (string, error) {
	out, err := AbiMarshalTuple(params, args...)
	if err != nil {
		return "", err
	}
	return BytesToHex(out), nil
}

// Encodes one argument of the named type. See "EncodeParameters".
func EncodeParameter(typeName string, arg interface{}) (string, error) {
	params, err := ParseAbiParams(typeName)
	if err != nil {
		return "", err
	}
	return EncodeParameters(params, arg)
}

/*
Decodes "0x"-prefixed hex according to the parameters. Fails with
"ErrEmptyOutputs" if there are no parameters, then with "ErrInvalidBytes" if
the data is empty or "0x", before attempting to decode anything.
*/
func DecodeParameters(params []AbiParam, data string) (Result, error) {
	if len(params) == 0 {
		return Result{}, ErrEmptyOutputs
	}
	if data == "" || data == "0x" || data == "0X" {
		return Result{}, errors.Wrapf(ErrInvalidBytes, `can't decode %v parameters from empty data`, len(params))
	}
	if !IsHexStrict(data) || strings.HasPrefix(data, "-") {
		return Result{}, errors.Wrapf(ErrInvalidHex, `%q is not a valid hex string`, data)
	}

	input, err := HexToBytes(data)
	if err != nil {
		return Result{}, err
	}
	return decodeResult(params, input)
}

// Decodes one value of the named type. See "DecodeParameters".
func DecodeParameter(typeName string, data string) (Value, error) {
	params, err := ParseAbiParams(typeName)
	if err != nil {
		return Value{}, err
	}
	result, err := DecodeParameters(params, data)
	if err != nil {
		return Value{}, err
	}
	return result.At(0), nil
}

/*
Encodes a function call: the function's selector followed by the ABI-encoded
arguments, as "0x"-prefixed hex.
*/
func EncodeFunctionCall(fn AbiFunction, args ...interface{}) (string, error) {
	out, err := fn.Marshal(args...)
	if err != nil {
		return "", err
	}
	return BytesToHex(out), nil
}

func decodeResult(params []AbiParam, input []byte) (Result, error) {
	types, err := paramTypes(params)
	if err != nil {
		return Result{}, err
	}
	names := make([]string, len(params))
	for i, param := range params {
		names[i] = param.Name
	}
	return decodeResultTypes(types, names, input)
}

func decodeResultTypes(types []AbiType, names []string, input []byte) (Result, error) {
	values, err := DecodeValues(types, input)
	if err != nil {
		return Result{}, err
	}
	return Result{Values: values, Types: types, Names: names}, nil
}

/*
Ordered decoded values with optional names. Values are addressable by position
and, if their name is non-empty and unique, by name.
*/
type Result struct {
	Values []Value
	Types  []AbiType
	Names  []string
}

// Number of values.
func (self Result) Len() int { return len(self.Values) }

// Nth value. Panics if out of range.
func (self Result) At(i int) Value { return self.Values[i] }

// Finds the value by name. Unnamed and duplicate names never match.
func (self Result) Get(name string) (Value, bool) {
	if name == "" {
		return Value{}, false
	}
	found := -1
	for i, other := range self.Names {
		if other != name {
			continue
		}
		if found >= 0 {
			return Value{}, false
		}
		found = i
	}
	if found < 0 || found >= len(self.Values) {
		return Value{}, false
	}
	return self.Values[found], true
}

/*
Converts to a map of native Go values, keyed by position ("0", "1", ...) and
by unique non-empty names. See "Value.Interface".
*/
func (self Result) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(self.Values)*2)
	self.each(func(key string, val Value) { out[key] = val.Interface() })
	return out
}

// Implements "json.Marshaler". Same keys as "Map", values as "Value.MarshalJSON".
func (self Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]Value, len(self.Values)*2)
	self.each(func(key string, val Value) { out[key] = val })
	return json.Marshal(out)
}

func (self Result) each(fun func(string, Value)) {
	for i, val := range self.Values {
		fun(strconv.Itoa(i), val)
	}
	for i, name := range self.Names {
		if i >= len(self.Values) {
			break
		}
		val, ok := self.Get(name)
		if ok && !isPositionalKey(name) {
			fun(name, val)
		}
	}
}

func isPositionalKey(name string) bool {
	_, err := strconv.Atoi(name)
	return err == nil
}

/*
Assigns the values into the provided outputs by position. The outputs must be
pointers and their count must match. Nil outputs are skipped. Outputs
implementing "AbiUnmarshaler" receive the re-encoded value; other outputs
follow "Value.Unmarshal".
*/
func (self Result) Unmarshal(outs ...interface{}) error {
	if len(outs) != len(self.Values) {
		return errors.Wrapf(ErrTypeMismatch, `arity mismatch: have %v values, found %v outputs`,
			len(self.Values), len(outs))
	}

	for i, out := range outs {
		if out == nil {
			continue
		}

		var err error
		un, ok := out.(AbiUnmarshaler)
		if ok && i < len(self.Types) {
			var chunk []byte
			chunk, err = appendValue(nil, self.Types[i], self.Values[i])
			if err == nil {
				err = un.EthAbiUnmarshal(chunk)
			}
		} else {
			err = self.Values[i].Unmarshal(out)
		}

		if err != nil {
			return errors.WithMessagef(err, `failed to unmarshal value %v`, i)
		}
	}
	return nil
}
