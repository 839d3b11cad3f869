package ethabi

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

/*
Represents a broad category of EVM types. Used for ABI encoding and decoding.
*/
type AbiKind byte

const (
	AbiKindBool AbiKind = iota + 1
	AbiKindUint
	AbiKindInt
	AbiKindAddress
	AbiKindFixedBytes // bytes1..bytes32
	AbiKindBytes
	AbiKindString
	AbiKindFunction // address + selector, 24 bytes
	AbiKindTuple
	AbiKindFixedArray
	AbiKindArray
)

// Implements "fmt.Stringer".
func (self AbiKind) String() string {
	switch self {
	case AbiKindBool:
		return "AbiKindBool"
	case AbiKindUint:
		return "AbiKindUint"
	case AbiKindInt:
		return "AbiKindInt"
	case AbiKindAddress:
		return "AbiKindAddress"
	case AbiKindFixedBytes:
		return "AbiKindFixedBytes"
	case AbiKindBytes:
		return "AbiKindBytes"
	case AbiKindString:
		return "AbiKindString"
	case AbiKindFunction:
		return "AbiKindFunction"
	case AbiKindTuple:
		return "AbiKindTuple"
	case AbiKindFixedArray:
		return "AbiKindFixedArray"
	case AbiKindArray:
		return "AbiKindArray"
	default:
		return ""
	}
}

/*
Nesting limit for arrays and tuples. Deeper types fail to parse with
"ErrInvalidType", which keeps the recursive encoder and decoder off the edge
of the stack.
*/
const MaxAbiTypeDepth = 64

// Static encodings larger than this are rejected by the parser.
const maxAbiHeadSize = math.MaxInt32

const wordSize = 256 / 8

/*
Parsed ABI type descriptor. Small value referencing a node in an arena shared
by all types parsed together; elements and tuple components are other nodes of
the same arena. Immutable after parsing and safe for concurrent use.

The zero value is invalid; see "IsValid".
*/
type AbiType struct {
	arena *abiTypeArena
	index int
}

type abiTypeArena struct {
	nodes []abiTypeNode
}

type abiTypeNode struct {
	kind       AbiKind
	size       int // bits for ints, bytes for bytesN, arity for fixed arrays
	elem       int
	components []int
	names      []string
	name       string
	dynamic    bool
	headSize   int
}

func (self AbiType) node() *abiTypeNode {
	return &self.arena.nodes[self.index]
}

func (self AbiType) at(index int) AbiType {
	return AbiType{arena: self.arena, index: index}
}

// False for the zero value, true for any parsed type.
func (self AbiType) IsValid() bool { return self.arena != nil }

// Broad category of the type.
func (self AbiType) Kind() AbiKind { return self.node().kind }

/*
Width of the type: bits for "uintN" and "intN", bytes for "bytesN", arity for
fixed arrays. Zero for other kinds.
*/
func (self AbiType) Size() int { return self.node().size }

// Element type of a fixed or dynamic array. Panics for other kinds.
func (self AbiType) Elem() AbiType {
	kind := self.Kind()
	if kind != AbiKindArray && kind != AbiKindFixedArray {
		panic(errors.Errorf("type %v has no element type", self))
	}
	return self.at(self.node().elem)
}

// Number of tuple components. Zero for non-tuples.
func (self AbiType) NumComponents() int { return len(self.node().components) }

// Type of the Nth tuple component.
func (self AbiType) Component(i int) AbiType { return self.at(self.node().components[i]) }

// Name of the Nth tuple component. Empty for inline tuples.
func (self AbiType) ComponentName(i int) string { return self.node().names[i] }

/*
True for "bytes", "string", dynamic arrays, and for fixed arrays and tuples that
contain a dynamic type at any depth. Dynamic values are encoded in the tail and
referenced from the head by an offset.
*/
func (self AbiType) IsDynamic() bool { return self.node().dynamic }

/*
Bytes occupied in the head of an enclosing tuple: 32 for dynamic types (the
offset word), otherwise the full static encoding size.
*/
func (self AbiType) HeadSize() int { return self.node().headSize }

/*
Canonical type name, as used in signatures: "uint" becomes "uint256", tuples
are spelled "(t1,t2)".
*/
func (self AbiType) String() string {
	if !self.IsValid() {
		return ""
	}
	return self.node().name
}

// Implements "encoding.TextMarshaler". Uses the canonical name.
func (self AbiType) MarshalText() ([]byte, error) {
	return stringToBytesUnsafe(self.String()), nil
}

/*
Parses a type name, such as "bytes32", "uint", "address[12]", "(uint8,bool)[]".
"tuple" without inline components is rejected; use
"ParseAbiTypeWithComponents" for JSON ABI tuples. Fails with "ErrInvalidType".
*/
func ParseAbiType(name string) (AbiType, error) {
	return ParseAbiTypeWithComponents(name, nil)
}

/*
Parses a type name with out-of-band tuple components, as found in JSON ABI
definitions: {"type": "tuple[]", "components": [...]}. The components belong to
the innermost "tuple" base.
*/
func ParseAbiTypeWithComponents(name string, components []AbiParam) (AbiType, error) {
	parser := abiTypeParser{arena: &abiTypeArena{}}
	index, err := parser.parse(name, components, 0)
	if err != nil {
		return AbiType{}, err
	}
	return AbiType{arena: parser.arena, index: index}, nil
}

// Same as "ParseAbiType", but panics on error.
func MustParseAbiType(name string) AbiType {
	out, err := ParseAbiType(name)
	if err != nil {
		panic(err)
	}
	return out
}

type abiTypeParser struct {
	arena *abiTypeArena
}

func (self *abiTypeParser) add(node abiTypeNode) int {
	self.arena.nodes = append(self.arena.nodes, node)
	return len(self.arena.nodes) - 1
}

func (self *abiTypeParser) node(index int) abiTypeNode {
	return self.arena.nodes[index]
}

func (self *abiTypeParser) parse(name string, components []AbiParam, depth int) (int, error) {
	if depth > MaxAbiTypeDepth {
		return 0, errors.Wrapf(ErrInvalidType, "%q exceeds the nesting limit of %v", name, MaxAbiTypeDepth)
	}
	if strings.HasSuffix(name, "]") {
		return self.parseArray(name, components, depth)
	}
	if name == "tuple" || strings.HasPrefix(name, "tuple(") || strings.HasPrefix(name, "(") {
		return self.parseTuple(name, components, depth)
	}
	return self.parseBase(name)
}

// The rightmost bracket group is the outermost dimension.
func (self *abiTypeParser) parseArray(name string, components []AbiParam, depth int) (int, error) {
	open := strings.LastIndexByte(name, '[')
	if open <= 0 {
		return 0, errors.Wrapf(ErrInvalidType, "%q: malformed array type", name)
	}
	arity := name[open+1 : len(name)-1]

	elem, err := self.parse(name[:open], components, depth+1)
	if err != nil {
		return 0, err
	}
	elemNode := self.node(elem)

	if arity == "" {
		return self.add(abiTypeNode{
			kind:     AbiKindArray,
			elem:     elem,
			name:     elemNode.name + "[]",
			dynamic:  true,
			headSize: wordSize,
		}), nil
	}

	length, ok := parseTypeNumber(arity)
	if !ok || length < 1 {
		return 0, errors.Wrapf(ErrInvalidType, "%q: invalid array length %q", name, arity)
	}

	node := abiTypeNode{
		kind:     AbiKindFixedArray,
		size:     length,
		elem:     elem,
		name:     elemNode.name + "[" + strconv.Itoa(length) + "]",
		dynamic:  elemNode.dynamic,
		headSize: wordSize,
	}
	if !node.dynamic {
		if length > maxAbiHeadSize/elemNode.headSize {
			return 0, errors.Wrapf(ErrInvalidType, "%q is too large", name)
		}
		node.headSize = length * elemNode.headSize
	}
	return self.add(node), nil
}

func (self *abiTypeParser) parseTuple(name string, components []AbiParam, depth int) (int, error) {
	var names []string
	var types []string
	var subs [][]AbiParam

	if name == "tuple" {
		if len(components) == 0 {
			return 0, errors.Wrapf(ErrInvalidType, `"tuple" requires components`)
		}
		for _, param := range components {
			names = append(names, param.Name)
			types = append(types, param.Type)
			subs = append(subs, param.Components)
		}
	} else {
		inner := strings.TrimPrefix(name, "tuple")
		if !strings.HasPrefix(inner, "(") || !strings.HasSuffix(inner, ")") {
			return 0, errors.Wrapf(ErrInvalidType, "%q: malformed tuple type", name)
		}
		parts, ok := splitTupleComponents(inner[1 : len(inner)-1])
		if !ok {
			return 0, errors.Wrapf(ErrInvalidType, "%q: unbalanced parentheses", name)
		}
		types = parts
		names = make([]string, len(parts))
		subs = make([][]AbiParam, len(parts))
	}

	node := abiTypeNode{kind: AbiKindTuple, names: names}
	var buf strings.Builder
	buf.WriteByte('(')

	for i, typeName := range types {
		index, err := self.parse(typeName, subs[i], depth+1)
		if err != nil {
			return 0, errors.WithMessagef(err, "component %v of tuple %q", i, name)
		}
		comp := self.node(index)

		node.components = append(node.components, index)
		node.dynamic = node.dynamic || comp.dynamic
		if node.headSize > maxAbiHeadSize-comp.headSize {
			return 0, errors.Wrapf(ErrInvalidType, "%q is too large", name)
		}
		node.headSize += comp.headSize

		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(comp.name)
	}

	buf.WriteByte(')')
	node.name = buf.String()
	if node.dynamic {
		node.headSize = wordSize
	}
	return self.add(node), nil
}

func (self *abiTypeParser) parseBase(name string) (int, error) {
	node := abiTypeNode{name: name, headSize: wordSize}

	switch {
	case name == "bool":
		node.kind = AbiKindBool

	case name == "address":
		node.kind = AbiKindAddress

	case name == "function":
		node.kind = AbiKindFunction
		node.size = 24

	case name == "string":
		node.kind = AbiKindString
		node.dynamic = true

	case name == "bytes":
		node.kind = AbiKindBytes
		node.dynamic = true

	case name == "byte":
		node.kind = AbiKindFixedBytes
		node.size = 1
		node.name = "bytes1"

	case strings.HasPrefix(name, "bytes"):
		size, ok := parseTypeNumber(name[len("bytes"):])
		if !ok || size < 1 || size > 32 {
			return 0, errors.Wrapf(ErrInvalidType, "%q: byte length must be between 1 and 32", name)
		}
		node.kind = AbiKindFixedBytes
		node.size = size

	case strings.HasPrefix(name, "uint"):
		size, err := parseIntWidth(name, name[len("uint"):])
		if err != nil {
			return 0, err
		}
		node.kind = AbiKindUint
		node.size = size
		node.name = "uint" + strconv.Itoa(size)

	case strings.HasPrefix(name, "int"):
		size, err := parseIntWidth(name, name[len("int"):])
		if err != nil {
			return 0, err
		}
		node.kind = AbiKindInt
		node.size = size
		node.name = "int" + strconv.Itoa(size)

	default:
		return 0, errors.Wrapf(ErrInvalidType, "%q is not a known type", name)
	}

	return self.add(node), nil
}

func parseIntWidth(name, suffix string) (int, error) {
	if suffix == "" {
		return 256, nil
	}
	size, ok := parseTypeNumber(suffix)
	if !ok || size < 8 || size > 256 || size%8 != 0 {
		return 0, errors.Wrapf(ErrInvalidType, "%q: bit width must be a multiple of 8 between 8 and 256", name)
	}
	return size, nil
}

// Decimal without sign or leading zeros.
func parseTypeNumber(str string) (int, bool) {
	if !isDecimalDigits(str) || (len(str) > 1 && str[0] == '0') {
		return 0, false
	}
	num, err := strconv.Atoi(str)
	return num, err == nil
}

// Splits on top-level commas, trimming spaces.
func splitTupleComponents(inner string) ([]string, bool) {
	var out []string
	depth := 0
	start := 0

	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	return append(out, strings.TrimSpace(inner[start:])), true
}
