/*
Ethereum contract ABI for Go: hex and quantity encoding, address checksums,
type parsing, head/tail encoding and decoding, packed hashing ("solidity
sha3"), and event log decoding. Comes with a thin JSON-RPC layer for calling
contracts and fetching logs, and an optional CLI tool.

Features:

	* hex-aware types: HexBytes, HexInt, HexUint64, Address, Word, Hash, Selector

	* EIP-55 and EIP-1191 address checksums

	* ABI type parsing, including tuples and nested arrays

	* ABI encoding and decoding, with strict validation of untrusted input

	* packed encoding and hashing, compatible with "abi.encodePacked"

	* event log decoding

	* HTTP and WebSocket RPC transports

	* CLI tool "abitool" for outputting contract ABI definitions as Go code
	  (requires a Solidity compiler) and for ad-hoc encoding and decoding

The codec is ONE package with few dependencies. Every codec function is pure:
no I/O, no shared mutable state, safe for concurrent use.

Types

Interacting with Ethereum over RPC involves transmitting raw bytes, addresses,
hashes, and numbers in a hex-encoded format prefixed with "0x". This package
provides aliases for regular Go types such as []byte, [32]byte, *big.Int,
uint64, specialized for hex encoding and decoding.

To avoid potential gotchas, all byte array types such as Address, Hash, and Word
have a special rule: a zero-initialized array is JSON-encoded as "null", not as
"0x0000000000000.....". For consistency, this rule also affects MarshalText,
where an empty array encodes as "". However, the .String() method is unaffected.

Quantities are arbitrary-precision integers in hex: "0x" followed by digits
without leading zeros, with "-0x" for negative values. Two's complement is a
separate, explicit operation; see "ToTwosComplement".

Contract ABI

The ABI defines how values are laid out in call payloads, return data and
event logs: https://docs.soliditylang.org/en/latest/abi-spec.html

Types are parsed once into "AbiType" descriptors. Go values are converted into
"Value" at the boundary, encoded, and decoded back into "Value", which can be
assigned to Go variables or converted to plain Go types:

	atype := ethabi.MustParseAbiType("(address,uint256)[]")

	val, err := ethabi.ToValue(atype, []interface{}{
		[]interface{}{someAddress, big.NewInt(100)},
	})
	data, err := ethabi.EncodeValue(atype, val)
	decoded, err := ethabi.DecodeValue(atype, data)

Decoding treats input as untrusted: offsets, lengths, padding, booleans and
integer widths are validated, and malformed data fails with "ErrInvalidBytes"
rather than a panic.

Contracts

Obtain the Solidity compiler: https://github.com/ethereum/solidity

To bridge Solidity to Go, use the "abitool gen" command. It generates *.go
files with the code and ABI definitions necessary for RPC:

	abitool gen -out=gen.go MyContract.sol:MyContract

This will create a file with the following declarations (values elided for
brevity):

	const MyContractAbiJson string
	var MyContractAbi ethabi.Abi
	var MyContractCode []byte
	const MyContractCodeHex string
	var MyContractSelectors map[string]ethabi.Selector
	var MyContractTopics map[string]ethabi.Word

For dealing with solc "manually", see "DecodeContractDefs" and "ContractDef".

Using a "view" or "pure" function:

	fn := MyContractAbi.Function("balanceOf")

	result, err := ethabi.CallFunction(ctx, trans, MyContractAddress, fn, someAddress)

	var balance *big.Int
	err = result.Unmarshal(&balance)

The same steps by hand:

	input, err := fn.Marshal(someAddress)
	output, err := ethabi.EthCallLatest(ctx, trans, ethabi.TxMsg{
		To:   MyContractAddress,
		Data: input,
	})
	err = fn.Unmarshal(output, &balance)

Reverted calls fail with "*RpcError"; decode its data with "Abi.DecodeRevert".

Events

Filter and decode logs:

	logs, err := ethabi.GetDecodedLogs(ctx, trans, MyContractAbi, ethabi.LogFilter{
		FromBlock: uint64(1000000),
		Address:   []ethabi.Address{MyContractAddress},
		Topics:    []interface{}{MyContractAbi.Event("Transfer").Topic},
	})

Indexed parameters of reference types ("string", "bytes", arrays, tuples) are
hashed into their topic and can't be recovered; they decode as the raw topic.

RPC

Connect to an Ethereum node:

	trans, err := ethabi.Dial(ctx, "wss://some-host:8546", nil)

Currently supported transports: HTTP and WebSocket. The WebSocket transport
supports live subscriptions but doesn't reconnect; dial again when it fails.

All network operations accept a context.Context as the first argument. Use
it for cancelation.

Errors

Failures are reported through a few error kinds, such as "ErrInvalidHex",
"ErrInvalidType" and "ErrInvalidBytes", wrapped with context via
"github.com/pkg/errors". Use "errors.Cause" to find the kind.
*/
package ethabi
