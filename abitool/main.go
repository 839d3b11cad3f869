/*
A CLI tool for the Ethereum contract ABI: generates Go definitions from
Solidity contracts, computes selectors, topics, checksums and packed hashes,
encodes and decodes parameters, and calls contracts over RPC.

Installation:

	go install github.com/purelabio/ethabi/abitool@latest

Example usage:

	abitool --help
	abitool gen --out=gen_contracts.go sol/Test.sol:Test
	abitool selector 'transfer(address,uint256)'
	abitool encode 'address,uint256' 0x00000000000000000000000000000000000000aa 100
	abitool decode 'uint256,string' 0x...
	abitool sha3 --type=uint8 --type=string 234 hello
	abitool call --rpc=http://localhost:8545 --to=0x... 'balanceOf(address) returns (uint256)' 0x...

Values of arrays and tuples are given as JSON: '[1,2,3]', '["0x...",100]'.
Other values are given as is.
*/
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/purelabio/ethabi"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// Diagnostics go to stderr; results go to stdout.
var logger = zerolog.Nop()

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "abitool",
		Usage: "Ethereum contract ABI tool",
		// Types such as "(uint8,string)" contain commas.
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug details to stderr",
			},
		},
		Before: func(ctx *cli.Context) error {
			logger = newLogger(ctx.App.ErrWriter, ctx.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			genCommand,
			selectorCommand,
			topicCommand,
			encodeCommand,
			decodeCommand,
			checksumCommand,
			sha3Command,
			callCommand,
			logsCommand,
		},
	}
}

func newLogger(out io.Writer, verbose bool) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "abitool").Logger()
}

var selectorCommand = &cli.Command{
	Name:      "selector",
	Usage:     "print the 4-byte selector of a function or error signature",
	ArgsUsage: "<signature>",
	Action: func(ctx *cli.Context) error {
		fn, err := signatureArg(ctx)
		if err != nil {
			return err
		}
		logger.Debug().Str("signature", fn.Signature()).Msg("canonical signature")
		return printLine(ctx, fn.Selector)
	},
}

var topicCommand = &cli.Command{
	Name:      "topic",
	Usage:     "print the topic of an event signature",
	ArgsUsage: "<signature>",
	Action: func(ctx *cli.Context) error {
		fn, err := signatureArg(ctx)
		if err != nil {
			return err
		}
		logger.Debug().Str("signature", fn.Signature()).Msg("canonical signature")
		return printLine(ctx, ethabi.EncodeEventSignature(fn))
	},
}

// Parses the only argument as a signature, normalizing its types.
func signatureArg(ctx *cli.Context) (ethabi.AbiFunction, error) {
	if ctx.NArg() != 1 {
		return ethabi.AbiFunction{}, errors.New(`expected exactly one signature, such as "transfer(address,uint256)"`)
	}
	return ethabi.ParseAbiFunction(ctx.Args().First())
}

var encodeCommand = &cli.Command{
	Name:      "encode",
	Usage:     "ABI-encode values",
	ArgsUsage: "<types> <values> ...",
	Description: `Types are comma-separated, such as "address,uint256[]". With "--call", the
first argument is a function signature and the output starts with its selector.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "call", Usage: "treat the first argument as a function signature"},
	},
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 1 {
			return errors.New(`expected types followed by values`)
		}

		fn, err := typesArg(ctx.Args().First(), ctx.Bool("call"))
		if err != nil {
			return err
		}

		args, err := cliValues(fn.Inputs, ctx.Args().Tail())
		if err != nil {
			return err
		}

		var out string
		if ctx.Bool("call") {
			out, err = ethabi.EncodeFunctionCall(fn, args...)
		} else {
			out, err = ethabi.EncodeParameters(fn.Inputs, args...)
		}
		if err != nil {
			return err
		}
		return printLine(ctx, out)
	},
}

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "decode ABI-encoded hex data and print the values as JSON",
	ArgsUsage: "<types> <hex>",
	Description: `Types are comma-separated, such as "address,uint256[]". With "--call", the
first argument is a function signature and the data must start with its
selector.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "call", Usage: "treat the first argument as a function signature"},
	},
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 2 {
			return errors.New(`expected types and hex data`)
		}

		fn, err := typesArg(ctx.Args().Get(0), ctx.Bool("call"))
		if err != nil {
			return err
		}

		var result ethabi.Result
		if ctx.Bool("call") {
			var input []byte
			input, err = ethabi.HexToBytes(ctx.Args().Get(1))
			if err == nil {
				result, err = fn.DecodeInput(input)
			}
		} else {
			result, err = ethabi.DecodeParameters(fn.Inputs, ctx.Args().Get(1))
		}
		if err != nil {
			return err
		}
		return printJson(ctx, result)
	},
}

// Parses a function signature, or a type list as the inputs of a nameless one.
func typesArg(arg string, isSignature bool) (ethabi.AbiFunction, error) {
	if isSignature {
		return ethabi.ParseAbiFunction(arg)
	}
	return ethabi.ParseAbiFunction("(" + arg + ")")
}

var checksumCommand = &cli.Command{
	Name:      "checksum",
	Usage:     "print addresses in the mixed-case checksum form",
	ArgsUsage: "<address> ...",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "chain-id",
			Usage: "salt the checksum with the chain id (EIP-1191); 0 means plain EIP-55",
		},
	},
	Action: func(ctx *cli.Context) error {
		var coder ethabi.Coder
		if ctx.Uint64("chain-id") != 0 {
			coder.ChainId = new(big.Int).SetUint64(ctx.Uint64("chain-id"))
		}

		for _, arg := range ctx.Args().Slice() {
			out, err := coder.ToChecksumAddress(arg)
			if err != nil {
				return err
			}
			err = printLine(ctx, out)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var sha3Command = &cli.Command{
	Name:      "sha3",
	Usage:     `print the Keccak256 of the packed encoding of the values ("abi.encodePacked")`,
	ArgsUsage: "<values> ...",
	Description: `Without "--type", types are inferred: numerals become uint256 (int256 if
negative), 40-digit hex becomes an address, other hex becomes bytes, anything
else is a string. Otherwise "--type" must be given once per value.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{Name: "type", Usage: "Solidity type of the next value"},
	},
	Action: func(ctx *cli.Context) error {
		types := ctx.StringSlice("type")
		vals := ctx.Args().Slice()
		if len(types) > 0 && len(types) != len(vals) {
			return errors.Errorf(`got %v types for %v values`, len(types), len(vals))
		}

		args := make([]interface{}, len(vals))
		for i, val := range vals {
			if len(types) == 0 {
				args[i] = val
				continue
			}

			atype, err := ethabi.ParseAbiType(types[i])
			if err != nil {
				return err
			}
			input, err := cliValue(atype, val)
			if err != nil {
				return errors.WithMessagef(err, `value %v`, i)
			}
			args[i] = ethabi.PackedArg{Type: types[i], Value: input}
		}

		hash, err := ethabi.SoliditySha3(args...)
		if err != nil {
			return err
		}
		return printLine(ctx, hash)
	},
}

var rpcFlag = &cli.StringFlag{
	Name:     "rpc",
	Usage:    "Ethereum node URL: http, https, ws or wss",
	EnvVars:  []string{"ETH_RPC_URL"},
	Required: true,
}

var abiFlag = &cli.PathFlag{
	Name:  "abi",
	Usage: "path to a JSON ABI file",
}

var callCommand = &cli.Command{
	Name:      "call",
	Usage:     `call a "view" or "pure" contract function and print its outputs as JSON`,
	ArgsUsage: "<function> <args> ...",
	Description: `The function is either a name found in the "--abi" file, or a signature with
return types, such as "balanceOf(address) returns (uint256)". Reverts are
decoded using the ABI, if any.`,
	Flags: []cli.Flag{
		rpcFlag,
		abiFlag,
		&cli.StringFlag{Name: "to", Usage: "contract address", Required: true},
	},
	Action: runCall,
}

func runCall(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New(`expected a function name or signature`)
	}

	abi, err := readAbiFlag(ctx)
	if err != nil {
		return err
	}

	fn, err := findFunction(abi, ctx.Args().First())
	if err != nil {
		return err
	}

	to, err := ethabi.ParseChecksumAddress(ctx.String("to"))
	if err != nil {
		return err
	}

	args, err := cliValues(fn.Inputs, ctx.Args().Tail())
	if err != nil {
		return err
	}

	trans, err := dial(ctx)
	if err != nil {
		return err
	}
	defer closeTrans(trans)

	logger.Debug().Str("to", to.String()).Str("function", fn.Signature()).Msg("calling")

	result, err := ethabi.CallFunction(ctx.Context, trans, to, fn, args...)
	if err != nil {
		return describeRevert(abi, err)
	}
	return printJson(ctx, result)
}

func findFunction(abi ethabi.Abi, arg string) (ethabi.AbiFunction, error) {
	if strings.Contains(arg, "(") {
		return ethabi.ParseAbiFunction(arg)
	}
	fn, ok := abi.MaybeFunction(arg)
	if !ok {
		return fn, errors.Errorf(`function %q not found; specify "--abi" or a full signature`, arg)
	}
	return fn, nil
}

// Replaces an RPC error with the decoded revert, if possible.
func describeRevert(abi ethabi.Abi, err error) error {
	var rpcErr *ethabi.RpcError
	if !errors.As(err, &rpcErr) {
		return err
	}

	data, ok := rpcErr.RevertData()
	if !ok {
		return err
	}

	revert, decodeErr := abi.DecodeRevert(data)
	if decodeErr != nil {
		logger.Debug().Err(decodeErr).Msg("failed to decode revert data")
		return err
	}
	return errors.Errorf("execution reverted: %v", revert)
}

var logsCommand = &cli.Command{
	Name:  "logs",
	Usage: "fetch contract logs and print them decoded, one JSON object per line",
	Flags: []cli.Flag{
		rpcFlag,
		abiFlag,
		&cli.StringSliceFlag{Name: "address", Usage: "contract address; may be repeated"},
		&cli.StringFlag{Name: "event", Usage: "only logs of the named event from the ABI"},
		&cli.StringFlag{Name: "from-block", Usage: "block number or tag", Value: ethabi.BlockNumberLatest},
		&cli.StringFlag{Name: "to-block", Usage: "block number or tag", Value: ethabi.BlockNumberLatest},
	},
	Action: runLogs,
}

func runLogs(ctx *cli.Context) error {
	abi, err := readAbiFlag(ctx)
	if err != nil {
		return err
	}

	var filter ethabi.LogFilter
	filter.FromBlock, err = blockArg(ctx.String("from-block"))
	if err != nil {
		return err
	}
	filter.ToBlock, err = blockArg(ctx.String("to-block"))
	if err != nil {
		return err
	}

	for _, str := range ctx.StringSlice("address") {
		addr, err := ethabi.ParseChecksumAddress(str)
		if err != nil {
			return err
		}
		filter.Address = append(filter.Address, addr)
	}

	if name := ctx.String("event"); name != "" {
		event, ok := abi.MaybeEvent(name)
		if !ok {
			return errors.Errorf(`event %q not found in the ABI`, name)
		}
		filter.Topics = []interface{}{event.Topic}
	}

	trans, err := dial(ctx)
	if err != nil {
		return err
	}
	defer closeTrans(trans)

	logs, err := ethabi.GetDecodedLogs(ctx.Context, trans, abi, filter)
	if err != nil {
		return err
	}
	logger.Debug().Int("count", len(logs)).Msg("fetched logs")

	enc := json.NewEncoder(ctx.App.Writer)
	for _, log := range logs {
		err := enc.Encode(log)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// Decimal or hex block numbers become numbers; tags pass through.
func blockArg(str string) (ethabi.BlockNumber, error) {
	switch str {
	case ethabi.BlockNumberEarliest, ethabi.BlockNumberLatest, ethabi.BlockNumberPending:
		return str, nil
	}
	if ethabi.Has0x(str) {
		num, err := ethabi.ParseQuantity(str)
		if err != nil {
			return nil, err
		}
		return num, nil
	}
	num, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ethabi.ErrInvalidNumber, "%q is not a block number", str)
	}
	return num, nil
}

// Empty ABI when the flag is missing.
func readAbiFlag(ctx *cli.Context) (ethabi.Abi, error) {
	path := ctx.Path(abiFlag.Name)
	if path == "" {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	abi, err := ethabi.ParseAbiJson(string(content))
	return abi, errors.WithMessagef(err, "failed to parse ABI %q", path)
}

func dial(ctx *cli.Context) (ethabi.Trans, error) {
	url := ctx.String(rpcFlag.Name)
	logger.Debug().Str("url", url).Msg("connecting")
	return ethabi.Dial(ctx.Context, url, &logger)
}

func closeTrans(trans ethabi.Trans) {
	closer, ok := trans.(io.Closer)
	if ok {
		_ = closer.Close()
	}
}

func cliValues(params []ethabi.AbiParam, args []string) ([]interface{}, error) {
	if len(args) != len(params) {
		return nil, errors.Errorf(`expected %v values, got %v`, len(params), len(args))
	}

	out := make([]interface{}, len(args))
	for i, arg := range args {
		atype, err := params[i].ParsedType()
		if err != nil {
			return nil, err
		}
		out[i], err = cliValue(atype, arg)
		if err != nil {
			return nil, errors.WithMessagef(err, `value %v`, i)
		}
	}
	return out, nil
}

/*
Converts a command-line argument into an input for "ethabi.ToValue". Arrays and
tuples are parsed as JSON, keeping numbers as "json.Number" to avoid precision
loss. Scalars other than booleans are passed as strings.
*/
func cliValue(atype ethabi.AbiType, arg string) (interface{}, error) {
	switch atype.Kind() {
	case ethabi.AbiKindBool:
		val, err := strconv.ParseBool(arg)
		return val, errors.Wrapf(err, "%q is not a boolean", arg)

	case ethabi.AbiKindArray, ethabi.AbiKindFixedArray, ethabi.AbiKindTuple:
		dec := json.NewDecoder(bytes.NewReader([]byte(arg)))
		dec.UseNumber()
		var val interface{}
		err := dec.Decode(&val)
		return val, errors.Wrapf(err, "%v requires a JSON value, got %q", atype, arg)

	default:
		return arg, nil
	}
}

func printLine(ctx *cli.Context, val interface{}) error {
	_, err := fmt.Fprintln(ctx.App.Writer, val)
	return errors.WithStack(err)
}

func printJson(ctx *cli.Context, val interface{}) error {
	out, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	return printLine(ctx, string(out))
}
