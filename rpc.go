package ethabi

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// Strongly-typed version of the "eth_chainId" RPC method.
func EthChainId(ctx context.Context, trans Trans) (*big.Int, error) {
	var out HexInt
	err := trans.Call(ctx, &out, "eth_chainId")
	return (*big.Int)(&out), errors.Wrap(err, `error in "eth_chainId"`)
}

// Strongly-typed version of the "eth_blockNumber" RPC method.
func EthBlockNumber(ctx context.Context, trans Trans) (uint64, error) {
	var out HexUint64
	err := trans.Call(ctx, &out, "eth_blockNumber")
	return uint64(out), errors.Wrap(err, `error in "eth_blockNumber"`)
}

// Strongly-typed version of the "eth_getLogs" RPC method.
func EthGetLogs(ctx context.Context, trans Trans, filter LogFilter) ([]LogEntry, error) {
	var out []LogEntry
	err := trans.Call(ctx, &out, "eth_getLogs", filter)
	return out, errors.Wrap(err, `error in "eth_getLogs"`)
}

/*
Strongly-typed version of the "eth_call" RPC method.

Invokes a "view" or "pure" contract method. In other words, a read-only method
that doesn't create a new transaction. The caller must ABI-pack the "TxMsg.Data"
payload and ABI-unpack the output; see "CallFunction" for a shortcut.
*/
func EthCall(ctx context.Context, trans Trans, msg TxMsg, blockNumber BlockNumber) ([]byte, error) {
	block, err := blockNumberParam(blockNumber)
	if err != nil {
		return nil, err
	}

	var out HexBytes
	err = trans.Call(ctx, &out, "eth_call", msg, block)
	return out, errors.Wrap(err, `error in "eth_call"`)
}

// Same as "EthCall", but always uses the latest block number.
func EthCallLatest(ctx context.Context, trans Trans, msg TxMsg) ([]byte, error) {
	return EthCall(ctx, trans, msg, BlockNumberLatest)
}

/*
Calls a contract function via "eth_call" at the latest block and decodes its
outputs. An empty response, which is what calling an address without code
produces, gives an empty Result without an error.

Reverted calls fail with an "*RpcError"; see "RpcError.RevertData" and
"Abi.DecodeRevert".
*/
func CallFunction(ctx context.Context, trans Trans, to Address, fn AbiFunction, args ...interface{}) (Result, error) {
	input, err := fn.Marshal(args...)
	if err != nil {
		return Result{}, errors.WithMessagef(err, `failed to encode a call to %v`, fn.Name)
	}

	output, err := EthCallLatest(ctx, trans, TxMsg{To: to, Data: input})
	if err != nil {
		return Result{}, err
	}
	if len(output) == 0 {
		return Result{}, nil
	}

	out, err := fn.DecodeOutput(output)
	return out, errors.WithMessagef(err, `failed to decode the output of %v`, fn.Name)
}

/*
Fetches logs via "eth_getLogs" and decodes them with the ABI. Logs of events
unknown to the ABI are included undecoded; see "Abi.DecodeLogEntry".
*/
func GetDecodedLogs(ctx context.Context, trans Trans, abi Abi, filter LogFilter) ([]DecodedLog, error) {
	entries, err := EthGetLogs(ctx, trans, filter)
	if err != nil {
		return nil, err
	}

	out := make([]DecodedLog, 0, len(entries))
	for _, entry := range entries {
		decoded, err := abi.DecodeLogEntry(entry)
		if err != nil {
			return nil, errors.WithMessagef(err, `failed to decode log %v of transaction %v`,
				entry.LogIndex, entry.TransactionHash)
		}
		out = append(out, decoded)
	}
	return out, nil
}

/*
Subscribes to future logs matching the filter, decoding them with the ABI and
sending them over the provided channel, which is closed on return. Returns an
error when the context is canceled, when the connection is interrupted, or when
a log fails to decode. Does NOT automatically resubscribe.
*/
func SubscribeToLogs(ctx context.Context, trans Trans, abi Abi, filter LogFilter, out chan<- DecodedLog) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		close(out)
	}()

	inputs := make(chan []byte, cap(out))
	errChan := gogo(func() error {
		return trans.Subscribe(ctx, inputs, "logs", filter)
	})

	for input := range inputs {
		var entry LogEntry
		err := json.Unmarshal(input, &entry)
		if err != nil {
			return errors.WithStack(err)
		}

		decoded, err := abi.DecodeLogEntry(entry)
		if err != nil {
			return err
		}

		select {
		case out <- decoded:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return <-errChan
}

/*
Extracts the ABI-encoded revert data, if any, which nodes put into ".Data" as a
hex string when "eth_call" reverts.
*/
func (self RpcError) RevertData() ([]byte, bool) {
	var str string
	err := json.Unmarshal(self.Data, &str)
	if err != nil || !IsHexStrict(str) || len(str) <= 2 {
		return nil, false
	}
	out, err := HexToBytes(str)
	return out, err == nil
}
