package ethabi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transferLogJson = `{
	"address": "0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb",
	"topics": [
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		"0x0000000000000000000000005aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x000000000000000000000000fb6916095ca1df60bb79ce92ce3ea74c37c5d359"
	],
	"data": "0x00000000000000000000000000000000000000000000000000000000000003e8",
	"blockHash": "0x1111111111111111111111111111111111111111111111111111111111111111",
	"blockNumber": "0xf4240",
	"transactionHash": "0x2222222222222222222222222222222222222222222222222222222222222222",
	"transactionIndex": "0x0",
	"logIndex": "0x3",
	"removed": false
}`

const unknownLogJson = `{
	"address": "0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb",
	"topics": ["0x3333333333333333333333333333333333333333333333333333333333333333"],
	"data": "0x",
	"blockNumber": "0xf4241",
	"logIndex": "0x0"
}`

const insufficientBalanceRevert = "0x08c379a0" +
	"0000000000000000000000000000000000000000000000000000000000000020" +
	"0000000000000000000000000000000000000000000000000000000000000014" +
	"696e73756666696369656e742062616c616e6365000000000000000000000000"

func httpTrans(t *testing.T, node *mockNode) Trans {
	trans, err := Dial(testContext(t), node.httpUrl(), nil)
	require.NoError(t, err)
	return trans
}

func TestEthChainIdAndBlockNumber(t *testing.T) {
	node := newMockNode(t)
	node.result("eth_chainId", "0x1e")
	node.result("eth_blockNumber", "0x10")
	trans := httpTrans(t, node)

	chainId, err := EthChainId(testContext(t), trans)
	require.NoError(t, err)
	assert.Equal(t, int64(30), chainId.Int64())

	number, err := EthBlockNumber(testContext(t), trans)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), number)
}

func TestEthCall(t *testing.T) {
	node := newMockNode(t)
	node.handle("eth_call", func(params []json.RawMessage) (interface{}, *RpcError) {
		assert.Len(t, params, 2)
		assert.JSONEq(t, `{
			"from": null,
			"to": "0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb",
			"data": "0x70a082310000000000000000000000005aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
		}`, string(params[0]))
		assert.Equal(t, `"0x10"`, string(params[1]))
		return "0x00000000000000000000000000000000000000000000000000000000000003e8", nil
	})
	trans := httpTrans(t, node)

	input, err := tokenAbi.Function("balanceOf").Marshal(testOwner)
	require.NoError(t, err)

	msg := TxMsg{To: MustParseAddress("0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb"), Data: input}
	out, err := EthCall(testContext(t), trans, msg, 16)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000003e8", BytesToHex(out))

	_, err = EthCall(testContext(t), trans, msg, -1)
	assert.Equal(t, ErrInvalidNumber, errors.Cause(err))
}

func TestCallFunction(t *testing.T) {
	token := MustParseAddress("0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb")
	node := newMockNode(t)
	node.handle("eth_call", func(params []json.RawMessage) (interface{}, *RpcError) {
		assert.Equal(t, `"latest"`, string(params[1]))

		var msg TxMsg
		assert.NoError(t, json.Unmarshal(params[0], &msg))

		fn, ok := tokenAbi.FunctionBySelector(Selector{msg.Data[0], msg.Data[1], msg.Data[2], msg.Data[3]})
		if !ok {
			return "0x", nil
		}
		switch fn.Name {
		case "balanceOf":
			return "0x00000000000000000000000000000000000000000000000000000000000003e8", nil
		case "transfer":
			return nil, &RpcError{Code: 3, Message: "execution reverted", Data: json.RawMessage(`"` + insufficientBalanceRevert + `"`)}
		}
		return "0x", nil
	})
	trans := httpTrans(t, node)

	result, err := CallFunction(testContext(t), trans, token, tokenAbi.Function("balanceOf"), testOwner)
	require.NoError(t, err)
	balance, ok := result.Get("balance")
	require.True(t, ok)
	assert.Equal(t, "1000", balance.String())

	result, err = CallFunction(testContext(t), trans, token, tokenAbi.Function("totalSupply"))
	require.NoError(t, err, "empty output is not an error")
	assert.Equal(t, 0, result.Len())

	_, err = CallFunction(testContext(t), trans, token, tokenAbi.Function("transfer"), testSpender, 1)
	var rpcErr *RpcError
	require.True(t, errors.As(err, &rpcErr), "%+v", err)

	data, ok := rpcErr.RevertData()
	require.True(t, ok)
	revert, err := tokenAbi.DecodeRevert(data)
	require.NoError(t, err)
	assert.Equal(t, `Error("insufficient balance")`, revert.String())

	_, err = CallFunction(testContext(t), trans, token, tokenAbi.Function("transfer"), testSpender)
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))
}

func TestRevertData(t *testing.T) {
	for _, data := range []string{``, `"0x"`, `{"x": 1}`, `"0xzz"`, `123`} {
		_, ok := RpcError{Data: json.RawMessage(data)}.RevertData()
		assert.False(t, ok, data)
	}

	data, ok := RpcError{Data: json.RawMessage(`"0x4e487b71"`)}.RevertData()
	require.True(t, ok)
	assert.Equal(t, []byte{0x4e, 0x48, 0x7b, 0x71}, data)
}

func TestGetDecodedLogs(t *testing.T) {
	node := newMockNode(t)
	node.handle("eth_getLogs", func(params []json.RawMessage) (interface{}, *RpcError) {
		assert.JSONEq(t, `[{
			"fromBlock": "0xf4240",
			"toBlock": "latest",
			"address": ["0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb"],
			"topics": ["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"]
		}]`, "["+string(params[0])+"]")
		return []json.RawMessage{json.RawMessage(transferLogJson), json.RawMessage(unknownLogJson)}, nil
	})
	trans := httpTrans(t, node)

	filter := LogFilter{
		FromBlock: uint64(1000000),
		ToBlock:   BlockNumberLatest,
		Address:   []Address{MustParseAddress("0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb")},
		Topics:    []interface{}{tokenAbi.Event("Transfer").Topic},
	}

	logs, err := GetDecodedLogs(testContext(t), trans, tokenAbi, filter)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "Transfer", logs[0].Event)
	assert.Equal(t, HexUint64(1000000), logs[0].BlockNumber)
	assert.Equal(t, MustParseHash("0x2222222222222222222222222222222222222222222222222222222222222222"), logs[0].TransactionHash)
	value, _ := logs[0].ReturnValues.Get("value")
	assert.Equal(t, "1000", value.String())

	assert.Equal(t, "", logs[1].Event)
	assert.Nil(t, logs[1].Raw.Data)
}

func TestGetDecodedLogsErrors(t *testing.T) {
	_, err := GetDecodedLogs(testContext(t), httpTrans(t, newMockNode(t)), tokenAbi, LogFilter{})
	var rpcErr *RpcError
	assert.True(t, errors.As(err, &rpcErr), "%+v", err)

	node := newMockNode(t)
	node.handle("eth_getLogs", func([]json.RawMessage) (interface{}, *RpcError) {
		// Transfer with a missing topic.
		return []json.RawMessage{json.RawMessage(`{
			"topics": [
				"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
				"0x0000000000000000000000005aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
			],
			"data": "0x00000000000000000000000000000000000000000000000000000000000003e8"
		}`)}, nil
	})
	_, err = GetDecodedLogs(testContext(t), httpTrans(t, node), tokenAbi, LogFilter{})
	assert.Equal(t, ErrInvalidBytes, errors.Cause(err))
}

func TestSubscribeToLogs(t *testing.T) {
	node := newMockNode(t)
	node.notifications = []json.RawMessage{json.RawMessage(transferLogJson), json.RawMessage(unknownLogJson)}
	trans := dialWs(t, node)

	ctx, cancel := context.WithCancel(testContext(t))
	out := make(chan DecodedLog, 4)
	filter := LogFilter{Topics: []interface{}{tokenAbi.Event("Transfer").Topic}}
	errs := gogo(func() error { return SubscribeToLogs(ctx, trans, tokenAbi, filter, out) })

	first := <-out
	assert.Equal(t, "Transfer", first.Event)
	from, _ := first.ReturnValues.Get("from")
	assert.Equal(t, testOwner, from.Address)

	second := <-out
	assert.Equal(t, "", second.Event)

	cancel()
	for range out {
	}
	assert.Equal(t, context.Canceled, <-errs)

	subscribe := node.received()[0]
	require.Len(t, subscribe.Params, 2)
	assert.Equal(t, `"logs"`, string(subscribe.Params[0]))
	assert.JSONEq(t,
		`{"topics": ["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"]}`,
		string(subscribe.Params[1]))
}

func TestSubscribeToLogsHttp(t *testing.T) {
	node := newMockNode(t)
	out := make(chan DecodedLog)
	err := SubscribeToLogs(testContext(t), httpTrans(t, node), tokenAbi, LogFilter{}, out)
	assert.Error(t, err)

	_, open := <-out
	assert.False(t, open)
}
