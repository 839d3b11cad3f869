package main

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/purelabio/ethabi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"abitool"}, args...))
	return out.String(), err
}

func TestSelectorAndTopic(t *testing.T) {
	out, err := runApp(t, "selector", "transfer(address, uint)")
	require.NoError(t, err)
	assert.Equal(t, "0xa9059cbb\n", out)

	out, err = runApp(t, "topic", "Transfer(address,address,uint256)")
	require.NoError(t, err)
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef\n", out)

	_, err = runApp(t, "selector")
	assert.Error(t, err)

	_, err = runApp(t, "selector", "transfer(address,uint7)")
	assert.Equal(t, ethabi.ErrInvalidType, errors.Cause(err))
}

func TestEncodeDecode(t *testing.T) {
	const encoded = "0x" +
		"00000000000000000000000000000000000000000000000000000000000000aa" +
		"0000000000000000000000000000000000000000000000000000000000000040" +
		"0000000000000000000000000000000000000000000000000000000000000002" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000000000002"

	out, err := runApp(t, "encode", "address,uint256[]", "0x00000000000000000000000000000000000000aa", "[1, 2]")
	require.NoError(t, err)
	assert.Equal(t, encoded+"\n", out)

	out, err = runApp(t, "decode", "address,uint256[]", encoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"0": "0x00000000000000000000000000000000000000AA", "1": ["1", "2"]}`, out)

	out, err = runApp(t, "encode", "--call", "transfer(address,uint256)", "0x00000000000000000000000000000000000000aa", "1")
	require.NoError(t, err)
	call := "0xa9059cbb" +
		"00000000000000000000000000000000000000000000000000000000000000aa" +
		"0000000000000000000000000000000000000000000000000000000000000001"
	assert.Equal(t, call+"\n", out)

	out, err = runApp(t, "decode", "--call", "transfer(address,uint256)", call)
	require.NoError(t, err)
	assert.JSONEq(t, `{"0": "0x00000000000000000000000000000000000000AA", "1": "1"}`, out)

	_, err = runApp(t, "decode", "--call", "approve(address,uint256)", call)
	assert.Equal(t, ethabi.ErrInvalidBytes, errors.Cause(err), "selector mismatch")

	_, err = runApp(t, "encode", "uint8", "256")
	assert.Equal(t, ethabi.ErrInvalidNumber, errors.Cause(err))

	_, err = runApp(t, "encode", "uint8,uint8", "1")
	assert.Error(t, err, "value count must match")

	_, err = runApp(t, "decode", "uint256", "0x01")
	assert.Equal(t, ethabi.ErrInvalidBytes, errors.Cause(err))
}

func TestChecksum(t *testing.T) {
	out, err := runApp(t, "checksum",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0xFB6916095CA1DF60BB79CE92CE3EA74C37C5D359")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed\n0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359\n", out)

	out, err = runApp(t, "checksum", "--chain-id=30", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, "0x5aaEB6053f3e94c9b9a09f33669435E7ef1bEAeD\n", out)

	_, err = runApp(t, "checksum", "0x5aaeb6")
	assert.Error(t, err)
}

func TestSha3(t *testing.T) {
	out, err := runApp(t, "sha3", "Hello!%")
	require.NoError(t, err)
	assert.Equal(t, "0x661136a4267dba9ccdf6bfddb7c00e714de936674c4bdb065a531cf1cb15c7fc\n", out)

	out, err = runApp(t, "sha3", "--type=uint8", "56")
	require.NoError(t, err)
	assert.Equal(t, "0xe4b1702d9298fee62dfeccc57d322a463ad55ca201256d01f62b45b2e1c21c10\n", out)

	_, err = runApp(t, "sha3", "--type=uint8", "1", "2")
	assert.Error(t, err, "one type per value")

	_, err = runApp(t, "sha3", "--type=uint8", "256")
	assert.Equal(t, ethabi.ErrInvalidNumber, errors.Cause(err))
}

// Answers "eth_call" with the given result or error.
func callServer(t *testing.T, result interface{}, rpcErr *ethabi.RpcError) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(rew http.ResponseWriter, req *http.Request) {
		var input struct {
			Id     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if !assert.NoError(t, json.NewDecoder(req.Body).Decode(&input)) {
			return
		}
		assert.Equal(t, "eth_call", input.Method)

		_ = json.NewEncoder(rew).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      input.Id,
			"result":  result,
			"error":   rpcErr,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCall(t *testing.T) {
	server := callServer(t, "0x00000000000000000000000000000000000000000000000000000000000003e8", nil)

	out, err := runApp(t, "call",
		"--rpc="+server.URL,
		"--to=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"balanceOf(address) returns (uint256)",
		"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	require.NoError(t, err)
	assert.JSONEq(t, `{"0": "1000"}`, out)

	_, err = runApp(t, "call", "--rpc="+server.URL, "--to=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "balanceOf")
	assert.Error(t, err, "a bare name requires an ABI")

	_, err = runApp(t, "call", "--rpc="+server.URL, "--to=0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "totalSupply()")
	assert.Equal(t, ethabi.ErrChecksumMismatch, errors.Cause(err))
}

func TestCallRevert(t *testing.T) {
	server := callServer(t, nil, &ethabi.RpcError{
		Code:    3,
		Message: "execution reverted",
		Data: json.RawMessage(`"0x08c379a0` +
			`0000000000000000000000000000000000000000000000000000000000000020` +
			`0000000000000000000000000000000000000000000000000000000000000014` +
			`696e73756666696369656e742062616c616e6365000000000000000000000000"`),
	})

	_, err := runApp(t, "call", "--rpc="+server.URL, "--to=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "totalSupply()")
	require.Error(t, err)
	assert.Equal(t, `execution reverted: Error("insufficient balance")`, err.Error())
}

func TestBlockArg(t *testing.T) {
	for _, tag := range []string{"latest", "earliest", "pending"} {
		num, err := blockArg(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, num)
	}

	num, err := blockArg("16")
	require.NoError(t, err)
	assert.Equal(t, uint64(16), num)

	num, err = blockArg("0x10")
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(16).Cmp(num.(*big.Int)))

	_, err = blockArg("soon")
	assert.Equal(t, ethabi.ErrInvalidNumber, errors.Cause(err))

	_, err = blockArg("0xzz")
	assert.Error(t, err)
}

func TestCliValue(t *testing.T) {
	val, err := cliValue(ethabi.MustParseAbiType("bool"), "true")
	require.NoError(t, err)
	assert.Equal(t, true, val)

	_, err = cliValue(ethabi.MustParseAbiType("bool"), "yes")
	assert.Error(t, err)

	val, err = cliValue(ethabi.MustParseAbiType("uint256[]"), "[1, 115792089237316195423570985008687907853269984665640564039457584007913129639935]")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		json.Number("1"),
		json.Number("115792089237316195423570985008687907853269984665640564039457584007913129639935"),
	}, val, "numbers keep their precision")

	val, err = cliValue(ethabi.MustParseAbiType("(address,string)"), `["0x00000000000000000000000000000000000000aa", "hi"]`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"0x00000000000000000000000000000000000000aa", "hi"}, val)

	_, err = cliValue(ethabi.MustParseAbiType("uint8[2]"), "[1,")
	assert.Error(t, err)

	val, err = cliValue(ethabi.MustParseAbiType("string"), "[1]")
	require.NoError(t, err)
	assert.Equal(t, "[1]", val, "scalars pass through")
}

const genTestAbi = `[
	{"type": "function", "name": "transfer", "inputs": [{"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}], "outputs": [{"name": "", "type": "bool"}]},
	{"type": "event", "name": "Transfer", "inputs": [{"name": "from", "type": "address", "indexed": true}, {"name": "to", "type": "address", "indexed": true}, {"name": "value", "type": "uint256"}]},
	{"type": "event", "name": "Hidden", "anonymous": true, "inputs": []}
]`

func TestGenSource(t *testing.T) {
	def := ethabi.ContractDef{
		FileName:     "sol/Token.sol",
		ContractName: "Token",
		Abi:          ethabi.MustParseAbiJson(genTestAbi),
		AbiJson:      genTestAbi,
		Code:         ethabi.HexBytes{0x60, 0x80},
	}

	source, err := genSource([]ethabi.ContractDef{def}, "contracts", false)
	require.NoError(t, err)
	text := string(source)

	assert.Contains(t, text, "// Code generated by abitool. DO NOT EDIT.")
	assert.Contains(t, text, "package contracts")
	assert.Contains(t, text, `import "github.com/purelabio/ethabi"`)
	assert.Contains(t, text, "var TokenAbi = ethabi.MustParseAbiJson(TokenAbiJson)")
	assert.Contains(t, text, "const TokenCodeHex = `0x6080`")
	assert.Regexp(t, `"transfer\(address,uint256\)":\s+\S`, text)
	assert.Regexp(t, `"Transfer\(address,address,uint256\)":\s+\S`, text)
	assert.NotContains(t, text, `"Hidden()":`, "anonymous events have no topic")

	source, err = genSource([]ethabi.ContractDef{def}, "ethabi", true)
	require.NoError(t, err)
	text = string(source)
	assert.NotContains(t, text, "import")
	assert.Contains(t, text, "var TokenAbi = MustParseAbiJson(TokenAbiJson)")

	def.AbiJson = "[`]"
	_, err = genSource([]ethabi.ContractDef{def}, "contracts", false)
	assert.Error(t, err)
}

func TestPickContractDefs(t *testing.T) {
	defs := map[string]ethabi.ContractDef{
		"sol/Token.sol:Token": {ContractName: "Token", AbiJson: `[{"type":"fallback"}]`},
		"sol/Other.sol:Other": {ContractName: "Other", AbiJson: `[]`},
	}

	picked, err := pickContractDefs(defs, []string{"sol/Token.sol:Token"})
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, "[\n\t{\n\t\t\"type\": \"fallback\"\n\t}\n]", picked[0].AbiJson)

	_, err = pickContractDefs(defs, []string{"sol/Missing.sol:Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `["sol/Other.sol:Other" "sol/Token.sol:Token"]`)
}
