package ethabi

import (
	"github.com/pkg/errors"
)

/*
Decodes event parameters from log data and topics. "topics" must not include
the event signature topic; see "Coder.DecodeLogEntry" for complete log entries.

Notes on event encoding and indexing:

Instead of encoding event parameters like any other tuple, the EVM separates
indexed and non-indexed parameters. Non-indexed parameters are encoded as
their own tuple in the log data, as if the other parameters don't exist.
Indexed parameters are converted into 32-byte topics: value types are
ABI-encoded, which pads them to 32 bytes; reference types ("string", "bytes",
arrays, tuples) are replaced with their Keccak256 hash.

The order of topics and data values does NOT match the original order. It's
recovered by consulting the parameter definitions; the result follows the
declared order.

Since hashing loses information, indexed reference types can't be decoded.
They come out as the raw topic, a 32-byte "ValueBytes".

Fails with "ErrInvalidBytes" if the number of topics doesn't match the number
of indexed parameters, or if there are non-indexed parameters and the data is
empty.
*/
func DecodeLog(params []AbiParam, data []byte, topics []Word) (Result, error) {
	var indexed, nonIndexed []int
	for i, param := range params {
		if param.Indexed {
			indexed = append(indexed, i)
		} else {
			nonIndexed = append(nonIndexed, i)
		}
	}

	if len(topics) != len(indexed) {
		return Result{}, errors.Wrapf(ErrInvalidBytes, `expected %v indexed topics, found %v`,
			len(indexed), len(topics))
	}

	types, err := paramTypes(params)
	if err != nil {
		return Result{}, err
	}

	out := Result{
		Values: make([]Value, len(params)),
		Types:  make([]AbiType, len(params)),
		Names:  make([]string, len(params)),
	}
	for i, param := range params {
		out.Types[i] = types[i]
		out.Names[i] = param.Name
	}

	for t, p := range indexed {
		atype := types[p]
		topic := topics[t]

		if isHashedInTopic(atype) {
			out.Types[p] = topicType
			out.Values[p] = BytesValue(append([]byte{}, topic[:]...))
			continue
		}

		val, err := newAbiDecoder(topic[:]).decodeValueAt(topic[:], 0, atype)
		if err != nil {
			return Result{}, errors.WithMessagef(err, `indexed parameter %v %q`, p, params[p].Name)
		}
		out.Values[p] = val
	}

	if len(nonIndexed) > 0 {
		if len(data) == 0 {
			return Result{}, errors.Wrapf(ErrInvalidBytes, `expected data for %v non-indexed parameters, found none`,
				len(nonIndexed))
		}

		values, err := newAbiDecoder(data).decodeSeq(data, len(nonIndexed), func(i int) AbiType { return types[nonIndexed[i]] })
		if err != nil {
			return Result{}, errors.WithMessage(err, `non-indexed parameters`)
		}
		for i, p := range nonIndexed {
			out.Values[p] = values[i]
		}
	}

	return out, nil
}

var topicType = MustParseAbiType("bytes32")

func isHashedInTopic(atype AbiType) bool {
	switch atype.Kind() {
	case AbiKindBytes, AbiKindString, AbiKindArray, AbiKindFixedArray, AbiKindTuple:
		return true
	default:
		return false
	}
}

/*
Log entry with decoded event parameters. Unknown events have only ".Raw" and
the metadata populated.
*/
type DecodedLog struct {
	Address         Address   `json:"address"`
	BlockHash       Hash      `json:"blockHash"`
	BlockNumber     HexUint64 `json:"blockNumber"`
	TransactionHash Hash      `json:"transactionHash"`
	LogIndex        HexUint64 `json:"logIndex"`
	Removed         bool      `json:"removed"`
	Event           string    `json:"event,omitempty"`
	Signature       Word      `json:"signature"`
	ReturnValues    Result    `json:"returnValues"`
	Raw             RawLog    `json:"raw"`
}

// Undecoded content of a log entry. Empty data is nil and JSON-encodes as null.
type RawLog struct {
	Data   HexBytes `json:"data"`
	Topics []Word   `json:"topics"`
}

func newDecodedLog(entry LogEntry) DecodedLog {
	out := DecodedLog{
		Address:         entry.Address,
		BlockHash:       entry.BlockHash,
		BlockNumber:     entry.BlockNumber,
		TransactionHash: entry.TransactionHash,
		LogIndex:        entry.LogIndex,
		Removed:         entry.Removed,
		Raw: RawLog{
			Topics: append([]Word(nil), entry.Topics...),
		},
	}
	if len(entry.Data) > 0 {
		out.Raw.Data = append(HexBytes(nil), entry.Data...)
	}
	return out
}

/*
Decodes a log entry produced by the event. For non-anonymous events, the first
topic must be the event's topic and is skipped; anonymous events use every
topic. The event topic is computed with the configured hasher.
*/
func (self Coder) DecodeLogEntry(event AbiEvent, entry LogEntry) (DecodedLog, error) {
	out := newDecodedLog(entry)
	out.Event = event.Name
	topics := entry.Topics

	if !event.Anonymous {
		topic := self.EncodeEventSignature(event)
		if len(topics) == 0 || topics[0] != topic {
			return DecodedLog{}, errors.Wrapf(ErrInvalidBytes, `log entry doesn't appear to contain event %v`,
				event.Name)
		}
		out.Signature = topic
		topics = topics[1:]
	}

	values, err := DecodeLog(event.Inputs, entry.Data, topics)
	if err != nil {
		return DecodedLog{}, errors.WithMessagef(err, `failed to decode event %v`, event.Name)
	}
	out.ReturnValues = values
	return out, nil
}

/*
Finds the event by the first topic of the log entry and decodes it. Entries
without topics, or with a topic that matches no event in this ABI, are returned
undecoded without an error.
*/
func (self Abi) DecodeLogEntry(entry LogEntry) (DecodedLog, error) {
	if len(entry.Topics) > 0 {
		event, ok := self.EventByTopic(entry.Topics[0])
		if ok {
			return Coder{}.DecodeLogEntry(event, entry)
		}
	}
	return newDecodedLog(entry), nil
}
