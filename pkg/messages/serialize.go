package messages

import (
	"encoding/json"
	"fmt"

	messagefb "github.com/cbodonnell/suika/flatbuffers/message"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(4*MessageBufferSize))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
	}
}

// SerializeMessageJSON encodes a message for a websocket text frame.
func SerializeMessageJSON(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %v", err)
	}
	return b, nil
}

// DeserializeMessageJSON decodes a websocket text frame.
func DeserializeMessageJSON(data []byte) (*Message, error) {
	m := &Message{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %v", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return m, nil
}

// SerializeMessage encodes a message for a websocket binary frame: a
// flatbuffer envelope compressed with zstd.
func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}

	return encoder.EncodeAll(b, make([]byte, 0, len(b))), nil
}

// DeserializeMessage decodes a websocket binary frame.
func DeserializeMessage(data []byte) (*Message, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	if m.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}

	builder := flatbuffers.NewBuilder(len(m.Payload) + 64)

	payload := builder.CreateByteVector(m.Payload)
	messageType := builder.CreateString(string(m.Type))

	messagefb.MessageStart(builder)
	messagefb.MessageAddType(builder, messageType)
	messagefb.MessageAddPayload(builder, payload)
	messageOffset := messagefb.MessageEnd(builder)
	builder.Finish(messageOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeMessageFlatbuffer(b []byte) (message *Message, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("buffer too short (%d bytes)", len(b))
	}

	// the generated accessors index into the buffer without bounds checks
	defer func() {
		if r := recover(); r != nil {
			message = nil
			err = fmt.Errorf("malformed flatbuffer: %v", r)
		}
	}()

	messageFlatbuffer := messagefb.GetRootAsMessage(b, 0)
	message = &Message{
		Type: MessageType(messageFlatbuffer.Type()),
	}
	if payload := messageFlatbuffer.PayloadBytes(); len(payload) > 0 {
		message.Payload = append(json.RawMessage(nil), payload...)
	}
	if message.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}

	return message, nil
}
