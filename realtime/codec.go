package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec mengubah Notification menjadi frame dan sebaliknya.
// Semua peserta satu channel harus memakai codec yang sama.
type Codec interface {
	Name() string
	Encode(n Notification) ([]byte, error)
	Decode(frame []byte) (Notification, error)
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(n Notification) ([]byte, error) {
	return json.Marshal(n)
}

func (JSONCodec) Decode(frame []byte) (Notification, error) {
	var n Notification
	err := json.Unmarshal(frame, &n)
	return n, err
}

type CBORCodec struct {
	enc cbor.EncMode
}

func NewCBORCodec() (*CBORCodec, error) {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("build cbor encoder: %w", err)
	}
	return &CBORCodec{enc: enc}, nil
}

func (c *CBORCodec) Name() string { return "cbor" }

func (c *CBORCodec) Encode(n Notification) ([]byte, error) {
	return c.enc.Marshal(n)
}

func (c *CBORCodec) Decode(frame []byte) (Notification, error) {
	var n Notification
	err := cbor.Unmarshal(frame, &n)
	return n, err
}

func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return NewCBORCodec()
	default:
		return nil, fmt.Errorf("unknown notification codec %q", name)
	}
}
