// Package json wraps JSON serialization behind a single import point.
// On amd64/arm64 it uses sonic; other platforms fall back to encoding/json.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

// Encoder encodes values to an output stream.
type Encoder interface {
	Encode(v interface{}) error
}

// Decoder decodes values from an input stream.
type Decoder interface {
	Decode(v interface{}) error
}

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v interface{}) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v interface{}) error

	// NewEncoder returns an encoder writing to w.
	NewEncoder func(w io.Writer) Encoder

	// NewDecoder returns a decoder reading from r.
	NewDecoder func(r io.Reader) Decoder
)

func init() {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		Marshal = sonic.Marshal
		Unmarshal = sonic.Unmarshal
		NewEncoder = func(w io.Writer) Encoder { return sonic.ConfigDefault.NewEncoder(w) }
		NewDecoder = func(r io.Reader) Decoder { return sonic.ConfigDefault.NewDecoder(r) }
		return
	}
	Marshal = stdjson.Marshal
	Unmarshal = stdjson.Unmarshal
	NewEncoder = func(w io.Writer) Encoder { return stdjson.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return stdjson.NewDecoder(r) }
}
