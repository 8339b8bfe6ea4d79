package sw

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// StoredResponse is the durable form of a fetched asset: status, headers and
// body, replayed verbatim on a cache hit.
type StoredResponse struct {
	Status int         `msgpack:"status"`
	Header http.Header `msgpack:"header"`
	Body   []byte      `msgpack:"body"`
}

// OK reports whether the response carries a success status. Install refuses
// to store anything else.
func (r *StoredResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Clone returns a deep copy so a cached response can be handed out without
// aliasing the stored body or headers.
func (r *StoredResponse) Clone() *StoredResponse {
	out := &StoredResponse{
		Status: r.Status,
		Header: make(http.Header, len(r.Header)),
		Body:   append([]byte(nil), r.Body...),
	}
	for k, v := range r.Header {
		out.Header[k] = append([]string(nil), v...)
	}
	return out
}

// Value layout on disk: one flag byte (compressionNone or compressionZstd)
// followed by the msgpack payload. Bodies below zstdThreshold are not worth
// compressing.
const (
	compressionNone byte = 0
	compressionZstd byte = 1

	zstdThreshold = 8 * 1024
)

type codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &codec{encoder: enc, decoder: dec}, nil
}

func (c *codec) Close() error {
	_ = c.encoder.Close()
	c.decoder.Close()
	return nil
}

func (c *codec) encode(r *StoredResponse) ([]byte, error) {
	payload, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	if len(payload) < zstdThreshold {
		return append([]byte{compressionNone}, payload...), nil
	}
	compressed := c.encoder.EncodeAll(payload, []byte{compressionZstd})
	return compressed, nil
}

func (c *codec) decode(value []byte) (*StoredResponse, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("empty stored value")
	}
	payload := value[1:]
	if value[0] == compressionZstd {
		var err error
		payload, err = c.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress stored value: %w", err)
		}
	}
	var r StoredResponse
	if err := msgpack.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("failed to decode stored value: %w", err)
	}
	return &r, nil
}
