package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// blobCodec compresses stored file contents.
type blobCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newBlobCodec() (*blobCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &blobCodec{enc: enc, dec: dec}, nil
}

func (c *blobCodec) compress(data []byte) []byte {
	return c.enc.EncodeAll(data, nil)
}

func (c *blobCodec) decompress(data []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (c *blobCodec) close() {
	_ = c.enc.Close()
	c.dec.Close()
}
