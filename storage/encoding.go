package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

var (
	codec        cbor.EncMode
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
)

func init() {
	var err error

	codec, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("could not initialize codec: %w", err))
	}

	compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Errorf("could not initialize compressor: %w", err))
	}

	decompressor, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Errorf("could not initialize decompressor: %w", err))
	}
}

// Key prefixes, one byte each, scoped per logical store (a device prefix
// in the config store has nothing to do with a device prefix in the data
// store, since each lives in its own badger.DB).
const (
	prefixProject uint8 = iota + 1
	prefixStation
	prefixDevice
	prefixGNSSOrigin
	prefixGlobalConfig
)

const (
	prefixSensorData uint8 = iota + 1
	prefixAlert
)

const (
	prefixUser uint8 = iota + 1
	prefixToken
)

func encodeKey(prefix uint8, segments ...string) []byte {
	key := []byte{prefix}
	for _, s := range segments {
		key = append(key, 0)
		key = append(key, []byte(s)...)
	}
	return key
}

func save(key []byte, value interface{}) func(tx *badger.Txn) error {
	return func(tx *badger.Txn) error {
		raw, err := codec.Marshal(value)
		if err != nil {
			return fmt.Errorf("could not encode value: %w", err)
		}
		raw = compressor.EncodeAll(raw, nil)
		return tx.Set(key, raw)
	}
}

func retrieve(key []byte, value interface{}) func(tx *badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return fmt.Errorf("could not retrieve value: %w", err)
		}
		return item.Value(func(raw []byte) error {
			raw, err := decompressor.DecodeAll(raw, nil)
			if err != nil {
				return fmt.Errorf("could not decompress value: %w", err)
			}
			if err := cbor.Unmarshal(raw, value); err != nil {
				return fmt.Errorf("could not decode value: %w", err)
			}
			return nil
		})
	}
}
