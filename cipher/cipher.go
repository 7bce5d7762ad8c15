// Package cipher decrypts inbound broker payloads. GNSS frames are carried
// as plaintext NMEA sentences; everything else is base64-encoded
// AES-128-CBC ciphertext under an installation-wide key and IV.
package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

const gnggaPrefix = "$GNGGA"

// Cipher holds the installation's AES key and IV.
type Cipher struct {
	key []byte
	iv  []byte
}

// New constructs a Cipher from a 16-byte AES-128 key and a 16-byte IV.
func New(key, iv []byte) (*Cipher, error) {
	if len(key) != aes.BlockSize {
		return nil, fmt.Errorf("AES key must be %d bytes, got %d", aes.BlockSize, len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("AES IV must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &Cipher{key: key, iv: iv}, nil
}

// IsPlaintext reports whether a raw payload is an unencrypted GNGGA
// sentence (spec §6).
func IsPlaintext(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte(gnggaPrefix))
}

// Decode returns the usable frame for a raw broker payload: the payload
// itself when it is a plaintext GNGGA sentence, or the AES-decrypted
// plaintext when it is base64 ciphertext. ok is false when the payload is
// neither (e.g. a binary RTCM stream on an NMEA topic), in which case the
// caller must drop the frame.
func (c *Cipher) Decode(raw []byte) (frame []byte, ok bool) {
	if IsPlaintext(raw) {
		return raw, true
	}

	ciphertext, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, false
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, false
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, c.iv)
	mode.CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, false
	}
	return unpadded, true
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", n)
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, fmt.Errorf("invalid PKCS#7 padding length %d", padLen)
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid PKCS#7 padding bytes")
		}
	}
	return data[:n-padLen], nil
}
