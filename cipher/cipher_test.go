package cipher_test

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/cipher"
)

func encryptForTest(t *testing.T, key, iv, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append(append([]byte{}, plaintext...), make([]byte, padLen)...)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	ciphertext := make([]byte, len(padded))
	mode := gocipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(ciphertext)))
	base64.StdEncoding.Encode(encoded, ciphertext)
	return encoded
}

func TestDecodePassesThroughPlaintextGNGGA(t *testing.T) {
	c, err := cipher.New([]byte("0123456789abcdef"), []byte("fedcba9876543210"))
	require.NoError(t, err)

	raw := []byte("$GNGGA,123456.00,2101.6800,N,10551.2400,E,4,08,0.9,12.3,M,0.0,M,,")
	frame, ok := c.Decode(raw)
	require.True(t, ok)
	require.Equal(t, raw, frame)
}

func TestDecodeDecryptsCiphertext(t *testing.T) {
	key := []byte("0123456789abcdef")
	iv := []byte("fedcba9876543210")
	c, err := cipher.New(key, iv)
	require.NoError(t, err)

	plaintext := []byte(`{"value": 1.23}`)
	raw := encryptForTest(t, key, iv, plaintext)

	frame, ok := c.Decode(raw)
	require.True(t, ok)
	require.Equal(t, plaintext, frame)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c, err := cipher.New([]byte("0123456789abcdef"), []byte("fedcba9876543210"))
	require.NoError(t, err)

	_, ok := c.Decode([]byte{0xff, 0x00, 0x01, 0x02})
	require.False(t, ok)
}
