package vault

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryptDecrypt(t *testing.T) {
	v, err := New(testKey(1))
	require.NoError(t, err)

	enc, err := v.Encrypt("DE89370400440532013000")
	require.NoError(t, err)
	assert.NotContains(t, enc, "DE89")

	other, err := v.Encrypt("DE89370400440532013000")
	require.NoError(t, err)
	assert.NotEqual(t, enc, other, "nonce must differ per call")

	dec, err := v.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "DE89370400440532013000", dec)
}

func TestDecryptWithWrongKey(t *testing.T) {
	v1, err := New(testKey(1))
	require.NoError(t, err)
	v2, err := New(testKey(2))
	require.NoError(t, err)

	enc, err := v1.Encrypt("secret")
	require.NoError(t, err)

	_, err = v2.Decrypt(enc)
	assert.Error(t, err)
}

func TestInvalidInputs(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)

	v, err := New(testKey(3))
	require.NoError(t, err)

	_, err = v.Decrypt("not base64!")
	assert.Error(t, err)

	_, err = v.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
