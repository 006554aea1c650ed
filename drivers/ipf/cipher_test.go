package ipf

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encrypt mirrors decrypt: the key update consumes the plaintext byte.
func encrypt(buf []byte) {
	k := passwordKeys
	for i := 0; i < len(buf); i += 2 {
		plain := buf[i]
		buf[i] ^= k.stream()
		k.update(plain)
	}
}

func TestPasswordKeys(t *testing.T) {
	assert.Equal(t, keys{0x23a3e784, 0x2acfd00f, 0x91be6876}, passwordKeys)
}

func TestDecryptKnownVector(t *testing.T) {
	buf, err := hex.DecodeString("2a7294659c6f3420cb61ca694672")
	require.NoError(t, err)

	decrypt(buf)
	assert.Equal(t, "Tree of Savior", string(buf))
}

func TestCipherRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 2, 3, 17, 256, 4097} {
		plain := make([]byte, size)
		for i := range plain {
			plain[i] = byte(i*7 + 3)
		}

		buf := make([]byte, len(plain))
		copy(buf, plain)
		encrypt(buf)
		if size > 2 {
			assert.False(t, bytes.Equal(plain, buf), "size %d", size)
		}
		decrypt(buf)
		assert.Equal(t, plain, buf, "size %d", size)
	}
}

func TestDecryptLeavesOddBytes(t *testing.T) {
	buf := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15}
	decrypt(buf)
	assert.Equal(t, byte(0x11), buf[1])
	assert.Equal(t, byte(0x13), buf[3])
	assert.Equal(t, byte(0x15), buf[5])
}
