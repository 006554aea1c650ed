package ipf

import "hash/crc32"

const (
	key0Init = 0x12345678
	key1Init = 0x23456789
	key2Init = 0x34567890

	key1Mul = 0x08088405
)

var password = [20]byte{
	0x6F, 0x66, 0x4F, 0x31, 0x61, 0x30, 0x75, 0x65, 0x58, 0x41,
	0x3F, 0x20, 0x5B, 0xFF, 0x73, 0x20, 0x68, 0x20, 0x25, 0x3F,
}

var crcTable = crc32.IEEETable

// keys after the password was fed, shared read-only by every decrypt call
var passwordKeys = newKeys()

type keys [3]uint32

func newKeys() keys {
	k := keys{key0Init, key1Init, key2Init}
	for _, b := range password {
		k.update(b)
	}
	return k
}

func crcStep(c uint32, b byte) uint32 {
	return crcTable[byte(c)^b] ^ (c >> 8)
}

func (k *keys) update(b byte) {
	k[0] = crcStep(k[0], b)
	k[1] = key1Mul*(k[1]+uint32(byte(k[0]))) + 1
	k[2] = crcStep(k[2], byte(k[1]>>24))
}

func (k *keys) stream() byte {
	v := (k[2] & 0xFFFD) | 2
	return byte((v * (v ^ 1)) >> 8)
}

// decrypt works in place. Only even offsets are enciphered.
func decrypt(buf []byte) {
	k := passwordKeys
	for i := 0; i < len(buf); i += 2 {
		buf[i] ^= k.stream()
		k.update(buf[i])
	}
}
