// Package testrand provides reproducible randomness for tests. It must never
// be used on a production path.
package testrand

import (
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20"
)

type stream struct {
	c *chacha20.Cipher
}

// New returns a ChaCha20 keystream seeded from seed.
func New(seed uint64) io.Reader {
	var key [chacha20.KeySize]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		panic(err)
	}
	return &stream{c: c}
}

func (s *stream) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	s.c.XORKeyStream(p, p)
	return len(p), nil
}
