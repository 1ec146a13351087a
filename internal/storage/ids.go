package storage

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewUserID returns an id of the form user_<unix-millis>_<9 base36 chars>.
func NewUserID(now time.Time) string {
	return fmt.Sprintf("user_%d_%s", now.UnixMilli(), RandomString(base36, 9))
}

// RandomString draws n characters from alphabet using crypto/rand.
func RandomString(alphabet string, n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf)
}
