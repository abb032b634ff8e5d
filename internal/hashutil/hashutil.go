package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

func HashBytes(data []byte) []byte {
	bytes := sha256.Sum256(data)
	return bytes[:]
}

func HashString(data string) []byte {
	hash := sha256.Sum256([]byte(data))
	return hash[:]
}

func HexHashBytes(data []byte) string {
	return hex.EncodeToString(HashBytes(data))
}
