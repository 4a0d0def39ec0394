package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// domainRecords separates record fingerprints from any other hash input.
const domainRecords = "quotesync/records/v2"

// Fingerprint returns a hex SHA-256 digest of records in order.
//
// Fields are hashed as raw bytes, each prefixed with its length, so the
// digest is as exact as record identity: two collections share a
// fingerprint only if they hold byte-identical records in the same order.
func Fingerprint(records []Record) (string, error) {
	h := sha256.New()
	h.Write([]byte(domainRecords))
	h.Write([]byte{0x00})
	writeLen(h, len(records))
	for _, r := range records {
		writeField(h, r.Text)
		writeField(h, r.Author)
		writeField(h, r.Category)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeField(h hash.Hash, s string) {
	writeLen(h, len(s))
	h.Write([]byte(s))
}

func writeLen(h hash.Hash, n int) {
	var buf [binary.MaxVarintLen64]byte
	h.Write(buf[:binary.PutUvarint(buf[:], uint64(n))])
}
