package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisPreviousHash is the previous-hash sentinel of the first block.
const GenesisPreviousHash = "0"

// Block is one entry of the tamper-evident verdict ledger. Hash covers
// index, previous hash, the canonical payload bytes and the timestamp, so
// any after-the-fact edit of a stored block is detectable by Verify.
type Block struct {
	Index        int             `json:"index"`
	Timestamp    time.Time       `json:"timestamp"`
	Data         json.RawMessage `json:"data"`
	PreviousHash string          `json:"previous_hash"`
	Hash         string          `json:"hash"`
}

// TimestampString returns the exact string representation hashed into the
// block. Storage keeps this form so re-verification survives round-trips
// through databases that truncate time precision.
func (b Block) TimestampString() string {
	return b.Timestamp.UTC().Format(time.RFC3339Nano)
}

// ComputeBlockHash implements the chain's hash recipe:
// sha256(index || previousHash || payload || timestamp).
func ComputeBlockHash(index int, previousHash string, payload []byte, ts time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d%s%s%s",
		index, previousHash, payload, ts.UTC().Format(time.RFC3339Nano))))
	return hex.EncodeToString(sum[:])
}

// CanonicalJSON serializes v with stable key ordering so the payload bytes,
// and therefore the block hash, are reproducible across processes. It round
// trips through a generic map because encoding/json sorts map keys.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// ChainStatus is the result of a full integrity verification.
type ChainStatus struct {
	Valid       bool   `json:"valid"`
	Blocks      int    `json:"blocks"`
	FailedIndex int    `json:"failed_index"` // -1 when the chain is intact
	Reason      string `json:"reason,omitempty"`
}
