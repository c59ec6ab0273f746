package vote

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

var (
	ErrInvalidKey       = errors.New("invalid booth private key")
	ErrInvalidSignature = errors.New("invalid booth signature")
	ErrNoAnswers        = errors.New("vote has no answers")
)

// BoothSigner signs vote payloads with the booth's secp256k1 key.
type BoothSigner struct {
	key     *secp256k1.PrivateKey
	address string
}

// NewBoothSigner parses a hex encoded 32 byte private key, with or without a
// 0x prefix.
func NewBoothSigner(privateKeyHex string) (*BoothSigner, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil || len(raw) != secp256k1.PrivKeyBytesLen {
		return nil, ErrInvalidKey
	}
	key := secp256k1.PrivKeyFromBytes(raw)
	if key.Key.IsZero() {
		return nil, ErrInvalidKey
	}
	return &BoothSigner{key: key, address: Address(key.PubKey())}, nil
}

func (s *BoothSigner) Address() string {
	return s.address
}

// SignBooth returns a 65 byte recoverable signature over the booth payload.
// Signing is deterministic (RFC 6979): the same answers and nonce always give
// the same signature.
func (s *BoothSigner) SignBooth(festivalAnswerIDs []int, nonce uint64) ([]byte, error) {
	digest, err := BoothDigest(festivalAnswerIDs, nonce)
	if err != nil {
		return nil, err
	}
	return ecdsa.SignCompact(s.key, digest, false), nil
}

// BoothDigest is keccak256 over the sorted answer ids followed by the nonce,
// each as a big endian uint64. Answer order does not change the digest.
func BoothDigest(festivalAnswerIDs []int, nonce uint64) ([]byte, error) {
	if len(festivalAnswerIDs) == 0 {
		return nil, ErrNoAnswers
	}
	ids := slices.Clone(festivalAnswerIDs)
	slices.Sort(ids)

	buf := make([]byte, 0, 8*(len(ids)+1))
	for _, id := range ids {
		if id < 0 {
			return nil, fmt.Errorf("vote: negative answer id %d", id)
		}
		buf = binary.BigEndian.AppendUint64(buf, uint64(id))
	}
	buf = binary.BigEndian.AppendUint64(buf, nonce)

	h := sha3.NewLegacyKeccak256()
	h.Write(buf)
	return h.Sum(nil), nil
}

// Address derives the Ethereum style address of a public key.
func Address(pub *secp256k1.PublicKey) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(pub.SerializeUncompressed()[1:])
	return "0x" + hex.EncodeToString(h.Sum(nil)[12:])
}

// RecoverAddress returns the address of the booth that produced signature.
func RecoverAddress(festivalAnswerIDs []int, nonce uint64, signature []byte) (string, error) {
	digest, err := BoothDigest(festivalAnswerIDs, nonce)
	if err != nil {
		return "", err
	}
	pub, _, err := ecdsa.RecoverCompact(signature, digest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return Address(pub), nil
}
