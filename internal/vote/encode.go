package vote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrInvalidVoteData = errors.New("invalid vote data")

// Data is the payload a voter's device takes from the booth. It is carried as
// a base58 string so it fits into a URL path and a QR code.
type Data struct {
	FestivalAnswerIDs  []int  `msgpack:"a"`
	FestivalQuestionID int    `msgpack:"q"`
	Nonce              uint64 `msgpack:"n"`
	Signature          []byte `msgpack:"s"`
}

func EncodeVoteData(d Data) (string, error) {
	if len(d.FestivalAnswerIDs) == 0 {
		return "", ErrNoAnswers
	}
	if len(d.Signature) == 0 {
		return "", fmt.Errorf("%w: missing signature", ErrInvalidVoteData)
	}
	raw, err := msgpack.Marshal(&d)
	if err != nil {
		return "", fmt.Errorf("vote: failed to encode vote data: %w", err)
	}
	return base58.Encode(raw), nil
}

func DecodeVoteData(s string) (Data, error) {
	var d Data
	raw, err := base58.Decode(strings.TrimSpace(s))
	if err != nil || len(raw) == 0 {
		return d, fmt.Errorf("%w: not base58", ErrInvalidVoteData)
	}
	if err := msgpack.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidVoteData, err)
	}
	if len(d.FestivalAnswerIDs) == 0 || len(d.Signature) == 0 {
		return d, ErrInvalidVoteData
	}
	return d, nil
}

// Verify checks that d was signed by the booth with the given address.
func Verify(d Data, boothAddress string) error {
	addr, err := RecoverAddress(d.FestivalAnswerIDs, d.Nonce, d.Signature)
	if err != nil {
		return err
	}
	if !strings.EqualFold(addr, boothAddress) {
		return ErrInvalidSignature
	}
	return nil
}
