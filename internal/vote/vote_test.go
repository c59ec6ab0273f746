package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0x0000000000000000000000000000000000000000000000000000000000000001"

func TestBoothSignerAddress(t *testing.T) {
	s, err := NewBoothSigner(testKey)
	require.NoError(t, err)
	assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", s.Address())
}

func TestNewBoothSignerRejectsBadKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"zz",
		"0x01",
		"0x0000000000000000000000000000000000000000000000000000000000000000",
	} {
		_, err := NewBoothSigner(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestSignBoothIsOrderInsensitiveAndDeterministic(t *testing.T) {
	s, err := NewBoothSigner(testKey)
	require.NoError(t, err)

	a, err := s.SignBooth([]int{3, 1, 2}, 7)
	require.NoError(t, err)
	b, err := s.SignBooth([]int{1, 2, 3}, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 65)

	c, err := s.SignBooth([]int{1, 2, 3}, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = s.SignBooth(nil, 7)
	assert.ErrorIs(t, err, ErrNoAnswers)
}

func TestEncodeDecodeVerify(t *testing.T) {
	s, err := NewBoothSigner(testKey)
	require.NoError(t, err)
	sig, err := s.SignBooth([]int{4, 9}, 12)
	require.NoError(t, err)

	token, err := EncodeVoteData(Data{
		FestivalAnswerIDs:  []int{4, 9},
		FestivalQuestionID: 2,
		Nonce:              12,
		Signature:          sig,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^[1-9A-HJ-NP-Za-km-z]+$`, token)

	d, err := DecodeVoteData(token)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 9}, d.FestivalAnswerIDs)
	assert.Equal(t, 2, d.FestivalQuestionID)
	assert.Equal(t, uint64(12), d.Nonce)
	require.NoError(t, Verify(d, s.Address()))

	tampered := d
	tampered.FestivalAnswerIDs = []int{4, 10}
	assert.ErrorIs(t, Verify(tampered, s.Address()), ErrInvalidSignature)

	assert.ErrorIs(t, Verify(d, "0x0000000000000000000000000000000000000000"), ErrInvalidSignature)
}

func TestDecodeVoteDataRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "0OIl", "abc"} {
		_, err := DecodeVoteData(in)
		assert.ErrorIs(t, err, ErrInvalidVoteData, in)
	}
}

func TestEncodeVoteDataRequiresSignature(t *testing.T) {
	_, err := EncodeVoteData(Data{FestivalAnswerIDs: []int{1}})
	assert.ErrorIs(t, err, ErrInvalidVoteData)
	_, err = EncodeVoteData(Data{Signature: []byte{1}})
	assert.ErrorIs(t, err, ErrNoAnswers)
}
