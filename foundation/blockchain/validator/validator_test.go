package validator_test

import (
	"testing"

	"github.com/meridianchain/meridian/foundation/blockchain/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeLifecycle(t *testing.T) {
	book := validator.NewBook(1000)

	book.Register("0xAlice", 1500)
	book.Register("0xBob", 400)

	balance, err := book.Balance("0xAlice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), balance)

	assert.True(t, book.HasMinStake("0xAlice"))
	assert.False(t, book.HasMinStake("0xBob"))
	assert.False(t, book.HasMinStake("0xCarol"))

	require.NoError(t, book.Deposit("0xBob", 700))
	assert.True(t, book.HasMinStake("0xBob"))

	require.NoError(t, book.Withdraw("0xBob", 1100))
	balance, err = book.Balance("0xBob")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance, "zero balance stays registered")

	err = book.Withdraw("0xBob", 1)
	assert.Error(t, err, "cannot withdraw past zero")

	err = book.Deposit("0xCarol", 10)
	assert.ErrorIs(t, err, validator.ErrNotRegistered)
}

func TestSlashing(t *testing.T) {
	book := validator.NewBook(1000)
	book.Register("0xAlice", 2000)

	slash, err := book.ApplySlash("0xAlice", 25, "invalid fraud proof")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), slash.Amount)

	balance, err := book.Balance("0xAlice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), balance)

	_, err = book.ApplySlash("0xAlice", 25, "")
	assert.ErrorIs(t, err, validator.ErrUnknownReason)

	_, err = book.ApplySlash("0xNobody", 25, "reverted batch")
	assert.ErrorIs(t, err, validator.ErrNotRegistered)

	slashes := book.Slashes()
	require.Len(t, slashes, 1)
	assert.Equal(t, "invalid fraud proof", slashes[0].Reason)
}
