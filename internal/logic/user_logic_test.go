package logic

import (
	"context"
	"testing"
	"time"

	"github.com/cleyfe/chaincare/internal/cache"
	"github.com/cleyfe/chaincare/internal/config"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserLogic(t *testing.T) *UserLogic {
	t.Helper()
	return NewUserLogic(newTestDB(t), cache.NewMemory(64), config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 60,
		NonceTTLSeconds: 60,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	users := newUserLogic(t)
	ctx := context.Background()

	u, err := users.Register(ctx, "alice", "correct horse", "")
	require.NoError(t, err)
	assert.NotZero(t, u.Id)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	_, err = users.Register(ctx, "alice", "another password", "")
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = users.Register(ctx, "bob", "short", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = users.Register(ctx, "carol", "long enough", "not-a-wallet")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	logged, err := users.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.Id, logged.Id)

	_, err = users.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Login(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := users.GetUser(ctx, u.Id)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	_, err = users.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionTokenLifecycle(t *testing.T) {
	users := newUserLogic(t)
	ctx := context.Background()

	session, err := users.IssueSession("alice", 7, "")
	require.NoError(t, err)

	claims, err := users.ParseToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, int64(7), claims.UserId)

	_, err = users.ParseToken(ctx, session.Token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, users.Logout(ctx, claims))
	_, err = users.ParseToken(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	users := newUserLogic(t)
	issued := time.Now().Add(-2 * time.Hour)
	users.now = func() time.Time { return issued }
	session, err := users.IssueSession("alice", 1, "")
	require.NoError(t, err)

	users.now = time.Now
	_, err = users.ParseToken(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWalletLogin(t *testing.T) {
	users := newUserLogic(t)
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	sign := func(message string) string {
		sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
		require.NoError(t, err)
		sig[64] += 27
		return hexutil.Encode(sig)
	}

	_, err = users.VerifyWallet(ctx, addr.Hex(), "0x00")
	assert.ErrorIs(t, err, ErrNonceNotFound)

	message, err := users.CreateNonce(ctx, addr.Hex())
	require.NoError(t, err)
	assert.Contains(t, message, addr.Hex())

	_, err = users.VerifyWallet(ctx, addr.Hex(), "0x1234")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	got, err := users.VerifyWallet(ctx, addr.Hex(), sign(message))
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	// nonce is single use
	_, err = users.VerifyWallet(ctx, addr.Hex(), sign(message))
	assert.ErrorIs(t, err, ErrNonceNotFound)
}

func TestWalletLoginRejectsOtherSigner(t *testing.T) {
	users := newUserLogic(t)
	ctx := context.Background()
	key, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey)

	message, err := users.CreateNonce(ctx, addr.Hex())
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), other)
	require.NoError(t, err)

	_, err = users.VerifyWallet(ctx, addr.Hex(), hexutil.Encode(sig))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = users.CreateNonce(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
