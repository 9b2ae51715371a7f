package directory

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the2dl/friendly-ad/internal/crypto"
	"github.com/the2dl/friendly-ad/internal/models"
	"github.com/the2dl/friendly-ad/internal/store"
)

func testCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	cipher, err := crypto.NewCipherFromHex(key)
	require.NoError(t, err)
	return cipher
}

func testRegistry(t *testing.T, cipher *crypto.Cipher) *store.Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st, err := store.Open(":memory:", cipher, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func registerDomain(t *testing.T, st *store.Store, name string) int64 {
	t.Helper()
	id, err := st.CreateDomain(context.Background(), &models.CreateDomainInput{
		Name:     name,
		Server:   "ldap://dc1.corp.example:389",
		BaseDN:   "DC=corp,DC=example",
		Username: "CN=svc-search,OU=Service,DC=corp,DC=example",
		Password: "bind-password",
	})
	require.NoError(t, err)
	return id
}

func TestResolveDomain(t *testing.T) {
	cipher := testCipher(t)
	st := testRegistry(t, cipher)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	broker := NewBroker(st, cipher, logger, time.Second)
	ctx := context.Background()

	first := registerDomain(t, st, "first")
	second := registerDomain(t, st, "second")

	// No id picks the first active domain.
	domain, err := broker.resolveDomain(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, first, domain.ID)

	// An explicit id picks exactly that domain.
	domain, err = broker.resolveDomain(ctx, &second)
	require.NoError(t, err)
	assert.Equal(t, "second", domain.Name)
}

func TestResolveDomainUnknownID(t *testing.T) {
	cipher := testCipher(t)
	st := testRegistry(t, cipher)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	broker := NewBroker(st, cipher, logger, time.Second)

	id := int64(42)
	_, _, err := broker.Connect(context.Background(), &id)
	assert.ErrorIs(t, err, store.ErrNoActiveDomain)
}

func TestResolveDomainDeactivatedID(t *testing.T) {
	cipher := testCipher(t)
	st := testRegistry(t, cipher)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	broker := NewBroker(st, cipher, logger, time.Second)
	ctx := context.Background()

	id := registerDomain(t, st, "corp")
	require.NoError(t, st.DeactivateDomain(ctx, id))

	// A deactivated id behaves exactly like a missing one.
	_, _, err := broker.Connect(ctx, &id)
	assert.ErrorIs(t, err, store.ErrNoActiveDomain)

	// With the only domain deactivated, the default target is gone too.
	_, _, err = broker.Connect(ctx, nil)
	assert.ErrorIs(t, err, store.ErrNoActiveDomain)
}

func TestConnectUndecryptableCredential(t *testing.T) {
	// The registry encrypted with one key; the broker holds another, as
	// after an ENCRYPTION_KEY rotation without re-registering domains.
	storeCipher := testCipher(t)
	st := testRegistry(t, storeCipher)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	broker := NewBroker(st, testCipher(t), logger, time.Second)

	id := registerDomain(t, st, "corp")

	_, _, err := broker.Connect(context.Background(), &id)
	assert.ErrorIs(t, err, crypto.ErrDecryptFailed)
}
