package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	ldap "github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"

	"github.com/the2dl/friendly-ad/internal/crypto"
	"github.com/the2dl/friendly-ad/internal/models"
	"github.com/the2dl/friendly-ad/internal/store"
)

// Broker resolves a domain, decrypts its credential and hands out a bound
// connection. No pooling: every search opens its own connection and the
// caller must Close it exactly once on every exit path.
type Broker struct {
	store       *store.Store
	cipher      *crypto.Cipher
	logger      *logrus.Logger
	connTimeout time.Duration
}

// NewBroker creates a connection broker over the given registry and cipher.
func NewBroker(st *store.Store, cipher *crypto.Cipher, logger *logrus.Logger, connTimeout time.Duration) *Broker {
	return &Broker{
		store:       st,
		cipher:      cipher,
		logger:      logger,
		connTimeout: connTimeout,
	}
}

// Connect opens and authenticates a connection to the requested domain,
// or to the first active domain when domainID is nil. Returns the bound
// connection and the domain's base DN. The decrypted password is used for
// the single bind call and not retained.
func (b *Broker) Connect(ctx context.Context, domainID *int64) (*ldap.Conn, string, error) {
	domain, err := b.resolveDomain(ctx, domainID)
	if err != nil {
		return nil, "", err
	}

	password, err := b.cipher.Decrypt(domain.EncryptedPassword)
	if err != nil {
		// A credential that no longer decrypts makes the domain unusable;
		// surface it loudly rather than attempting an anonymous bind.
		b.logger.WithError(err).WithField("domain", domain.Name).Error("Failed to decrypt domain credential")
		return nil, "", fmt.Errorf("domain %q credential: %w", domain.Name, err)
	}

	b.logger.WithFields(logrus.Fields{
		"domain": domain.Name,
		"server": domain.Server,
	}).Debug("Connecting to directory")

	// go-ldap does not chase referrals, matching the required behavior.
	conn, err := ldap.DialURL(domain.Server, ldap.DialWithDialer(&net.Dialer{
		Timeout: b.connTimeout,
	}))
	if err != nil {
		b.logger.WithError(err).WithField("server", domain.Server).Error("Directory connection failed")
		return nil, "", fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	conn.SetTimeout(b.connTimeout)

	if err := conn.Bind(domain.Username, password); err != nil {
		conn.Close()
		if isInvalidCredentials(err) {
			b.logger.WithField("domain", domain.Name).Warn("Directory bind rejected")
			return nil, "", ErrBindFailed
		}
		b.logger.WithError(err).WithField("domain", domain.Name).Error("Directory bind failed")
		return nil, "", fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	return conn, domain.BaseDN, nil
}

// resolveDomain picks the target domain row. An explicit id pointing at a
// deactivated domain behaves exactly like a missing id.
func (b *Broker) resolveDomain(ctx context.Context, domainID *int64) (*models.Domain, error) {
	if domainID == nil {
		return b.store.FirstActiveDomain(ctx)
	}

	domain, err := b.store.GetDomain(ctx, *domainID)
	if err != nil {
		if errors.Is(err, store.ErrDomainNotFound) {
			return nil, store.ErrNoActiveDomain
		}
		return nil, err
	}
	if !domain.IsActive {
		return nil, store.ErrNoActiveDomain
	}
	return domain, nil
}
