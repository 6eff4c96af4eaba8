package credential

import (
	"context"
	"crypto/subtle"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pmorrell/surveyid/internal/dependencies/clock"
	"github.com/pmorrell/surveyid/internal/dependencies/random"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage"
)

// tokenAlphabet is the symbol pool for access and reset tokens. Zero
// and the letter O are omitted so tokens survive being read aloud.
const tokenAlphabet = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AccessTokenLength is the length of bearer access tokens
const AccessTokenLength = 25

// ResetTokenLength is the length of the secret half of reset tokens
const ResetTokenLength = 25

// DefaultResetTTL is how long a password reset stays redeemable
const DefaultResetTTL = 30 * time.Minute

// Service handles password hashing and token issuance
type Service struct {
	store  storage.Store
	random random.Random
	clock  clock.Clock
}

// New creates a new credential service
func New(store storage.Store, rnd random.Random, clk clock.Clock) *Service {
	return &Service{
		store:  store,
		random: rnd,
		clock:  clk,
	}
}

// HashPassword produces a salted bcrypt hash of the plaintext
func (s *Service) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
// bcrypt's comparison is constant time with respect to the secret.
func (s *Service) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NewAccessToken generates a bearer token for cookie-based login
func (s *Service) NewAccessToken() string {
	return s.random.String(AccessTokenLength, tokenAlphabet)
}

// VerifyAccessToken compares a presented token against the stored one
// in constant time
func (s *Service) VerifyAccessToken(id *model.Identity, presented string) bool {
	if id.AccessToken == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(id.AccessToken), []byte(presented)) == 1
}

// IssueResetToken generates a reset secret for the identity, persists
// it with an absolute expiry, and returns it. Any previously pending
// reset is replaced.
func (s *Service) IssueResetToken(ctx context.Context, id *model.Identity, ttl time.Duration) (model.ResetToken, error) {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}

	token := model.ResetToken{
		Secret:    s.random.String(ResetTokenLength, tokenAlphabet),
		ExpiresAt: s.clock.Now().Add(ttl),
	}

	id.Reset = &token
	id.UpdatedAt = s.clock.Now()
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return model.ResetToken{}, err
	}
	return token, nil
}

// ConsumeResetToken redeems a pending reset. Deleting the stored token
// is the first side effect, so a token is accepted at most once even if
// the same request is replayed. Expiry is checked here at consumption
// time; there is no background sweep.
func (s *Service) ConsumeResetToken(ctx context.Context, id *model.Identity, presented string) error {
	pending := id.Reset
	id.Reset = nil
	id.UpdatedAt = s.clock.Now()
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return err
	}

	if pending == nil {
		return model.ErrNoPendingReset
	}
	if subtle.ConstantTimeCompare([]byte(pending.Secret), []byte(presented)) != 1 {
		return model.ErrInvalidReset
	}
	if s.clock.Now().After(pending.ExpiresAt) {
		return model.ErrResetExpired
	}
	return nil
}
