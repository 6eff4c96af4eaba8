package anonymizer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pmorrell/surveyid/internal/dependencies/clock"
	"github.com/pmorrell/surveyid/internal/dependencies/random"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage"
)

const (
	// ProxyPrefix namespaces proxy public ids away from anything a
	// participant is allowed to choose for themselves
	ProxyPrefix = "anon-"

	proxySuffixLength = 8
	proxyDigits       = "0123456789"

	saltLength   = 32
	saltAlphabet = "0123456789abcdef"
)

// Service produces and verifies the binding between a participant and
// their anonymous proxy identity.
//
// The binding is one way: the proxy record holds a salted HMAC of the
// owner's internal ref. Given a candidate participant the binding can
// be re-checked, but a reader of the raw records cannot map proxies
// back to participants without testing them one pair at a time.
// Finding "the proxy for participant X" is therefore a scan over all
// proxy records; that O(n) cost is the price of the unlinkability and
// is deliberate.
type Service struct {
	store  storage.Store
	random random.Random
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new anonymizer service
func New(store storage.Store, rnd random.Random, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		random: rnd,
		clock:  clk,
		logger: logger,
	}
}

// GetOrCreateProxy returns the participant's anonymous proxy identity,
// creating it on first use. Idempotent: repeated and concurrent calls
// for the same participant all yield the same record.
func (s *Service) GetOrCreateProxy(ctx context.Context, participant *model.Identity) (*model.Identity, error) {
	if participant.IsProxy() {
		s.logger.Warn("proxy requested for an anonymous identity",
			slog.String("public_id", string(participant.PublicID)))
		return nil, model.ErrProxyForProxy
	}

	owns := func(candidate *model.Identity) bool {
		return s.VerifyOwner(candidate, participant)
	}

	create := func() (*model.Identity, error) {
		return s.newProxy(participant)
	}

	proxy, err := s.store.FindOrCreateProxy(ctx, owns, create)
	if err != nil {
		return nil, err
	}
	return proxy, nil
}

// VerifyOwner recomputes the one-way binding check: true only when the
// proxy record was created for this participant.
func (s *Service) VerifyOwner(proxy, participant *model.Identity) bool {
	if proxy == nil || proxy.Link == nil || !proxy.IsProxy() {
		return false
	}
	expected := bindingDigest(proxy.Link.Salt, participant.Ref)
	return hmac.Equal([]byte(expected), []byte(proxy.Link.Digest))
}

// newProxy builds a fresh proxy record bound to the participant. The
// store retries this on public id collision.
func (s *Service) newProxy(participant *model.Identity) (*model.Identity, error) {
	salt := s.random.String(saltLength, saltAlphabet)
	now := s.clock.Now()

	return &model.Identity{
		Ref:      model.Ref(uuid.NewString()),
		PublicID: model.PublicID(ProxyPrefix + s.random.String(proxySuffixLength, proxyDigits)),
		Kind:     model.KindAnonymousProxy,
		Link: &model.ProxyLink{
			Salt:   salt,
			Digest: bindingDigest(salt, participant.Ref),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// bindingDigest computes the keyed commitment to an owner ref
func bindingDigest(salt string, owner model.Ref) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(owner))
	return hex.EncodeToString(mac.Sum(nil))
}
