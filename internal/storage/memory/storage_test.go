package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pmorrell/surveyid/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func participant(userid, email string) *model.Identity {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Identity{
		Ref:      model.Ref("ref-" + userid),
		PublicID: model.PublicID(userid),
		Kind:     model.KindParticipant,
		Profile: model.Profile{
			FirstName: "Test",
			LastName:  "Person",
			Email:     email,
		},
		PasswordHash: "hash",
		AccessToken:  "token",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func proxyFor(owner model.Ref, publicID string) *model.Identity {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Identity{
		Ref:      model.Ref("ref-" + publicID),
		PublicID: model.PublicID(publicID),
		Kind:     model.KindAnonymousProxy,
		Link: &model.ProxyLink{
			Salt:   "salt",
			Digest: "digest-" + string(owner),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateIdentity tests

func (s *StorageSuite) TestCreateAndGetIdentity() {
	id := participant("alice", "alice@example.com")
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, id))

	got, err := s.storage.GetIdentity(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(id.Ref, got.Ref)
	s.Equal("alice@example.com", got.Profile.Email)
}

func (s *StorageSuite) TestCreateDuplicateIDFails() {
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("alice", "")))

	err := s.storage.CreateIdentity(s.ctx, participant("alice", ""))
	s.ErrorIs(err, model.ErrDuplicateID)
}

func (s *StorageSuite) TestConcurrentCreateSameIDOneWinner() {
	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.storage.CreateIdentity(s.ctx, participant("alice", ""))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			s.ErrorIs(err, model.ErrDuplicateID)
		}
	}
	s.Equal(1, winners)
}

func (s *StorageSuite) TestGetUnknownIdentityFails() {
	_, err := s.storage.GetIdentity(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *StorageSuite) TestGetReturnsCopy() {
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("alice", "")))

	got, err := s.storage.GetIdentity(s.ctx, "alice")
	s.Require().NoError(err)
	got.Profile.FirstName = "Mutated"

	again, err := s.storage.GetIdentity(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Test", again.Profile.FirstName)
}

// SaveIdentity tests

func (s *StorageSuite) TestSaveIdentityUpdates() {
	id := participant("alice", "")
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, id))

	id.Profile.Email = "new@example.com"
	s.Require().NoError(s.storage.SaveIdentity(s.ctx, id))

	got, err := s.storage.GetIdentity(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("new@example.com", got.Profile.Email)
}

func (s *StorageSuite) TestSaveUnknownIdentityFails() {
	err := s.storage.SaveIdentity(s.ctx, participant("ghost", ""))
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

// FindParticipantsByEmail tests

func (s *StorageSuite) TestFindParticipantsByEmail() {
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("alice", "shared@example.com")))
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("bob", "shared@example.com")))
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("carol", "other@example.com")))

	matches, err := s.storage.FindParticipantsByEmail(s.ctx, "shared@example.com")
	s.Require().NoError(err)
	s.Len(matches, 2)
}

func (s *StorageSuite) TestFindParticipantsByEmailIgnoresProxies() {
	proxy := proxyFor("ref-alice", "anon-12345678")
	proxy.Profile.Email = "shared@example.com"
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, proxy))

	matches, err := s.storage.FindParticipantsByEmail(s.ctx, "shared@example.com")
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *StorageSuite) TestFindParticipantsByEmailNoMatch() {
	matches, err := s.storage.FindParticipantsByEmail(s.ctx, "nobody@example.com")
	s.Require().NoError(err)
	s.Empty(matches)
}

// FindOrCreateProxy tests

func (s *StorageSuite) TestFindOrCreateProxyCreates() {
	owns := func(id *model.Identity) bool { return false }
	create := func() (*model.Identity, error) {
		return proxyFor("ref-alice", "anon-00000001"), nil
	}

	proxy, err := s.storage.FindOrCreateProxy(s.ctx, owns, create)
	s.Require().NoError(err)
	s.Equal(model.PublicID("anon-00000001"), proxy.PublicID)

	got, err := s.storage.GetIdentity(s.ctx, "anon-00000001")
	s.Require().NoError(err)
	s.True(got.IsProxy())
}

func (s *StorageSuite) TestFindOrCreateProxyFindsExisting() {
	existing := proxyFor("ref-alice", "anon-00000001")
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, existing))

	owns := func(id *model.Identity) bool {
		return id.Link != nil && id.Link.Digest == "digest-ref-alice"
	}
	create := func() (*model.Identity, error) {
		s.Fail("create should not be called when a proxy exists")
		return nil, nil
	}

	proxy, err := s.storage.FindOrCreateProxy(s.ctx, owns, create)
	s.Require().NoError(err)
	s.Equal(existing.PublicID, proxy.PublicID)
}

func (s *StorageSuite) TestFindOrCreateProxyRetriesOnIDCollision() {
	taken := proxyFor("ref-bob", "anon-00000001")
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, taken))

	calls := 0
	owns := func(id *model.Identity) bool { return false }
	create := func() (*model.Identity, error) {
		calls++
		if calls == 1 {
			return proxyFor("ref-alice", "anon-00000001"), nil
		}
		return proxyFor("ref-alice", "anon-00000002"), nil
	}

	proxy, err := s.storage.FindOrCreateProxy(s.ctx, owns, create)
	s.Require().NoError(err)
	s.Equal(model.PublicID("anon-00000002"), proxy.PublicID)
	s.Equal(2, calls)
}

func (s *StorageSuite) TestConcurrentFindOrCreateProxySingleRecord() {
	const attempts = 10
	owns := func(id *model.Identity) bool {
		return id.Link != nil && id.Link.Digest == "digest-ref-alice"
	}

	var wg sync.WaitGroup
	results := make([]*model.Identity, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			create := func() (*model.Identity, error) {
				return proxyFor("ref-alice", fmt.Sprintf("anon-%08d", i)), nil
			}
			proxy, err := s.storage.FindOrCreateProxy(s.ctx, owns, create)
			s.NoError(err)
			results[i] = proxy
		}(i)
	}
	wg.Wait()

	first := results[0]
	s.Require().NotNil(first)
	for _, proxy := range results {
		s.Equal(first.PublicID, proxy.PublicID)
	}
}
