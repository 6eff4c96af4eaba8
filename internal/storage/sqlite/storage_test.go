package sqlite

import (
	"context"
	"path/filepath"
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
	path := filepath.Join(s.T().TempDir(), "identities.db")
	storage, err := Open(path)
	s.Require().NoError(err)
	s.storage = storage
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func participant(userid, email string) *model.Identity {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Identity{
		Ref:      model.Ref("ref-" + userid),
		PublicID: model.PublicID(userid),
		Kind:     model.KindParticipant,
		Profile: model.Profile{
			FirstName: "Test",
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

	dup := participant("alice", "")
	dup.Ref = "ref-other"
	err := s.storage.CreateIdentity(s.ctx, dup)
	s.ErrorIs(err, model.ErrDuplicateID)
}

func (s *StorageSuite) TestGetUnknownIdentityFails() {
	_, err := s.storage.GetIdentity(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *StorageSuite) TestSaveIdentityUpdates() {
	id := participant("alice", "old@example.com")
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, id))

	id.Profile.Email = "new@example.com"
	id.UpdatedAt = id.UpdatedAt.Add(time.Hour)
	s.Require().NoError(s.storage.SaveIdentity(s.ctx, id))

	got, err := s.storage.GetIdentity(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("new@example.com", got.Profile.Email)
}

func (s *StorageSuite) TestSaveUnknownIdentityFails() {
	err := s.storage.SaveIdentity(s.ctx, participant("ghost", ""))
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *StorageSuite) TestSaveKeepsEmailColumnInSync() {
	id := participant("alice", "old@example.com")
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, id))

	id.Profile.Email = "new@example.com"
	s.Require().NoError(s.storage.SaveIdentity(s.ctx, id))

	matches, err := s.storage.FindParticipantsByEmail(s.ctx, "new@example.com")
	s.Require().NoError(err)
	s.Len(matches, 1)

	stale, err := s.storage.FindParticipantsByEmail(s.ctx, "old@example.com")
	s.Require().NoError(err)
	s.Empty(stale)
}

func (s *StorageSuite) TestFindParticipantsByEmail() {
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("alice", "shared@example.com")))
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("bob", "shared@example.com")))
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, participant("carol", "other@example.com")))

	matches, err := s.storage.FindParticipantsByEmail(s.ctx, "shared@example.com")
	s.Require().NoError(err)
	s.Len(matches, 2)
}

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
	owns := func(id *model.Identity) bool {
		return id.Link != nil && id.Link.Digest == "digest-ref-alice"
	}
	first, err := s.storage.FindOrCreateProxy(s.ctx, owns, func() (*model.Identity, error) {
		return proxyFor("ref-alice", "anon-00000001"), nil
	})
	s.Require().NoError(err)

	second, err := s.storage.FindOrCreateProxy(s.ctx, owns, func() (*model.Identity, error) {
		s.Fail("create should not be called when a proxy exists")
		return nil, nil
	})
	s.Require().NoError(err)
	s.Equal(first.PublicID, second.PublicID)
}

func (s *StorageSuite) TestFindOrCreateProxyRetriesOnIDCollision() {
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, proxyFor("ref-bob", "anon-00000001")))

	calls := 0
	owns := func(id *model.Identity) bool { return false }
	create := func() (*model.Identity, error) {
		calls++
		if calls == 1 {
			clash := proxyFor("ref-alice", "anon-00000001")
			clash.Ref = "ref-fresh"
			return clash, nil
		}
		return proxyFor("ref-alice", "anon-00000002"), nil
	}

	proxy, err := s.storage.FindOrCreateProxy(s.ctx, owns, create)
	s.Require().NoError(err)
	s.Equal(model.PublicID("anon-00000002"), proxy.PublicID)
	s.Equal(2, calls)
}

func (s *StorageSuite) TestReopenKeepsData() {
	path := filepath.Join(s.T().TempDir(), "persist.db")
	first, err := Open(path)
	s.Require().NoError(err)
	s.Require().NoError(first.CreateIdentity(s.ctx, participant("alice", "")))
	s.Require().NoError(first.Close())

	second, err := Open(path)
	s.Require().NoError(err)
	defer func() { _ = second.Close() }()

	got, err := second.GetIdentity(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PublicID("alice"), got.PublicID)
}
