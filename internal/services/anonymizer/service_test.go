package anonymizer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pmorrell/surveyid/internal/dependencies/mocks"
	"github.com/pmorrell/surveyid/internal/dependencies/random"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage/memory"
	"github.com/pmorrell/surveyid/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	clk := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, random.New(), clk, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) newParticipant(userid string) *model.Identity {
	id := &model.Identity{
		Ref:      model.Ref("ref-" + userid),
		PublicID: model.PublicID(userid),
		Kind:     model.KindParticipant,
	}
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, id))
	return id
}

func (s *ServiceSuite) TestGetOrCreateProxyCreates() {
	alice := s.newParticipant("alice")

	proxy, err := s.service.GetOrCreateProxy(s.ctx, alice)
	s.Require().NoError(err)

	s.True(proxy.IsProxy())
	s.True(strings.HasPrefix(string(proxy.PublicID), ProxyPrefix))
	s.Require().NotNil(proxy.Link)
	s.NotEmpty(proxy.Link.Salt)
	s.NotEmpty(proxy.Link.Digest)
}

func (s *ServiceSuite) TestGetOrCreateProxyIdempotent() {
	alice := s.newParticipant("alice")

	first, err := s.service.GetOrCreateProxy(s.ctx, alice)
	s.Require().NoError(err)
	second, err := s.service.GetOrCreateProxy(s.ctx, alice)
	s.Require().NoError(err)

	s.Equal(first.PublicID, second.PublicID)
	s.Equal(first.Ref, second.Ref)
}

func (s *ServiceSuite) TestDistinctParticipantsGetDistinctProxies() {
	alice := s.newParticipant("alice")
	bob := s.newParticipant("bob")

	aliceProxy, err := s.service.GetOrCreateProxy(s.ctx, alice)
	s.Require().NoError(err)
	bobProxy, err := s.service.GetOrCreateProxy(s.ctx, bob)
	s.Require().NoError(err)

	s.NotEqual(aliceProxy.PublicID, bobProxy.PublicID)
}

func (s *ServiceSuite) TestVerifyOwner() {
	alice := s.newParticipant("alice")
	bob := s.newParticipant("bob")

	proxy, err := s.service.GetOrCreateProxy(s.ctx, alice)
	s.Require().NoError(err)

	s.True(s.service.VerifyOwner(proxy, alice))
	s.False(s.service.VerifyOwner(proxy, bob))
}

func (s *ServiceSuite) TestVerifyOwnerRejectsNonProxy() {
	alice := s.newParticipant("alice")
	bob := s.newParticipant("bob")

	s.False(s.service.VerifyOwner(bob, alice))
	s.False(s.service.VerifyOwner(nil, alice))
}

func (s *ServiceSuite) TestProxyForProxyFails() {
	alice := s.newParticipant("alice")

	proxy, err := s.service.GetOrCreateProxy(s.ctx, alice)
	s.Require().NoError(err)

	_, err = s.service.GetOrCreateProxy(s.ctx, proxy)
	s.ErrorIs(err, model.ErrProxyForProxy)
}

func (s *ServiceSuite) TestProxyRecordCarriesNoOwnerFields() {
	alice := s.newParticipant("alice")
	alice.Profile.Email = "alice@example.com"
	s.Require().NoError(s.storage.SaveIdentity(s.ctx, alice))

	proxy, err := s.service.GetOrCreateProxy(s.ctx, alice)
	s.Require().NoError(err)

	s.Empty(proxy.Profile.Email)
	s.Empty(proxy.PasswordHash)
	s.Empty(proxy.AccessToken)
	s.NotContains(proxy.Link.Digest, string(alice.Ref))
}
