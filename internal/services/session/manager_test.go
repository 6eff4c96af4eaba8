package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pmorrell/surveyid/internal/dependencies/mocks"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage/memory"
)

type ManagerSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	manager *Manager
	ctx     context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.manager = NewManager(s.storage, s.clock)
	s.ctx = context.Background()
}

func (s *ManagerSuite) addParticipant(userid string) {
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, &model.Identity{
		Ref:      model.Ref("ref-" + userid),
		PublicID: model.PublicID(userid),
		Kind:     model.KindParticipant,
	}))
}

func (s *ManagerSuite) addProxy(publicID string) {
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, &model.Identity{
		Ref:      model.Ref("ref-" + publicID),
		PublicID: model.PublicID(publicID),
		Kind:     model.KindAnonymousProxy,
		Link:     &model.ProxyLink{Salt: "salt", Digest: "digest"},
	}))
}

// roundTrip writes st onto a response and loads it back from a request
// carrying the resulting cookies
func (s *ManagerSuite) roundTrip(st *State) *State {
	rec := httptest.NewRecorder()
	s.manager.Write(rec, st)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return s.manager.Load(s.ctx, req)
}

func (s *ManagerSuite) TestRoundTripPreservesState() {
	s.addParticipant("alice")
	s.addParticipant("bob")

	st := NewState()
	st.Remember("alice", "anon-12345678")
	st.Remember("bob", "")
	st.SetActive("alice")

	loaded := s.roundTrip(st)

	s.Equal("alice", loaded.Active())
	s.Equal("anon-12345678", loaded.ActiveAnonID())
	s.True(loaded.IsKnown("bob"))
}

func (s *ManagerSuite) TestLoadWithNoCookies() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	st := s.manager.Load(s.ctx, req)

	s.Empty(st.Active())
	s.Empty(st.Known())
}

func (s *ManagerSuite) TestLoadDropsStaleEntries() {
	s.addParticipant("alice")

	st := NewState()
	st.Remember("alice", "")
	st.Remember("deleted-user", "anon-00000001")
	st.SetActive("alice")

	loaded := s.roundTrip(st)

	s.True(loaded.IsKnown("alice"))
	s.False(loaded.IsKnown("deleted-user"))
}

func (s *ManagerSuite) TestLoadDropsActiveNamingNoParticipant() {
	st := NewState()
	st.Remember("ghost", "")
	st.SetActive("ghost")

	loaded := s.roundTrip(st)

	s.Empty(loaded.Active())
}

func (s *ManagerSuite) TestLoadDropsEntriesNamingProxies() {
	s.addProxy("anon-12345678")

	st := NewState()
	st.Remember("anon-12345678", "")
	st.SetActive("anon-12345678")

	loaded := s.roundTrip(st)

	s.False(loaded.IsKnown("anon-12345678"))
	s.Empty(loaded.Active())
}

func (s *ManagerSuite) TestLoadToleratesGarbageCookie() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: KnownCookieName, Value: "not!base64!!"})
	req.AddCookie(&http.Cookie{Name: ActiveCookieName, Value: "ghost"})

	st := s.manager.Load(s.ctx, req)

	s.Empty(st.Active())
	s.Empty(st.Known())
}

func (s *ManagerSuite) TestWriteSetsSlidingExpiry() {
	rec := httptest.NewRecorder()
	s.manager.Write(rec, NewState())

	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 2)
	for _, c := range cookies {
		s.True(c.HttpOnly)
		s.Equal(s.clock.Now().Add(CookieTTL).Unix(), c.Expires.Unix())
	}
}

func (s *ManagerSuite) TestWriteRefreshesExpiryOnLaterRequests() {
	rec := httptest.NewRecorder()
	s.manager.Write(rec, NewState())
	first := rec.Result().Cookies()[0].Expires

	s.clock.Advance(48 * time.Hour)

	rec = httptest.NewRecorder()
	s.manager.Write(rec, NewState())
	second := rec.Result().Cookies()[0].Expires

	s.Equal(48*time.Hour, second.Sub(first))
}
