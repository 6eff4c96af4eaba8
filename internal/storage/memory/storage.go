package memory

import (
	"context"
	"sync"

	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage"
)

// Storage is an in-memory implementation of the store interface
type Storage struct {
	mu sync.RWMutex

	// identities is keyed by public id, so duplicate public ids are
	// structurally impossible in this backend
	identities map[model.PublicID]*model.Identity
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities: make(map[model.PublicID]*model.Identity),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) CreateIdentity(ctx context.Context, id *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.identities[id.PublicID]; exists {
		return model.ErrDuplicateID
	}

	cp := *id
	s.identities[id.PublicID] = &cp
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, publicID model.PublicID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.identities[publicID]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	cp := *id
	return &cp, nil
}

func (s *Storage) SaveIdentity(ctx context.Context, id *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[id.PublicID]; !ok {
		return model.ErrIdentityNotFound
	}
	cp := *id
	s.identities[id.PublicID] = &cp
	return nil
}

func (s *Storage) FindParticipantsByEmail(ctx context.Context, email string) ([]*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*model.Identity
	for _, id := range s.identities {
		if id.Kind == model.KindParticipant && id.Profile.Email == email {
			cp := *id
			matches = append(matches, &cp)
		}
	}
	return matches, nil
}

func (s *Storage) FindOrCreateProxy(ctx context.Context, owns func(*model.Identity) bool, create func() (*model.Identity, error)) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.identities {
		if id.Kind == model.KindAnonymousProxy && owns(id) {
			cp := *id
			return &cp, nil
		}
	}

	// No existing proxy for this owner; create one, regenerating the
	// candidate whenever its public id is already taken
	for {
		proxy, err := create()
		if err != nil {
			return nil, err
		}
		if _, taken := s.identities[proxy.PublicID]; taken {
			continue
		}
		cp := *proxy
		s.identities[proxy.PublicID] = &cp
		result := cp
		return &result, nil
	}
}
