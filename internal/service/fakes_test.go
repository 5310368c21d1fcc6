package service

import (
	"context"
	"errors"
	"sync"

	"go-gin-auth-service/internal/domain"
	"go-gin-auth-service/pkg/utils"
)

// memUsers 内存版用户表，email 唯一
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	creates int

	findErr   error
	createErr error
	// 模拟 check-then-create 竞争：FindByEmail 总是查不到
	blindLookup bool
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	u.ID = utils.NewID()
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	m.creates++
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.blindLookup {
		return nil, nil
	}
	if u, ok := m.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byID, id)
	}
}

type recPublisher struct {
	mu     sync.Mutex
	events []domain.UserEvent
	err    error
}

func (p *recPublisher) UserCreated(_ context.Context, evt domain.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error)          { return "", errors.New("rng exhausted") }
func (brokenHasher) Compare(string, string) (bool, error) { return false, errors.New("bad hash") }
