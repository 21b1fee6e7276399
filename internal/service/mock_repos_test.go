package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
)

// ── Mock HappeningStore ──

type mockHappeningRepo struct {
	happenings map[string]model.Happening
	upserts    int
	err        error
}

func newMockHappeningRepo() *mockHappeningRepo {
	return &mockHappeningRepo{happenings: make(map[string]model.Happening)}
}

func (m *mockHappeningRepo) Get(_ context.Context, slug string) (*model.Happening, error) {
	if h, ok := m.happenings[slug]; ok {
		return &h, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockHappeningRepo) GetByToken(_ context.Context, token string) (*model.Happening, error) {
	for _, h := range m.happenings {
		if h.RegVerifyToken == token {
			return &h, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockHappeningRepo) Upsert(_ context.Context, h model.Happening) (model.UpsertStatus, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.upserts++
	existing, ok := m.happenings[h.Slug]
	if !ok {
		m.happenings[h.Slug] = h
		return model.Created, nil
	}
	if model.SameDefinition(existing, h) {
		return model.Unchanged, nil
	}
	h.RegVerifyToken = existing.RegVerifyToken
	h.Type = existing.Type
	m.happenings[h.Slug] = h
	return model.Updated, nil
}

func (m *mockHappeningRepo) Delete(_ context.Context, slug string) (bool, error) {
	_, ok := m.happenings[slug]
	delete(m.happenings, slug)
	return ok, nil
}

// ── Mock RegistrationStore ──

// mockRegistrationRepo mirrors the admission rules of the Postgres store
// behind a mutex.
type mockRegistrationRepo struct {
	mu         sync.Mutex
	happenings *mockHappeningRepo
	regs       []model.Registration
	lastNow    time.Time
	err        error
}

func newMockRegistrationRepo(happenings *mockHappeningRepo) *mockRegistrationRepo {
	return &mockRegistrationRepo{happenings: happenings}
}

func (m *mockRegistrationRepo) Register(_ context.Context, reg model.Registration, now time.Time) (model.RegistrationOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNow = now
	if m.err != nil {
		return model.RegistrationOutcome{}, m.err
	}

	h, ok := m.happenings.happenings[reg.Slug]
	if !ok {
		return model.RegistrationOutcome{Status: model.StatusHappeningDoesntExist}, nil
	}
	if now.Before(h.RegistrationDate) {
		return model.RegistrationOutcome{Status: model.StatusTooEarly, OpensAt: h.RegistrationDate}, nil
	}
	for _, r := range m.regs {
		if r.Slug == reg.Slug && r.Email == reg.Email {
			return model.RegistrationOutcome{Status: model.StatusAlreadyExists}, nil
		}
	}
	rng, ok := model.MatchRange(h.SpotRanges, reg.DegreeYear)
	if !ok {
		return model.RegistrationOutcome{Status: model.StatusNotInRange, SpotRanges: h.SpotRanges}, nil
	}
	count := 0
	for _, r := range m.regs {
		if r.Slug == reg.Slug && rng.Contains(r.DegreeYear) {
			count++
		}
	}
	waitList, position := model.Admit(count, rng)
	reg.WaitList = waitList
	m.regs = append(m.regs, reg)
	if waitList {
		return model.RegistrationOutcome{Status: model.StatusWaitList, WaitListSpot: position, Happening: &h}, nil
	}
	return model.RegistrationOutcome{Status: model.StatusAccepted, Happening: &h}, nil
}

func (m *mockRegistrationRepo) CountByRange(_ context.Context, slug string) ([]model.SpotRangeCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := []model.SpotRangeCount{}
	h, ok := m.happenings.happenings[slug]
	if !ok {
		return counts, nil
	}
	for _, rng := range h.SpotRanges {
		c := model.SpotRangeCount{SpotRange: rng}
		for _, r := range m.regs {
			if r.Slug != slug || !rng.Contains(r.DegreeYear) {
				continue
			}
			if r.WaitList {
				c.WaitListCount++
			} else {
				c.RegCount++
			}
		}
		counts = append(counts, c)
	}
	return counts, nil
}

func (m *mockRegistrationRepo) ListBySlug(_ context.Context, slug string) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Registration
	for _, r := range m.regs {
		if r.Slug == slug {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRegistrationRepo) Delete(_ context.Context, slug, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.regs {
		if r.Slug == slug && r.Email == email {
			m.regs = append(m.regs[:i], m.regs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ── Mock Notifier ──

type confirmation struct {
	Slug         string
	Email        string
	WaitListSpot int
}

type mockNotifier struct {
	mu            sync.Mutex
	confirmations []confirmation
	links         []string
	err           error
}

func (m *mockNotifier) RegistrationConfirmed(ctx context.Context, h model.Happening, reg model.Registration, waitListSpot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		return errors.New("notifier received a cancelled context")
	}
	m.confirmations = append(m.confirmations, confirmation{Slug: h.Slug, Email: reg.Email, WaitListSpot: waitListSpot})
	return m.err
}

func (m *mockNotifier) RegistrationsLink(_ context.Context, h model.Happening) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, h.Slug)
	return m.err
}
