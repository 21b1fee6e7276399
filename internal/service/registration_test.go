package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
)

var opensAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestRegistrationService(ranges ...model.SpotRange) (*RegistrationService, *mockRegistrationRepo, *mockNotifier) {
	happenings := newMockHappeningRepo()
	happenings.happenings["foo"] = model.Happening{
		Slug:             "foo",
		Title:            "Foo",
		Type:             model.Event,
		RegistrationDate: opensAt,
		HappeningDate:    opensAt.Add(48 * time.Hour),
		OrganizerEmail:   "webkom@echo.uib.no",
		SpotRanges:       ranges,
		RegVerifyToken:   mustToken("foo"),
	}
	regs := newMockRegistrationRepo(happenings)
	notifier := &mockNotifier{}
	svc := NewRegistrationService(happenings, regs, notifier, zap.NewNop())
	svc.now = func() time.Time { return opensAt.Add(time.Minute) }
	return svc, regs, notifier
}

func mustToken(slug string) string {
	token, _ := PredictableToken(slug)
	return token
}

func newRegistration(email string, degree model.Degree, year int) model.Registration {
	return model.Registration{
		Email:      email,
		FirstName:  "Ola",
		LastName:   "Nordmann",
		Degree:     degree,
		DegreeYear: year,
		Slug:       "foo",
		Terms:      true,
		Type:       model.Event,
	}
}

func TestRegistrationService_Register_AcceptThenWaitList(t *testing.T) {
	svc, regs, notifier := setupTestRegistrationService(model.SpotRange{Spots: 1, MinDegreeYear: 1, MaxDegreeYear: 3})
	ctx := context.Background()

	a, err := svc.Register(ctx, newRegistration("a@echo.uib.no", model.DTEK, 2))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, a.Status)

	b, err := svc.Register(ctx, newRegistration("b@echo.uib.no", model.DTEK, 1))
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitList, b.Status)
	assert.Equal(t, 1, b.WaitListSpot)

	assert.Equal(t, []confirmation{
		{Slug: "foo", Email: "a@echo.uib.no", WaitListSpot: 0},
		{Slug: "foo", Email: "b@echo.uib.no", WaitListSpot: 1},
	}, notifier.confirmations)

	require.NoError(t, svc.Delete(ctx, model.ShortRegistration{Slug: "foo", Email: "A@echo.uib.no"}))

	counts, err := svc.Counts(ctx, "foo")
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 0, counts[0].RegCount)
	assert.Equal(t, 1, counts[0].WaitListCount)
	assert.Len(t, regs.regs, 1)
}

func TestRegistrationService_Register_ValidationShortCircuits(t *testing.T) {
	tests := []struct {
		name string
		reg  model.Registration
		code string
	}{
		{"bachelor in year four", newRegistration("x@echo.uib.no", model.DTEK, 4), model.CodeDegreeMismatchBachelor},
		{"bad email", newRegistration("not-an-email", model.DTEK, 1), model.CodeInvalidEmail},
		{"degree omitted", newRegistration("x@echo.uib.no", "", 2), model.CodeInvalidDegree},
		{"terms not accepted", func() model.Registration {
			r := newRegistration("x@echo.uib.no", model.INF, 4)
			r.Terms = false
			return r
		}(), model.CodeInvalidTerms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, regs, notifier := setupTestRegistrationService(model.SpotRange{Spots: 10, MinDegreeYear: 1, MaxDegreeYear: 5})

			_, err := svc.Register(context.Background(), tt.reg)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.code, verr.Code)
			assert.True(t, regs.lastNow.IsZero(), "store must not be reached")
			assert.Empty(t, notifier.confirmations)
		})
	}
}

func TestRegistrationService_Register_Outcomes(t *testing.T) {
	svc, _, notifier := setupTestRegistrationService(model.SpotRange{Spots: 5, MinDegreeYear: 1, MaxDegreeYear: 3})
	ctx := context.Background()

	reg := newRegistration("  Someone@Echo.uib.no ", model.DTEK, 1)
	out, err := svc.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, out.Status)

	out, err = svc.Register(ctx, newRegistration("someone@echo.uib.no", model.DTEK, 1))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAlreadyExists, out.Status)

	out, err = svc.Register(ctx, newRegistration("master@echo.uib.no", model.INF, 4))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotInRange, out.Status)
	assert.Len(t, out.SpotRanges, 1)

	missing := newRegistration("x@echo.uib.no", model.DTEK, 1)
	missing.Slug = "bar"
	out, err = svc.Register(ctx, missing)
	require.NoError(t, err)
	assert.Equal(t, model.StatusHappeningDoesntExist, out.Status)

	svc.now = func() time.Time { return opensAt.Add(-time.Second) }
	out, err = svc.Register(ctx, newRegistration("early@echo.uib.no", model.DTEK, 1))
	require.NoError(t, err)
	assert.Equal(t, model.StatusTooEarly, out.Status)
	assert.True(t, out.OpensAt.Equal(opensAt))

	assert.Len(t, notifier.confirmations, 1, "only admitted registrations are confirmed")
}

func TestRegistrationService_Register_StoreError(t *testing.T) {
	svc, regs, notifier := setupTestRegistrationService(model.SpotRange{Spots: 5, MinDegreeYear: 1, MaxDegreeYear: 5})
	regs.err = errors.New("deadlock detected")

	_, err := svc.Register(context.Background(), newRegistration("a@echo.uib.no", model.DTEK, 1))
	require.Error(t, err)
	var verr *model.ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Empty(t, notifier.confirmations)
}

func TestRegistrationService_Register_NotifierFailureKeepsOutcome(t *testing.T) {
	svc, _, notifier := setupTestRegistrationService(model.SpotRange{Spots: 5, MinDegreeYear: 1, MaxDegreeYear: 5})
	notifier.err = errors.New("sendgrid down")

	out, err := svc.Register(context.Background(), newRegistration("a@echo.uib.no", model.DTEK, 1))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, out.Status)
}

func TestRegistrationService_Register_ConfirmationOutlivesRequest(t *testing.T) {
	svc, _, notifier := setupTestRegistrationService(model.SpotRange{Spots: 5, MinDegreeYear: 1, MaxDegreeYear: 5})
	ctx, cancel := context.WithCancel(context.Background())

	// The mock store ignores the context; cancelling up front checks that
	// the notifier gets a context detached from the request.
	cancel()
	out, err := svc.Register(ctx, newRegistration("a@echo.uib.no", model.DTEK, 1))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, out.Status)
	assert.Len(t, notifier.confirmations, 1)
}

func TestRegistrationService_Register_Concurrent(t *testing.T) {
	const capacity, attempts = 3, 12
	svc, _, _ := setupTestRegistrationService(model.SpotRange{Spots: capacity, MinDegreeYear: 1, MaxDegreeYear: 5})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		seen     = make(map[int]bool)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := svc.Register(context.Background(), newRegistration(fmt.Sprintf("u%d@echo.uib.no", i), model.DTEK, 1))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if out.Status == model.StatusAccepted {
				accepted++
				return
			}
			assert.False(t, seen[out.WaitListSpot], "waitlist position handed out twice")
			seen[out.WaitListSpot] = true
		}(i)
	}
	wg.Wait()

	assert.Equal(t, capacity, accepted)
	for pos := 1; pos <= attempts-capacity; pos++ {
		assert.True(t, seen[pos], "missing waitlist position %d", pos)
	}
}

func TestRegistrationService_Listing(t *testing.T) {
	svc, _, _ := setupTestRegistrationService(model.SpotRange{Spots: 5, MinDegreeYear: 1, MaxDegreeYear: 5})
	ctx := context.Background()

	_, err := svc.Register(ctx, newRegistration("a@echo.uib.no", model.DTEK, 1))
	require.NoError(t, err)

	h, regs, err := svc.Listing(ctx, mustToken("foo"))
	require.NoError(t, err)
	assert.Equal(t, "foo", h.Slug)
	assert.Len(t, regs, 1)

	_, _, err = svc.Listing(ctx, "short")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = svc.Listing(ctx, mustToken("bar"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
