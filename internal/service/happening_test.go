package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
)

func setupTestHappeningService() (*HappeningService, *mockHappeningRepo, *mockRegistrationRepo, *mockNotifier) {
	happenings := newMockHappeningRepo()
	regs := newMockRegistrationRepo(happenings)
	notifier := &mockNotifier{}
	svc := NewHappeningService(happenings, regs, notifier, PredictableToken, zap.NewNop())
	return svc, happenings, regs, notifier
}

func happeningRequest() model.HappeningRequest {
	opens := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	group := "Webkom"
	return model.HappeningRequest{
		Slug:             "bedpres-med-bekk",
		Title:            "Bedpres med Bekk",
		RegistrationDate: opens,
		HappeningDate:    opens.Add(7 * 24 * time.Hour),
		SpotRanges:       []model.SpotRange{{Spots: 20, MinDegreeYear: 1, MaxDegreeYear: 5}},
		Type:             model.Bedpres,
		OrganizerEmail:   "Bedkom@echo.uib.no",
		StudentGroupName: &group,
	}
}

func TestHappeningService_Upsert_CreatedThenUnchanged(t *testing.T) {
	svc, happenings, _, notifier := setupTestHappeningService()
	ctx := context.Background()

	first, err := svc.Upsert(ctx, happeningRequest())
	require.NoError(t, err)
	assert.Equal(t, model.Created, first.Status)
	assert.Equal(t, "bedpres submitted with slug = bedpres-med-bekk.", first.Message)

	stored := happenings.happenings["bedpres-med-bekk"]
	assert.Len(t, stored.RegVerifyToken, TokenLength)
	assert.Equal(t, "bedkom@echo.uib.no", stored.OrganizerEmail)
	assert.Equal(t, []string{"bedpres-med-bekk"}, notifier.links)

	second, err := svc.Upsert(ctx, happeningRequest())
	require.NoError(t, err)
	assert.Equal(t, model.Unchanged, second.Status)
	assert.Contains(t, second.Message, "has already been submitted")
	assert.Equal(t, stored, happenings.happenings["bedpres-med-bekk"])
	assert.Len(t, notifier.links, 1, "replaying a definition has no side effects")
}

func TestHappeningService_Upsert_Updated(t *testing.T) {
	svc, happenings, _, notifier := setupTestHappeningService()
	ctx := context.Background()

	_, err := svc.Upsert(ctx, happeningRequest())
	require.NoError(t, err)
	token := happenings.happenings["bedpres-med-bekk"].RegVerifyToken

	req := happeningRequest()
	req.SpotRanges = []model.SpotRange{
		{Spots: 10, MinDegreeYear: 1, MaxDegreeYear: 3},
		{Spots: 10, MinDegreeYear: 4, MaxDegreeYear: 5},
	}
	result, err := svc.Upsert(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.Updated, result.Status)
	assert.Contains(t, result.Message, "Updated BEDPRES with slug = bedpres-med-bekk")
	assert.Equal(t, token, happenings.happenings["bedpres-med-bekk"].RegVerifyToken)
	assert.Len(t, notifier.links, 1)
}

func TestHappeningService_Upsert_CaseInsensitiveOrganizer(t *testing.T) {
	svc, _, _, _ := setupTestHappeningService()
	ctx := context.Background()

	_, err := svc.Upsert(ctx, happeningRequest())
	require.NoError(t, err)

	req := happeningRequest()
	req.OrganizerEmail = "BEDKOM@ECHO.UIB.NO"
	group := "WEBKOM"
	req.StudentGroupName = &group
	result, err := svc.Upsert(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.Unchanged, result.Status)
}

func TestHappeningService_Upsert_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.HappeningRequest)
		code   string
	}{
		{"no spot ranges", func(r *model.HappeningRequest) { r.SpotRanges = nil }, model.CodeNoSpotRanges},
		{"missing title", func(r *model.HappeningRequest) { r.Title = "" }, model.CodeInvalidHappening},
		{"negative spots", func(r *model.HappeningRequest) { r.SpotRanges[0].Spots = -1 }, model.CodeInvalidHappening},
		{"inverted range", func(r *model.HappeningRequest) {
			r.SpotRanges[0].MinDegreeYear, r.SpotRanges[0].MaxDegreeYear = 4, 2
		}, model.CodeInvalidHappening},
		{"happening before registration", func(r *model.HappeningRequest) {
			r.HappeningDate = r.RegistrationDate.Add(-time.Hour)
		}, model.CodeInvalidHappening},
		{"not a slug", func(r *model.HappeningRequest) { r.Slug = "Bedpres med Bekk" }, model.CodeInvalidHappening},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, happenings, _, _ := setupTestHappeningService()
			req := happeningRequest()
			tt.mutate(&req)

			_, err := svc.Upsert(context.Background(), req)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.code, verr.Code)
			assert.Zero(t, happenings.upserts, "nothing is written")
		})
	}
}

func TestHappeningService_Upsert_StoreError(t *testing.T) {
	svc, happenings, _, notifier := setupTestHappeningService()
	happenings.err = errors.New("connection reset")

	_, err := svc.Upsert(context.Background(), happeningRequest())
	require.Error(t, err)
	assert.Empty(t, notifier.links)
}

func TestHappeningService_Upsert_NotifierFailureIsSwallowed(t *testing.T) {
	svc, _, _, notifier := setupTestHappeningService()
	notifier.err = errors.New("queue full")

	result, err := svc.Upsert(context.Background(), happeningRequest())
	require.NoError(t, err)
	assert.Equal(t, model.Created, result.Status)
}

func TestHappeningService_DeleteAndInfo(t *testing.T) {
	svc, _, _, _ := setupTestHappeningService()
	ctx := context.Background()

	_, err := svc.Upsert(ctx, happeningRequest())
	require.NoError(t, err)

	info, err := svc.Info(ctx, "bedpres-med-bekk")
	require.NoError(t, err)
	require.Len(t, info.SpotRanges, 1)
	assert.Equal(t, 20, info.SpotRanges[0].Spots)
	assert.Len(t, info.RegVerifyToken, TokenLength)

	deleted, err := svc.Delete(ctx, "bedpres-med-bekk")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, "bedpres-med-bekk")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Info(ctx, "bedpres-med-bekk")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTokens(t *testing.T) {
	random, err := RandomToken("ignored")
	require.NoError(t, err)
	assert.Len(t, random, TokenLength)
	assert.Regexp(t, `^[0-9A-Za-z]+$`, random)

	other, err := RandomToken("ignored")
	require.NoError(t, err)
	assert.NotEqual(t, random, other)

	dev, err := PredictableToken("foo")
	require.NoError(t, err)
	assert.Len(t, dev, TokenLength)
	again, _ := PredictableToken("foo")
	assert.Equal(t, dev, again)
	assert.Equal(t, "foo-xx", dev[:6])
}

func TestPredictableTokenIsInjective(t *testing.T) {
	slugs := []string{"ab", "abab", "ab-", "ab-x", "a", strings.Repeat("ab", 64), strings.Repeat("ab", 70)}
	seen := make(map[string]string, len(slugs))
	for _, s := range slugs {
		token, err := PredictableToken(s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(token), TokenLength, s)
		if prev, ok := seen[token]; ok {
			t.Fatalf("slugs %q and %q share a token", prev, s)
		}
		seen[token] = s
	}
}
