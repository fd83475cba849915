package response_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	. "github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/storage/database/inmem"
)

// clock returns a NowFunc ticking one minute on every call.
func clock(t *testing.T) {
	now := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	core.NowFunc = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	t.Cleanup(func() { core.NowFunc = func() time.Time { return time.Now().UTC() } })
}

func setup(t *testing.T) (*Service, Repository, form.Form) {
	clock(t)
	db := inmemdb.Open()
	formRepo := inmemdb.NewFormRepository(db)
	respRepo := inmemdb.NewResponseRepository(db)

	f := form.New(form.NewForm{
		Title:          "F1",
		AcademicYearID: "2024-2025",
		Fields: []form.Field{
			{ID: "Q1", Type: form.TypeRadio, Required: true, Options: []string{"Sí", "No"}},
			{ID: "Q2", Type: form.TypeText},
		},
	}, core.NowFunc())
	require.NoError(t, formRepo.CreateForms(context.Background(), f))

	return NewService(respRepo, formRepo), respRepo, f
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("at most one response per user and form", func(t *testing.T) {
		svc, repo, f := setup(t)

		first, err := svc.Save(ctx, "u1", f.ID, map[string]form.Value{"Q1": form.Choice("Sí")}, true)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, first.Status)
		assert.Equal(t, f.AcademicYearID, first.AcademicYearID)
		assert.Equal(t, first.CreatedAt, first.ResponseTimestamp)
		assert.Nil(t, first.SubmissionTimestamp)

		for i := 0; i < 3; i++ {
			r, err := svc.Save(ctx, "u1", f.ID, map[string]form.Value{"Q2": form.Text("x")}, i%2 == 0)
			require.NoError(t, err)
			assert.Equal(t, first.ID, r.ID)
			assert.Equal(t, first.CreatedAt, r.CreatedAt)
			assert.Equal(t, first.ResponseTimestamp, r.ResponseTimestamp)
			assert.True(t, r.LastModifiedTimestamp.After(first.LastModifiedTimestamp))

			all, err := repo.QueryResponses(ctx, f.ID, nil)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		}

		// full replace, no merge
		r, ok, err := svc.GetByUserAndForm(ctx, "u1", f.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, map[string]form.Value{"Q2": form.Text("x")}, r.Values)
	})

	t.Run("submission timestamp is never cleared", func(t *testing.T) {
		svc, _, f := setup(t)
		values := map[string]form.Value{"Q1": form.Choice("No")}

		submitted, err := svc.Save(ctx, "u1", f.ID, values, false)
		require.NoError(t, err)
		assert.Equal(t, StatusSubmitted, submitted.Status)
		require.NotNil(t, submitted.SubmissionTimestamp)
		assert.Equal(t, submitted.CreatedAt, *submitted.SubmissionTimestamp)

		draft, err := svc.Save(ctx, "u1", f.ID, values, true)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, draft.Status)
		require.NotNil(t, draft.SubmissionTimestamp)
		assert.Equal(t, *submitted.SubmissionTimestamp, *draft.SubmissionTimestamp)

		resubmitted, err := svc.Save(ctx, "u1", f.ID, values, false)
		require.NoError(t, err)
		require.NotNil(t, resubmitted.SubmissionTimestamp)
		assert.True(t, resubmitted.SubmissionTimestamp.After(*submitted.SubmissionTimestamp))
	})

	t.Run("responses of different users are kept apart", func(t *testing.T) {
		svc, _, f := setup(t)
		r1, err := svc.Save(ctx, "u1", f.ID, nil, true)
		require.NoError(t, err)
		r2, err := svc.Save(ctx, "u2", f.ID, nil, true)
		require.NoError(t, err)
		assert.NotEqual(t, r1.ID, r2.ID)
		assert.NotNil(t, r1.Values)
	})

	t.Run("values are checked against the form", func(t *testing.T) {
		svc, _, f := setup(t)
		_, err := svc.Save(ctx, "u1", f.ID, map[string]form.Value{"Q1": form.Choice("Quizá")}, true)
		assert.True(t, core.IsValidationError(err))

		_, err = svc.Save(ctx, "u1", f.ID, map[string]form.Value{"lol": form.Text("x")}, true)
		assert.True(t, core.IsValidationError(err))

		_, ok, err := svc.GetByUserAndForm(ctx, "u1", f.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown form", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Save(ctx, "u1", "lol", nil, true)
		assert.Equal(t, form.ErrNotFound, err)
	})
}

func TestService_ListByForm(t *testing.T) {
	ctx := context.Background()
	svc, _, f := setup(t)

	for _, uid := range []string{"u2", "u3", "u1"} {
		_, err := svc.Save(ctx, uid, f.ID, nil, uid == "u3")
		require.NoError(t, err)
	}

	userIDs := func(rs []Response) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.UserID)
		}
		return out
	}

	rs, err := svc.ListByForm(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3", "u1"}, userIDs(rs), "insertion order")

	rs, err = svc.ListByForm(ctx, f.ID, core.DBOrdering{Field: OrderByUserID, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, userIDs(rs))

	rs, err = svc.ListByForm(ctx, f.ID, core.DBOrdering{Field: OrderByStatus}, core.DBOrdering{Field: OrderByCreatedAt, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u1", "u3"}, userIDs(rs))

	rs, err = svc.ListByForm(ctx, "lol")
	require.NoError(t, err)
	assert.Empty(t, rs)

	_, err = svc.ListByForm(ctx, f.ID, core.DBOrdering{Field: "password"})
	assert.True(t, core.IsValidationError(err))
}
