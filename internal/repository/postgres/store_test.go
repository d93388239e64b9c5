package postgres_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/query"
	"github.com/wildtrails/tours-api/internal/repository/postgres"
	"github.com/wildtrails/tours-api/internal/testutil"
)

func buildSpec(t *testing.T, rawQuery string) *query.Spec {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	spec, err := query.Build(values)
	require.NoError(t, err)
	return spec
}

func TestStore_CRUD(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	t.Run("insert and find by id", func(t *testing.T) {
		tour := &domain.Tour{
			Name:         "The Store Test Hiker",
			Slug:         "the-store-test-hiker",
			Duration:     5,
			MaxGroupSize: 10,
			Difficulty:   domain.DifficultyEasy,
			Price:        397,
			Summary:      "exercises the store",
		}
		require.NoError(t, repos.TourStore.Insert(ctx, tour))
		require.NotEqual(t, uuid.Nil, tour.ID)

		found, err := repos.TourStore.FindByID(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, tour.Name, found.Name)
	})

	t.Run("duplicate key surfaces as sentinel", func(t *testing.T) {
		tour := testutil.NewTourBuilder().Build(t, testDB.DB)

		dup := &domain.Tour{
			Name:         tour.Name,
			Slug:         tour.Slug,
			Duration:     3,
			MaxGroupSize: 5,
			Difficulty:   domain.DifficultyEasy,
			Price:        100,
			Summary:      "same name",
		}
		err := repos.TourStore.Insert(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("missing id surfaces as sentinel", func(t *testing.T) {
		_, err := repos.TourStore.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)

		err = repos.TourStore.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		tour := testutil.NewTourBuilder().Build(t, testDB.DB)
		require.NoError(t, repos.TourStore.Delete(ctx, tour.ID))

		_, err := repos.TourStore.FindByID(ctx, tour.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStore_FindAll(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	testutil.NewTourBuilder().WithName("Cheap Easy Walk A").WithDifficulty(domain.DifficultyEasy).WithPrice(100).Build(t, testDB.DB)
	testutil.NewTourBuilder().WithName("Cheap Easy Walk B").WithDifficulty(domain.DifficultyEasy).WithPrice(200).Build(t, testDB.DB)
	testutil.NewTourBuilder().WithName("Hard Expensive Trek").WithDifficulty(domain.DifficultyDifficult).WithPrice(900).Build(t, testDB.DB)
	testutil.NewTourBuilder().WithName("A Hidden Adventure").Secret().Build(t, testDB.DB)

	t.Run("filter with operators", func(t *testing.T) {
		spec := buildSpec(t, "difficulty=easy&price[lte]=150")
		tours, err := repos.TourStore.FindAll(ctx, spec, nil)
		require.NoError(t, err)
		require.Len(t, tours, 1)
		assert.Equal(t, "Cheap Easy Walk A", tours[0].Name)
	})

	t.Run("sort chain", func(t *testing.T) {
		spec := buildSpec(t, "sort=-price")
		tours, err := repos.TourStore.FindAll(ctx, spec, map[string]any{"secret": false})
		require.NoError(t, err)
		require.Len(t, tours, 3)
		assert.Equal(t, "Hard Expensive Trek", tours[0].Name)
		assert.Equal(t, "Cheap Easy Walk A", tours[2].Name)
	})

	t.Run("scope overrides the request", func(t *testing.T) {
		// The scope pins secret=false even if the client asks otherwise.
		spec := buildSpec(t, "")
		tours, err := repos.TourStore.FindAll(ctx, spec, map[string]any{"secret": false})
		require.NoError(t, err)
		assert.Len(t, tours, 3)
		for _, tour := range tours {
			assert.False(t, tour.Secret)
		}
	})

	t.Run("pagination window", func(t *testing.T) {
		spec := buildSpec(t, "sort=price&page=2&limit=1")
		tours, err := repos.TourStore.FindAll(ctx, spec, map[string]any{"secret": false})
		require.NoError(t, err)
		require.Len(t, tours, 1)
		assert.Equal(t, "Cheap Easy Walk B", tours[0].Name)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		spec := buildSpec(t, "page=50&limit=100")
		tours, err := repos.TourStore.FindAll(ctx, spec, nil)
		require.NoError(t, err)
		assert.Empty(t, tours)
	})
}

func TestUserRepository_GetByResetToken(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	t.Run("unknown hash", func(t *testing.T) {
		_, err := repos.Users.GetByResetToken(ctx, "deadbeef", time.Now())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		expires := time.Now().Add(-time.Minute)
		require.NoError(t, repos.Users.SetColumns(ctx, user.ID, map[string]any{
			"password_reset_token":   "a1b2c3",
			"password_reset_expires": expires,
		}))
		_, err := repos.Users.GetByResetToken(ctx, "a1b2c3", time.Now())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("live token", func(t *testing.T) {
		expires := time.Now().Add(time.Minute)
		require.NoError(t, repos.Users.SetColumns(ctx, user.ID, map[string]any{
			"password_reset_token":   "a1b2c3",
			"password_reset_expires": expires,
		}))
		found, err := repos.Users.GetByResetToken(ctx, "a1b2c3", time.Now())
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})
}
