package services

import (
	"context"
	"fmt"
	"testing"

	"caketime/entity"
	"caketime/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, env *testEnv, n int) []*entity.User {
	t.Helper()
	users := make([]*entity.User, 0, n)
	for i := 0; i < n; i++ {
		u := &entity.User{
			Name:     fmt.Sprintf("Customer %d", i),
			Email:    fmt.Sprintf("customer%d@example.com", i),
			Password: "hash",
			Role:     entity.RoleCustomer,
		}
		require.NoError(t, env.db.Create(u).Error)
		users = append(users, u)
	}
	return users
}

func productRating(t *testing.T, env *testEnv, id uint) (decimal.Decimal, int64) {
	t.Helper()
	var p entity.Product
	require.NoError(t, env.db.First(&p, id).Error)
	return p.Rating, p.ReviewCount
}

func TestReviews_RatingFollowsApprovedReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Rasmalai Cake", "800", true)
	users := seedUsers(t, env, 3)

	var ids []uint
	for i, rating := range []int{5, 4, 1} {
		rev, err := env.reviews.Create(ctx, users[i].ID, ReviewInput{ProductID: p.ID, Rating: rating, Comment: " lovely "})
		require.NoError(t, err)
		assert.False(t, rev.Approved)
		assert.Equal(t, "lovely", rev.Comment)
		ids = append(ids, rev.ID)
	}

	rating, count := productRating(t, env, p.ID)
	assert.True(t, rating.IsZero(), "pending reviews do not count")
	assert.Zero(t, count)

	_, err := env.reviews.Approve(ctx, ids[0])
	require.NoError(t, err)
	_, err = env.reviews.Approve(ctx, ids[1])
	require.NoError(t, err)

	rating, count = productRating(t, env, p.ID)
	assert.True(t, rating.Equal(decimal.RequireFromString("4.5")), "rating %s", rating)
	assert.EqualValues(t, 2, count)

	// deleting a pending review leaves the aggregate alone
	require.NoError(t, env.reviews.Delete(ctx, ids[2]))
	rating, count = productRating(t, env, p.ID)
	assert.True(t, rating.Equal(decimal.RequireFromString("4.5")))
	assert.EqualValues(t, 2, count)

	require.NoError(t, env.reviews.Delete(ctx, ids[0]))
	rating, count = productRating(t, env, p.ID)
	assert.True(t, rating.Equal(decimal.NewFromInt(4)), "rating %s", rating)
	assert.EqualValues(t, 1, count)

	require.NoError(t, env.reviews.Delete(ctx, ids[1]))
	rating, count = productRating(t, env, p.ID)
	assert.True(t, rating.IsZero())
	assert.Zero(t, count)

	assert.ErrorIs(t, env.reviews.Delete(ctx, ids[1]), ErrNotFound)
}

func TestReviews_OnePerUserAndProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Tiramisu", "350", true)
	u := seedUsers(t, env, 1)[0]

	_, err := env.reviews.Create(ctx, u.ID, ReviewInput{ProductID: p.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	_, err = env.reviews.Create(ctx, u.ID, ReviewInput{ProductID: p.ID, Rating: 1, Comment: "changed my mind"})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = env.reviews.Create(ctx, u.ID, ReviewInput{ProductID: 9999, Rating: 3, Comment: "?"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviews_ForProductShowsApprovedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, env.db, "Opera Cake", "900", true)
	users := seedUsers(t, env, 2)

	approved, err := env.reviews.Create(ctx, users[0].ID, ReviewInput{ProductID: p.ID, Rating: 4, Comment: "rich"})
	require.NoError(t, err)
	_, err = env.reviews.Create(ctx, users[1].ID, ReviewInput{ProductID: p.ID, Rating: 2, Comment: "too sweet"})
	require.NoError(t, err)
	_, err = env.reviews.Approve(ctx, approved.ID)
	require.NoError(t, err)

	got, err := env.reviews.ForProduct(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, approved.ID, got.Reviews[0].ID)
	assert.EqualValues(t, 1, got.Count)

	pending := false
	page, err := env.reviews.ListAll(ctx, &pending, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, "too sweet", page.Items[0].Comment)
}
