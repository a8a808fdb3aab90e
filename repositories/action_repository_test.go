package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mkryuchkov/socnet/models"
	"github.com/mkryuchkov/socnet/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.PostAction{}))
	return db
}

func newTestCache(t *testing.T) (repositories.ActionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := repositories.NewActionCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NotNil(t, cache)
	return cache, mr
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, body string) *models.Post {
	t.Helper()
	post := &models.Post{Body: body, AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestAddDuplicateReaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repositories.NewActionRepository(db, nil)

	author := createUser(t, db, "author")
	rater := createUser(t, db, "rater")
	post := createPost(t, db, author, "first post")

	act := models.PostAction{UserID: rater.ID, PostID: post.ID, Action: models.ActionLike}
	require.NoError(t, repo.Add(ctx, act))

	err := repo.Add(ctx, act)
	require.ErrorIs(t, err, repositories.ErrIntegrity)
}

func TestAddUnknownForeignKey(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repositories.NewActionRepository(db, nil)

	err := repo.Add(ctx, models.PostAction{
		UserID: uuid.NewString(),
		PostID: uuid.NewString(),
		Action: models.ActionLike,
	})
	require.ErrorIs(t, err, repositories.ErrIntegrity)
}

func TestUnreachableRedisDisablesCache(t *testing.T) {
	ctx := context.Background()

	// grab an address, then stop the server so the construction ping fails
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cache := repositories.NewActionCache(redis.NewClient(&redis.Options{Addr: addr}))
	require.Nil(t, cache)

	db := newTestDB(t)
	repo := repositories.NewActionRepository(db, cache)

	author := createUser(t, db, "author")
	rater := createUser(t, db, "rater")
	post := createPost(t, db, author, "offline cache post")

	act := models.PostAction{UserID: rater.ID, PostID: post.ID, Action: models.ActionLike}
	require.NoError(t, repo.Add(ctx, act))

	acts, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, acts, 1)

	require.NoError(t, repo.Delete(ctx, act))
	acts, err = repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Empty(t, acts)
}

func TestListByPostFillsCachePerKind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cache, mr := newTestCache(t)
	repo := repositories.NewActionRepository(db, cache)

	author := createUser(t, db, "author")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, author, "cached post")

	require.NoError(t, repo.Add(ctx, models.PostAction{UserID: alice.ID, PostID: post.ID, Action: models.ActionLike}))
	require.NoError(t, repo.Add(ctx, models.PostAction{UserID: bob.ID, PostID: post.ID, Action: models.ActionDislike}))

	// Drop one key to force a per-kind store fallback
	mr.Del("actions:" + post.ID + ":LIKE")

	acts, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, acts, 2)

	// The fallback must have repopulated the missing kind
	require.True(t, mr.Exists("actions:"+post.ID+":LIKE"))
	require.True(t, mr.Exists("actions:"+post.ID+":DISLIKE"))
}

func TestListByPostCacheEquivalence(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	cached := repositories.NewActionRepository(db, cache)
	storeOnly := repositories.NewActionRepository(db, nil)

	author := createUser(t, db, "author")
	post := createPost(t, db, author, "equivalence post")
	for i := 0; i < 4; i++ {
		rater := createUser(t, db, fmt.Sprintf("rater-%d", i))
		kind := models.ActionLike
		if i%2 == 1 {
			kind = models.ActionDislike
		}
		require.NoError(t, cached.Add(ctx, models.PostAction{UserID: rater.ID, PostID: post.ID, Action: kind}))
	}

	fromCache, err := cached.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	fromStore, err := storeOnly.ListByPost(ctx, post.ID)
	require.NoError(t, err)

	require.ElementsMatch(t, fromStore, fromCache)
	require.Len(t, fromCache, 4)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cache, mr := newTestCache(t)
	repo := repositories.NewActionRepository(db, cache)

	author := createUser(t, db, "author")
	rater := createUser(t, db, "rater")
	post := createPost(t, db, author, "short lived like")

	act := models.PostAction{UserID: rater.ID, PostID: post.ID, Action: models.ActionLike}
	require.NoError(t, repo.Add(ctx, act))
	require.True(t, mr.Exists("actions:"+post.ID+":LIKE"))

	require.NoError(t, repo.Delete(ctx, act))
	// removing the last member drops the key entirely
	require.False(t, mr.Exists("actions:"+post.ID+":LIKE"))

	// absent row and absent member must not fail
	require.NoError(t, repo.Delete(ctx, act))
}

func TestDeleteAllForPostUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	repo := repositories.NewActionRepository(db, cache)

	author := createUser(t, db, "author")
	rater := createUser(t, db, "rater")
	other := createUser(t, db, "other")
	post := createPost(t, db, author, "soon to be cleaned")

	require.NoError(t, repo.Add(ctx, models.PostAction{UserID: rater.ID, PostID: post.ID, Action: models.ActionLike}))
	require.NoError(t, repo.Add(ctx, models.PostAction{UserID: other.ID, PostID: post.ID, Action: models.ActionDislike}))

	require.NoError(t, repo.DeleteAllForPostUser(ctx, post.ID, rater.ID))

	acts, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	require.Equal(t, other.ID, acts[0].UserID)

	// both kinds tolerated even when only one existed
	require.NoError(t, repo.DeleteAllForPostUser(ctx, post.ID, rater.ID))
}

func TestListByUserAndByPostAndKind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repositories.NewActionRepository(db, nil)

	author := createUser(t, db, "author")
	rater := createUser(t, db, "rater")
	first := createPost(t, db, author, "first")
	second := createPost(t, db, author, "second")

	require.NoError(t, repo.Add(ctx, models.PostAction{UserID: rater.ID, PostID: first.ID, Action: models.ActionLike}))
	require.NoError(t, repo.Add(ctx, models.PostAction{UserID: rater.ID, PostID: second.ID, Action: models.ActionDislike}))

	byUser, err := repo.ListByUser(ctx, rater.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	likes, err := repo.ListByPostAndKind(ctx, first.ID, models.ActionLike)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	require.Equal(t, models.ActionLike, likes[0].Action)

	dislikes, err := repo.ListByPostAndKind(ctx, first.ID, models.ActionDislike)
	require.NoError(t, err)
	require.Empty(t, dislikes)
}
