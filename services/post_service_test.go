package services_test

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
	"github.com/mkryuchkov/socnet/services"
)

type testEnv struct {
	db      *gorm.DB
	users   *services.UserService
	posts   *services.PostService
	actions *repositories.ActionRepository
}

func newTestEnv(t *testing.T, withCache bool) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.PostAction{}))

	var cache repositories.ActionCache
	if withCache {
		mr := miniredis.RunT(t)
		cache = repositories.NewActionCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		require.NotNil(t, cache)
	}

	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	actionRepo := repositories.NewActionRepository(db, cache)

	return &testEnv{
		db:      db,
		users:   services.NewUserService(userRepo),
		posts:   services.NewPostService(userRepo, postRepo, actionRepo),
		actions: actionRepo,
	}
}

func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), username, "hackme", nil)
	require.NoError(t, err)
	return user
}

func (e *testEnv) createPost(t *testing.T, author *models.User, body string) *models.Post {
	t.Helper()
	post, err := e.posts.Create(context.Background(), author.ID, body)
	require.NoError(t, err)
	return post
}

func (e *testEnv) reactions(t *testing.T, postID, userID string) []models.PostAction {
	t.Helper()
	acts, err := e.actions.ListByPostAndUser(context.Background(), postID, userID)
	require.NoError(t, err)
	return acts
}

func TestRateReplacesOppositeReaction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	author := env.register(t, "johndoe")
	rater := env.register(t, "foo")
	post := env.createPost(t, author, "first post")

	require.NoError(t, env.posts.Rate(ctx, post.ID, rater.ID, models.ActionLike))
	require.NoError(t, env.posts.Rate(ctx, post.ID, rater.ID, models.ActionDislike))

	acts := env.reactions(t, post.ID, rater.ID)
	require.Len(t, acts, 1)
	require.Equal(t, models.ActionDislike, acts[0].Action)
}

func TestRateDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	author := env.register(t, "johndoe")
	rater := env.register(t, "foo")
	post := env.createPost(t, author, "first post")

	require.NoError(t, env.posts.Rate(ctx, post.ID, rater.ID, models.ActionLike))

	err := env.posts.Rate(ctx, post.ID, rater.ID, models.ActionLike)
	require.ErrorIs(t, err, services.ErrDuplicateAction)

	acts := env.reactions(t, post.ID, rater.ID)
	require.Len(t, acts, 1)
	require.Equal(t, models.ActionLike, acts[0].Action)
}

func TestRateOwnPostForbidden(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	author := env.register(t, "johndoe")
	post := env.createPost(t, author, "my own post")

	for _, kind := range models.ActionKinds {
		err := env.posts.Rate(ctx, post.ID, author.ID, kind)
		require.ErrorIs(t, err, services.ErrPermissionDenied)
	}
	require.Empty(t, env.reactions(t, post.ID, author.ID))
}

func TestRateUnknownUserAndPost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	author := env.register(t, "johndoe")
	post := env.createPost(t, author, "first post")

	err := env.posts.Rate(ctx, post.ID, uuid.NewString(), models.ActionLike)
	require.ErrorIs(t, err, services.ErrNoSuchUser)

	err = env.posts.Rate(ctx, uuid.NewString(), author.ID, models.ActionLike)
	require.ErrorIs(t, err, services.ErrNoSuchPost)
}

func TestRemoveRateMissingReaction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	author := env.register(t, "johndoe")
	rater := env.register(t, "foo")
	post := env.createPost(t, author, "first post")

	err := env.posts.RemoveRate(ctx, post.ID, rater.ID, models.ActionLike)
	require.ErrorIs(t, err, services.ErrNoSuchAction)

	// removing the wrong kind is also a miss
	require.NoError(t, env.posts.Rate(ctx, post.ID, rater.ID, models.ActionLike))
	err = env.posts.RemoveRate(ctx, post.ID, rater.ID, models.ActionDislike)
	require.ErrorIs(t, err, services.ErrNoSuchAction)

	// the second removal of the same reaction fails cleanly
	require.NoError(t, env.posts.RemoveRate(ctx, post.ID, rater.ID, models.ActionLike))
	err = env.posts.RemoveRate(ctx, post.ID, rater.ID, models.ActionLike)
	require.ErrorIs(t, err, services.ErrNoSuchAction)
}

func TestDeletePostCascadesReactions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	author := env.register(t, "johndoe")
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	post := env.createPost(t, author, "popular post")

	require.NoError(t, env.posts.Rate(ctx, post.ID, alice.ID, models.ActionLike))
	require.NoError(t, env.posts.Rate(ctx, post.ID, bob.ID, models.ActionDislike))

	// not the author
	err := env.posts.Delete(ctx, post.ID, alice.ID)
	require.ErrorIs(t, err, services.ErrPermissionDenied)

	require.NoError(t, env.posts.Delete(ctx, post.ID, author.ID))

	_, err = env.posts.Get(ctx, post.ID)
	require.ErrorIs(t, err, services.ErrNoSuchPost)
	require.Empty(t, env.reactions(t, post.ID, alice.ID))
	require.Empty(t, env.reactions(t, post.ID, bob.ID))
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	author := env.register(t, "johndoe")
	other := env.register(t, "foo")
	post := env.createPost(t, author, "draft")

	err := env.posts.Update(ctx, post.ID, other.ID, "hijacked")
	require.ErrorIs(t, err, services.ErrPermissionDenied)

	require.NoError(t, env.posts.Update(ctx, post.ID, author.ID, "final"))

	got, err := env.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "final", got.Body)
}

func TestCreatePostUnknownAuthor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)

	_, err := env.posts.Create(ctx, uuid.NewString(), "orphan post")
	require.ErrorIs(t, err, services.ErrNoSuchUser)
}

// Full walkthrough: one author, one rater, every transition of the reaction
// state machine, with the cache attached.
func TestReactionScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	userA := env.register(t, "usera")
	userB := env.register(t, "userb")
	post := env.createPost(t, userA, "post P")

	require.NoError(t, env.posts.Rate(ctx, post.ID, userB.ID, models.ActionLike))
	acts := env.reactions(t, post.ID, userB.ID)
	require.Len(t, acts, 1)
	require.Equal(t, models.ActionLike, acts[0].Action)

	err := env.posts.Rate(ctx, post.ID, userB.ID, models.ActionLike)
	require.ErrorIs(t, err, services.ErrDuplicateAction)
	require.Len(t, env.reactions(t, post.ID, userB.ID), 1)

	require.NoError(t, env.posts.Rate(ctx, post.ID, userB.ID, models.ActionDislike))
	acts = env.reactions(t, post.ID, userB.ID)
	require.Len(t, acts, 1)
	require.Equal(t, models.ActionDislike, acts[0].Action)

	err = env.posts.Rate(ctx, post.ID, userA.ID, models.ActionLike)
	require.ErrorIs(t, err, services.ErrPermissionDenied)

	all, err := env.posts.ListReactions(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
