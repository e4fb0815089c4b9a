package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/domain"
)

func TestFollowThenFeed(t *testing.T) {
	ts := newTestServer(t)
	author := ts.seedUser(t, "sasha")
	follower := ts.seedUser(t, "misha")
	ts.seedPost(t, author, nil, "A post for the followers.")

	// Before following the feed is empty.
	w := ts.get(t, "/follow/", follower)
	require.Equal(t, http.StatusOK, w.Code)
	var feed domain.PostPage
	decodeBody(t, w, &feed)
	assert.Empty(t, feed.Posts)

	w = ts.get(t, "/profile/sasha/follow/", follower)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/sasha/", w.Header().Get("Location"))
	require.Len(t, ts.follows.edges, 1)

	w = ts.get(t, "/follow/", follower)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &feed)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "A post for the followers.", feed.Posts[0].Text)

	// The author's own feed stays empty; follows are directed.
	w = ts.get(t, "/follow/", author)
	require.Equal(t, http.StatusOK, w.Code)
	feed = domain.PostPage{}
	decodeBody(t, w, &feed)
	assert.Empty(t, feed.Posts)
}

func TestFollowIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "sasha")
	follower := ts.seedUser(t, "misha")

	for i := 0; i < 3; i++ {
		w := ts.get(t, "/profile/sasha/follow/", follower)
		require.Equal(t, http.StatusFound, w.Code)
	}
	assert.Len(t, ts.follows.edges, 1)
}

func TestSelfFollowIsIgnored(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "sasha")

	w := ts.get(t, "/profile/sasha/follow/", user)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, ts.follows.edges)
}

func TestUnfollowLeavesNothingBehind(t *testing.T) {
	ts := newTestServer(t)
	author := ts.seedUser(t, "sasha")
	follower := ts.seedUser(t, "misha")
	ts.seedPost(t, author, nil, "A post for the followers.")

	w := ts.get(t, "/profile/sasha/follow/", follower)
	require.Equal(t, http.StatusFound, w.Code)
	require.Len(t, ts.follows.edges, 1)

	w = ts.get(t, "/profile/sasha/unfollow/", follower)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/follow/", w.Header().Get("Location"))
	assert.Empty(t, ts.follows.edges)

	w = ts.get(t, "/follow/", follower)
	require.Equal(t, http.StatusOK, w.Code)
	var feed domain.PostPage
	decodeBody(t, w, &feed)
	assert.Empty(t, feed.Posts)

	// Unfollowing someone you never followed is a no-op, not an error.
	w = ts.get(t, "/profile/sasha/unfollow/", follower)
	require.Equal(t, http.StatusFound, w.Code)
}

func TestFollowRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "sasha")

	for _, target := range []string{"/follow/", "/profile/sasha/follow/", "/profile/sasha/unfollow/"} {
		w := ts.get(t, target, nil)
		require.Equal(t, http.StatusFound, w.Code, target)
		assert.Equal(t, "/login", w.Header().Get("Location"), target)
	}
	assert.Empty(t, ts.follows.edges)
}

func TestFollowUnknownAuthor(t *testing.T) {
	ts := newTestServer(t)
	follower := ts.seedUser(t, "misha")

	w := ts.get(t, "/profile/nobody/follow/", follower)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
