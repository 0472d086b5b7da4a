package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/spark/internal/db"
	"github.com/oggyb/spark/internal/geo"
	"github.com/oggyb/spark/internal/repository"
	"github.com/oggyb/spark/internal/testutil"
	"github.com/oggyb/spark/internal/utils/pagination"
)

func TestUserRepository_CreateFindUpdate(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewUserRepository(gdb)

	u := db.User{
		ID:               db.NewID(),
		Email:            "ana@example.com",
		PasswordHash:     "x",
		FirstName:        "Ana",
		LastName:         "Cruz",
		Gender:           db.GenderFemale,
		Birthday:         time.Date(1995, 3, 1, 0, 0, 0, 0, time.UTC),
		GenderPreference: []db.Gender{db.GenderMale},
		MinAge:           25,
		MaxAge:           35,
		MaxDistanceKm:    50,
		Status:           db.StatusActive,
	}
	require.NoError(t, repo.Create(ctx, &u))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", got.DisplayName())
	assert.Equal(t, []db.Gender{db.GenderMale}, []db.Gender(got.GenderPreference))
	assert.False(t, got.HasLocation())

	require.NoError(t, repo.Update(ctx, u.ID, map[string]any{"status": db.StatusPaused}))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusPaused, got.Status)

	_, err = repo.FindByID(ctx, db.NewID())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewUserRepository(gdb)

	first := testutil.CreateUser(t, gdb, "Ana", nil)
	dup := db.User{
		ID: db.NewID(), Email: first.Email, PasswordHash: "x", FirstName: "B", LastName: "C",
		Gender: db.GenderMale, Birthday: first.Birthday, Status: db.StatusActive,
	}
	err := repo.Create(ctx, &dup)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestUserRepository_CandidateFilter(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewUserRepository(gdb)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	in := testutil.CreateUser(t, gdb, "In", func(u *db.User) {
		u.Longitude, u.Latitude = testutil.Ptr(121.06), testutil.Ptr(14.59)
	})
	testutil.CreateUser(t, gdb, "Male", func(u *db.User) { u.Gender = db.GenderMale })
	testutil.CreateUser(t, gdb, "Paused", func(u *db.User) { u.Status = db.StatusPaused })
	testutil.CreateUser(t, gdb, "Old", func(u *db.User) { u.Birthday = today.AddDate(-60, 0, 0) })
	excluded := testutil.CreateUser(t, gdb, "Excluded", nil)
	testutil.CreateUser(t, gdb, "Far", func(u *db.User) {
		u.Longitude, u.Latitude = testutil.Ptr(2.35), testutil.Ptr(48.85)
	})

	f := repository.CandidateFilter{
		Genders:        []db.Gender{db.GenderFemale},
		Exclude:        []string{excluded.ID},
		BornAfter:      today.AddDate(-41, 0, 0),
		BornOnOrBefore: today.AddDate(-25, 0, 0),
	}

	users, err := repo.FindCandidates(ctx, f, 0)
	require.NoError(t, err)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.FirstName)
	}
	assert.ElementsMatch(t, []string{"In", "Far"}, names)

	count, err := repo.CountCandidates(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	box := geo.BoundingBox(geo.Point{Longitude: 121.05, Latitude: 14.58}, 50)
	f.Box = &box
	users, err = repo.FindCandidates(ctx, f, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, in.ID, users[0].ID)
}

func TestRelationshipRepository_LikesCollapse(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	a, b := db.NewID(), db.NewID()

	first, created, err := repo.CreateLike(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.CreateLike(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	var n int64
	gdb.Model(&db.Like{}).Count(&n)
	assert.Equal(t, int64(1), n)

	liked, err := repo.HasLiked(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = repo.HasLiked(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestRelationshipRepository_ExclusionQueries(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	me, x, y, z := db.NewID(), db.NewID(), db.NewID(), db.NewID()

	_, _, _ = repo.CreateLike(ctx, me, x)
	_, _ = repo.CreateDislike(ctx, me, y)
	_, _ = repo.CreateDislike(ctx, me, y)
	require.NoError(t, repo.CreateBlock(ctx, &db.Block{ID: db.NewID(), UserID: z, BlockedUserID: me,
		Reasons: []db.Reason{db.ReasonHarassment}, Description: "spam"}))
	rep := &db.Report{ID: db.NewID(), UserID: me, ReportedUserID: x,
		Reasons: []db.Reason{db.ReasonScamOrFraud}, Description: "fake"}
	require.NoError(t, repo.CreateReport(ctx, rep))
	assert.Equal(t, db.ReportPending, rep.Status)

	liked, _ := repo.LikedIDs(ctx, me)
	assert.Equal(t, []string{x}, liked)
	disliked, _ := repo.DislikedIDs(ctx, me)
	assert.Equal(t, []string{y}, disliked)
	blocked, _ := repo.BlockedIDs(ctx, me)
	assert.Empty(t, blocked)
	blockedBy, _ := repo.BlockedByIDs(ctx, me)
	assert.Equal(t, []string{z}, blockedBy)
	reported, _ := repo.ReportedIDs(ctx, me)
	assert.Equal(t, []string{x}, reported)
	reportedBy, _ := repo.ReportedByIDs(ctx, x)
	assert.Equal(t, []string{me}, reportedBy)

	either, err := repo.BlockedEitherWay(ctx, z)
	require.NoError(t, err)
	assert.Equal(t, []string{me}, either)
}

func TestMatchRepository_CreateOrGetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewMatchRepository(gdb)
	a, b := db.NewID(), db.NewID()

	m1, created, err := repo.CreateOrGet(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, created)

	m2, created, err := repo.CreateOrGet(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m1.ID, m2.ID)

	n, err := repo.CountByPair(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ids, err := repo.CounterpartIDs(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, ids)
}

func TestMatchRepository_ConcurrentCreateOrGet(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewMatchRepository(gdb)
	a, b := db.NewID(), db.NewID()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, y := a, b
			if i%2 == 1 {
				x, y = b, a
			}
			_, created, err := repo.CreateOrGet(ctx, x, y)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	n, _ := repo.CountByPair(ctx, a, b)
	assert.Equal(t, int64(1), n)
}

func TestMatchRepository_ListForUser(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewMatchRepository(gdb)

	me := testutil.CreateUser(t, gdb, "Me", nil)
	maria := testutil.CreateUser(t, gdb, "Maria", nil)
	marco := testutil.CreateUser(t, gdb, "Marco", nil)
	blocked := testutil.CreateUser(t, gdb, "Blocked", nil)

	for _, other := range []db.User{maria, marco, blocked} {
		_, _, err := repo.CreateOrGet(ctx, other.ID, me.ID)
		require.NoError(t, err)
	}

	page := pagination.New(1, 10, 10, 10)
	matches, total, err := repo.ListForUser(ctx, me.ID, []string{blocked.ID}, "", page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, matches, 2)

	matches, total, err = repo.ListForUser(ctx, me.ID, nil, "MARI", page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, matches, 1)
	assert.Equal(t, maria.ID, matches[0].Counterpart(me.ID))

	matches, total, err = repo.ListForUser(ctx, me.ID, nil, "", pagination.New(2, 2, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, matches, 1)
}

func TestConversationRepository_GetOrCreateIsSymmetric(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewConversationRepository(gdb)
	a, b := db.NewID(), db.NewID()

	c1, err := repo.GetOrCreate(ctx, a, b)
	require.NoError(t, err)
	c2, err := repo.GetOrCreate(ctx, b, a)
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID)
	assert.ElementsMatch(t, []string{a, b}, c2.ParticipantIDs())
	assert.Equal(t, map[string]int{a: 0, b: 0}, c2.UnreadCounts())

	var n int64
	gdb.Model(&db.Conversation{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestConversationRepository_UnreadCounters(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewConversationRepository(gdb)
	a, b := db.NewID(), db.NewID()

	conv, err := repo.GetOrCreate(ctx, a, b)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		counts, err := repo.AppendMessage(ctx, &db.Message{
			ID: db.NewID(), ConversationID: conv.ID, SenderID: a, Content: "hi",
			Type: db.MessageText, Status: db.MessageSent,
		})
		require.NoError(t, err)
		assert.Equal(t, i, counts[b])
		assert.Equal(t, 0, counts[a])
	}

	require.NoError(t, repo.ResetUnread(ctx, conv.ID, b))
	conv, err = repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a: 0, b: 0}, conv.UnreadCounts())
	require.NotNil(t, conv.LastMessageID)
	require.NotNil(t, conv.LastMessageAt)
}

func TestConversationRepository_ListForUser(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewConversationRepository(gdb)
	me, x, y := db.NewID(), db.NewID(), db.NewID()

	older, err := repo.GetOrCreate(ctx, me, x)
	require.NoError(t, err)
	newer, err := repo.GetOrCreate(ctx, y, me)
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, x, y)
	require.NoError(t, err)

	_, err = repo.AppendMessage(ctx, &db.Message{
		ID: db.NewID(), ConversationID: older.ID, SenderID: x, Content: "ping",
		Type: db.MessageText, Status: db.MessageSent, CreatedAt: time.Now().UTC().Add(time.Minute),
	})
	require.NoError(t, err)

	convs, err := repo.ListForUser(ctx, me)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, older.ID, convs[0].ID)
	assert.Equal(t, newer.ID, convs[1].ID)
	assert.Equal(t, 1, convs[0].UnreadCounts()[me])
}

func TestMessageRepository_ListAscendingPages(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	convs := repository.NewConversationRepository(gdb)
	repo := repository.NewMessageRepository(gdb)
	a, b := db.NewID(), db.NewID()

	conv, err := convs.GetOrCreate(ctx, a, b)
	require.NoError(t, err)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_, err := convs.AppendMessage(ctx, &db.Message{
			ID: db.NewID(), ConversationID: conv.ID, SenderID: a, Content: string(rune('a' + i)),
			Type: db.MessageText, Status: db.MessageSent, CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	msgs, total, err := repo.List(ctx, conv.ID, pagination.New(1, 2, 20, 100))
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, msgs, 2)
	assert.Equal(t, "d", msgs[0].Content)
	assert.Equal(t, "e", msgs[1].Content)

	msgs, _, err = repo.List(ctx, conv.ID, pagination.New(3, 2, 20, 100))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "a", msgs[0].Content)
}

func TestMessageRepository_StatusNeverRegresses(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	convs := repository.NewConversationRepository(gdb)
	repo := repository.NewMessageRepository(gdb)
	a, b := db.NewID(), db.NewID()

	conv, err := convs.GetOrCreate(ctx, a, b)
	require.NoError(t, err)
	msg := &db.Message{ID: db.NewID(), ConversationID: conv.ID, SenderID: a, Content: "x",
		Type: db.MessageText, Status: db.MessageSent}
	_, err = convs.AppendMessage(ctx, msg)
	require.NoError(t, err)

	firstSeen := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	seen, err := repo.MarkSeen(ctx, msg.ID, firstSeen)
	require.NoError(t, err)
	assert.Equal(t, db.MessageSeen, seen.Status)

	seen, err = repo.MarkSeen(ctx, msg.ID, firstSeen.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, seen.SeenAt)
	assert.True(t, seen.SeenAt.Equal(firstSeen))

	delivered, err := repo.MarkDelivered(ctx, msg.ID, firstSeen.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, db.MessageSeen, delivered.Status)
	assert.Nil(t, delivered.DeliveredAt)

	_, err = repo.FindInConversation(ctx, db.NewID(), msg.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := repository.NewNotificationRepository(gdb)
	me := db.NewID()

	for i := 0; i < 12; i++ {
		require.NoError(t, repo.Create(ctx, &db.Notification{ID: db.NewID(), UserID: me, Message: "hello"}))
	}
	require.NoError(t, repo.Create(ctx, &db.Notification{ID: db.NewID(), UserID: db.NewID(), Message: "other"}))

	items, total, err := repo.List(ctx, me, pagination.New(2, 0, pagination.DefaultPageSize, pagination.DefaultPageSize))
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Len(t, items, 2)

	n, err := repo.CountUnread(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	changed, err := repo.MarkAllRead(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, int64(12), changed)

	n, err = repo.CountUnread(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
