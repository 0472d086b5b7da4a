package feed

import (
	"cmp"
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/db"
	svcErr "github.com/oggyb/spark/internal/errors"
	"github.com/oggyb/spark/internal/geo"
	"github.com/oggyb/spark/internal/repository"
	"github.com/oggyb/spark/internal/rpc"
)

// InactiveMessage is returned with an empty feed when the requester is Paused or Banned.
const InactiveMessage = "User account is not active"

// Service implements the Feed gRPC API: candidate selection for one requester.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	rels    *repository.RelationshipRepository
	matches *repository.MatchRepository
}

// NewFeedService creates a feed service with dependencies from AppContext.
func NewFeedService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		rels:    repository.NewRelationshipRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

// GetFeed returns the next candidates for userId plus the total number of eligible candidates.
//
// Behavior:
//   - Deleted or missing users are NotFound; Paused and Banned users get an
//     empty feed with InactiveMessage.
//   - Everyone the user liked, disliked, matched, blocked, reported, was
//     blocked by or reported by is excluded, as is the user.
//   - Candidates are Active, of a preferred gender, and aged within
//     [minAge, maxAge] today (see BirthdayWindow).
//   - With coordinates: candidates lie within maxDistanceKm, nearest first,
//     and total counts everyone in range. Without: oldest accounts first and
//     total is a plain count.
//   - At most FEED_BATCH_SIZE candidates are returned.
func (s *Service) GetFeed(ctx context.Context, req *rpc.GetFeedRequest) (*rpc.FeedReply, error) {
	s.appCtx.Logger.Debug("GetFeed called", "user", req.UserID)

	if err := svcErr.ValidateID("userId", req.UserID); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.MapEntity(err, "user")
	}
	switch user.Status {
	case db.StatusDeleted:
		return nil, svcErr.NotFound("user")
	case db.StatusActive:
	default:
		return &rpc.FeedReply{Candidates: []rpc.UserView{}, Message: InactiveMessage}, nil
	}

	exclude, err := s.exclusions(ctx, user.ID)
	if err != nil {
		s.appCtx.Logger.Error("exclusion set failed", "user", user.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	after, onOrBefore := BirthdayWindow(s.appCtx.Now(), user.MinAge, user.MaxAge)
	filter := repository.CandidateFilter{
		Genders:        user.GenderPreference,
		Exclude:        exclude,
		BornAfter:      after,
		BornOnOrBefore: onOrBefore,
	}

	batch := s.appCtx.Config.Feed.BatchSize
	if batch < 1 {
		batch = 1
	}

	var resp *rpc.FeedReply
	if user.HasLocation() {
		resp, err = s.nearby(ctx, user, filter, batch)
	} else {
		resp, err = s.anywhere(ctx, filter, batch)
	}
	if err != nil {
		s.appCtx.Logger.Error("candidate query failed", "user", user.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("GetFeed result", "user", user.ID, "candidates", len(resp.Candidates), "total", resp.Total, "excluded", len(exclude))
	return resp, nil
}

// nearby prefilters with a bounding box in SQL, then keeps candidates whose
// haversine distance is within range, nearest first.
func (s *Service) nearby(ctx context.Context, user *db.User, filter repository.CandidateFilter, batch int) (*rpc.FeedReply, error) {
	center := geo.Point{Longitude: *user.Longitude, Latitude: *user.Latitude}
	radius := float64(user.MaxDistanceKm)
	box := geo.BoundingBox(center, radius)
	filter.Box = &box

	rows, err := s.users.FindCandidates(ctx, filter, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		user db.User
		km   float64
	}
	inRange := make([]scored, 0, len(rows))
	for _, u := range rows {
		km := geo.DistanceKm(center, geo.Point{Longitude: *u.Longitude, Latitude: *u.Latitude})
		if km <= radius {
			inRange = append(inRange, scored{user: u, km: km})
		}
	}
	slices.SortFunc(inRange, func(a, b scored) int {
		if c := cmp.Compare(a.km, b.km); c != 0 {
			return c
		}
		return cmp.Compare(a.user.ID, b.user.ID)
	})

	resp := &rpc.FeedReply{
		Candidates: make([]rpc.UserView, 0, min(batch, len(inRange))),
		Total:      int64(len(inRange)),
	}
	for _, c := range inRange[:min(batch, len(inRange))] {
		km := c.km
		resp.Candidates = append(resp.Candidates, rpc.NewCandidateView(c.user, &km))
	}
	return resp, nil
}

func (s *Service) anywhere(ctx context.Context, filter repository.CandidateFilter, batch int) (*rpc.FeedReply, error) {
	total, err := s.users.CountCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.users.FindCandidates(ctx, filter, batch)
	if err != nil {
		return nil, err
	}

	resp := &rpc.FeedReply{Candidates: make([]rpc.UserView, 0, len(rows)), Total: total}
	for _, u := range rows {
		resp.Candidates = append(resp.Candidates, rpc.NewCandidateView(u, nil))
	}
	return resp, nil
}

// exclusions runs every exclusion query concurrently and returns their union plus userID.
// The first failure cancels the rest.
func (s *Service) exclusions(ctx context.Context, userID string) ([]string, error) {
	sources := []func(context.Context, string) ([]string, error){
		s.rels.LikedIDs,
		s.rels.DislikedIDs,
		s.matches.CounterpartIDs,
		s.rels.BlockedIDs,
		s.rels.BlockedByIDs,
		s.rels.ReportedIDs,
		s.rels.ReportedByIDs,
	}
	results := make([][]string, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, fetch := range sources {
		i, fetch := i, fetch
		g.Go(func() error {
			ids, err := fetch(gctx, userID)
			results[i] = ids
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := map[string]struct{}{userID: {}}
	for _, ids := range results {
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

// BirthdayWindow converts an inclusive age range into birthdays, anchored on
// now's UTC date. A person qualifies iff after < birthday <= onOrBefore.
//
// Someone born exactly maxAge years ago today is maxAge and included; one day
// earlier they would be maxAge+1 and excluded. On Feb 29 the bounds fall back
// to Feb 28 in non-leap years, so a Feb 29 birthday counts from Mar 1.
func BirthdayWindow(now time.Time, minAge, maxAge int) (after, onOrBefore time.Time) {
	y, m, d := now.UTC().Date()
	return lastValidDay(y-maxAge-1, m, d), lastValidDay(y-minAge, m, d)
}

// lastValidDay is y-m-d at UTC midnight, clamped to the month's last day.
func lastValidDay(y int, m time.Month, d int) time.Time {
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return time.Date(y, m, min(d, last), 0, 0, 0, 0, time.UTC)
}
