package match

import (
	"context"
	"strings"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/db"
	svcErr "github.com/oggyb/spark/internal/errors"
	"github.com/oggyb/spark/internal/repository"
	"github.com/oggyb/spark/internal/rpc"
	"github.com/oggyb/spark/internal/utils/pagination"
)

// Service implements the Match gRPC API: likes, dislikes, matches, blocks and reports.
type Service struct {
	appCtx     *app.AppContext
	users      *repository.UserRepository
	rels       *repository.RelationshipRepository
	matches    *repository.MatchRepository
	dispatcher *Dispatcher
}

// NewMatchService creates a match service. New matches are announced through dispatcher.
func NewMatchService(appCtx *app.AppContext, dispatcher *Dispatcher) *Service {
	return &Service{
		appCtx:     appCtx,
		users:      repository.NewUserRepository(appCtx.DB),
		rels:       repository.NewRelationshipRepository(appCtx.DB),
		matches:    repository.NewMatchRepository(appCtx.DB),
		dispatcher: dispatcher,
	}
}

// CreateLike stores user -> likedUser and creates the match when the like is mutual.
//
// Behavior:
//   - Likes on the same unordered pair are serialized with a Redis lock, so
//     two users liking each other at the same moment still produce the match.
//   - A repeated like returns the stored one.
//   - A newly created match is published to the dispatcher, which notifies
//     both users. Notification failures never fail the like.
//
// Example:
//
//	svc.CreateLike(ctx, &rpc.LikeRequest{UserID: alice, LikedUserID: bob})
func (s *Service) CreateLike(ctx context.Context, req *rpc.LikeRequest) (*rpc.LikeReply, error) {
	s.appCtx.Logger.Debug("CreateLike called", "user", req.UserID, "liked", req.LikedUserID)

	if err := s.validatePair(ctx, "likedUser", req.UserID, req.LikedUserID); err != nil {
		return nil, err
	}

	unlock, err := s.appCtx.RedisCache.Lock(ctx, s.appCtx.RedisCache.KeyForPairLock(db.PairKey(req.UserID, req.LikedUserID)), s.appCtx.Config.Match.LockTTL)
	if err != nil {
		s.appCtx.Logger.Error("pair lock failed", "user", req.UserID, "liked", req.LikedUserID, "err", err)
		return nil, svcErr.Map(err)
	}
	defer unlock()

	like, _, err := s.rels.CreateLike(ctx, req.UserID, req.LikedUserID)
	if err != nil {
		s.appCtx.Logger.Error("CreateLike failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &rpc.LikeReply{
		ID:          like.ID,
		UserID:      like.UserID,
		LikedUserID: like.LikedUserID,
		CreatedAt:   like.CreatedAt,
	}

	// check if likedUser also liked user → mutual
	mutual, err := s.rels.HasLiked(ctx, req.LikedUserID, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !mutual {
		return resp, nil
	}

	m, err := s.createMatch(ctx, req.UserID, req.LikedUserID)
	if err != nil {
		return nil, err
	}
	view := rpc.NewMatchView(*m)
	resp.Match = &view

	s.appCtx.Logger.Debug("CreateLike result", "like", like.ID, "match", m.ID)
	return resp, nil
}

// CreateDislike stores user -> dislikedUser. Repeats are collapsed.
func (s *Service) CreateDislike(ctx context.Context, req *rpc.DislikeRequest) (*emptypb.Empty, error) {
	s.appCtx.Logger.Debug("CreateDislike called", "user", req.UserID, "disliked", req.DislikedUserID)

	if err := s.validatePair(ctx, "dislikedUser", req.UserID, req.DislikedUserID); err != nil {
		return nil, err
	}
	if _, err := s.rels.CreateDislike(ctx, req.UserID, req.DislikedUserID); err != nil {
		s.appCtx.Logger.Error("CreateDislike failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return &emptypb.Empty{}, nil
}

// CreateMatch creates the match for the unordered pair or returns the existing one.
func (s *Service) CreateMatch(ctx context.Context, req *rpc.CreateMatchRequest) (*rpc.MatchView, error) {
	s.appCtx.Logger.Debug("CreateMatch called", "user", req.UserID, "matched", req.MatchedUserID)

	if err := s.validatePair(ctx, "matchedUser", req.UserID, req.MatchedUserID); err != nil {
		return nil, err
	}
	m, err := s.createMatch(ctx, req.UserID, req.MatchedUserID)
	if err != nil {
		return nil, err
	}
	view := rpc.NewMatchView(*m)
	return &view, nil
}

func (s *Service) createMatch(ctx context.Context, a, b string) (*db.Match, error) {
	m, created, err := s.matches.CreateOrGet(ctx, a, b)
	if err != nil {
		s.appCtx.Logger.Error("CreateOrGet match failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if created {
		s.dispatcher.Publish(MatchCreated{MatchID: m.ID, UserID: m.UserID, MatchedUserID: m.MatchedUserID})
	}
	return m, nil
}

// ListMatches returns 10 matches per page, newest first, with the counterpart's profile.
// Pairs blocked in either direction are hidden; search filters on the counterpart's name.
func (s *Service) ListMatches(ctx context.Context, req *rpc.ListMatchesRequest) (*rpc.ListMatchesReply, error) {
	s.appCtx.Logger.Debug("ListMatches called", "user", req.UserID, "page", req.Page, "search", req.Search)

	if err := svcErr.ValidateID("userId", req.UserID); err != nil {
		return nil, err
	}

	blocked, err := s.rels.BlockedEitherWay(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	page := pagination.New(req.Page, pagination.DefaultPageSize, pagination.DefaultPageSize, pagination.DefaultPageSize)
	matches, total, err := s.matches.ListForUser(ctx, req.UserID, blocked, req.Search, page)
	if err != nil {
		s.appCtx.Logger.Error("ListMatches failed", "err", err)
		return nil, svcErr.Map(err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Counterpart(req.UserID))
	}
	profiles, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &rpc.ListMatchesReply{
		Matches:    make([]rpc.MatchView, 0, len(matches)),
		Page:       page.Page,
		TotalPages: page.TotalPages(total),
	}
	for _, m := range matches {
		view := rpc.NewMatchView(m)
		if u, ok := profiles[m.Counterpart(req.UserID)]; ok {
			cp := rpc.NewCandidateView(u, nil)
			view.Counterpart = &cp
		}
		resp.Matches = append(resp.Matches, view)
	}
	return resp, nil
}

// CreateBlock stores user -> blockedUser. Blocks hide both users from each other's feed and match list.
func (s *Service) CreateBlock(ctx context.Context, req *rpc.BlockRequest) (*emptypb.Empty, error) {
	s.appCtx.Logger.Debug("CreateBlock called", "user", req.UserID, "blocked", req.BlockedUserID)

	if err := s.validatePair(ctx, "blockedUser", req.UserID, req.BlockedUserID); err != nil {
		return nil, err
	}
	if err := validateReasons(req.Reasons, req.Description); err != nil {
		return nil, err
	}

	block := db.Block{
		ID:            db.NewID(),
		UserID:        req.UserID,
		BlockedUserID: req.BlockedUserID,
		Reasons:       req.Reasons,
		Description:   strings.TrimSpace(req.Description),
	}
	if err := s.rels.CreateBlock(ctx, &block); err != nil {
		s.appCtx.Logger.Error("CreateBlock failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return &emptypb.Empty{}, nil
}

// CreateReport files a report in Pending status for moderation.
func (s *Service) CreateReport(ctx context.Context, req *rpc.ReportRequest) (*rpc.ReportReply, error) {
	s.appCtx.Logger.Debug("CreateReport called", "user", req.UserID, "reported", req.ReportedUserID)

	if err := s.validatePair(ctx, "reportedUser", req.UserID, req.ReportedUserID); err != nil {
		return nil, err
	}
	if err := validateReasons(req.Reasons, req.Description); err != nil {
		return nil, err
	}

	report := db.Report{
		ID:             db.NewID(),
		UserID:         req.UserID,
		ReportedUserID: req.ReportedUserID,
		Reasons:        req.Reasons,
		Description:    strings.TrimSpace(req.Description),
	}
	if err := s.rels.CreateReport(ctx, &report); err != nil {
		s.appCtx.Logger.Error("CreateReport failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return &rpc.ReportReply{ID: report.ID, Status: report.Status}, nil
}

// validatePair checks both ids, rejects self-targeting and requires both users to exist.
func (s *Service) validatePair(ctx context.Context, targetField, userID, targetID string) error {
	if err := svcErr.ValidateID("user", userID); err != nil {
		return err
	}
	if err := svcErr.ValidateID(targetField, targetID); err != nil {
		return err
	}
	if userID == targetID {
		return svcErr.InvalidArgument("user and " + targetField + " must differ")
	}

	found, err := s.users.FindByIDs(ctx, []string{userID, targetID})
	if err != nil {
		return svcErr.Map(err)
	}
	if len(found) < 2 {
		return svcErr.NotFound("user")
	}
	return nil
}

func validateReasons(reasons []db.Reason, description string) error {
	if len(reasons) == 0 {
		return svcErr.InvalidArgument("at least one reason is required")
	}
	for _, r := range reasons {
		if !r.Valid() {
			return svcErr.InvalidArgument("unknown reason: " + string(r))
		}
	}
	if strings.TrimSpace(description) == "" {
		return svcErr.InvalidArgument("description is required")
	}
	return nil
}
