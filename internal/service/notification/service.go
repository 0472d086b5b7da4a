package notification

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/db"
	svcErr "github.com/oggyb/spark/internal/errors"
	"github.com/oggyb/spark/internal/realtime"
	"github.com/oggyb/spark/internal/repository"
	"github.com/oggyb/spark/internal/rpc"
	"github.com/oggyb/spark/internal/utils/pagination"
)

// Service implements the Notification gRPC API and is the Notifier used by
// the match dispatcher.
type Service struct {
	appCtx *app.AppContext
	repo   *repository.NotificationRepository
}

// NewNotificationService creates a notification service with dependencies from AppContext.
func NewNotificationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   repository.NewNotificationRepository(appCtx.DB),
	}
}

// Notify persists a notification for userID and pushes it to the user's room.
//
// Behavior:
//   - The row is the source of truth; the realtime push is best-effort and
//     dropped when the user has no connected session.
//   - The cached unread count for the user is invalidated.
func (s *Service) Notify(ctx context.Context, userID, message string) error {
	n := db.Notification{ID: db.NewID(), UserID: userID, Message: message}
	if err := s.repo.Create(ctx, &n); err != nil {
		s.appCtx.Logger.Error("Create notification failed", "user", userID, "err", err)
		return err
	}

	s.invalidateCount(ctx, userID)
	s.appCtx.Realtime.EmitToUser(userID, realtime.EventNotification, rpc.NewNotificationView(n))
	return nil
}

// ListNotifications returns 10 notifications per page, newest first.
func (s *Service) ListNotifications(ctx context.Context, req *rpc.ListNotificationsRequest) (*rpc.NotificationsReply, error) {
	s.appCtx.Logger.Debug("ListNotifications called", "user", req.UserID, "page", req.Page)

	if err := svcErr.ValidateID("userId", req.UserID); err != nil {
		return nil, err
	}

	page := pagination.New(req.Page, pagination.DefaultPageSize, pagination.DefaultPageSize, pagination.DefaultPageSize)
	items, total, err := s.repo.List(ctx, req.UserID, page)
	if err != nil {
		s.appCtx.Logger.Error("List notifications failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &rpc.NotificationsReply{
		Notifications: make([]rpc.NotificationView, 0, len(items)),
		Page:          page.Page,
		TotalPages:    page.TotalPages(total),
	}
	for _, n := range items {
		resp.Notifications = append(resp.Notifications, rpc.NewNotificationView(n))
	}
	return resp, nil
}

// MarkAllNotificationsRead flips every unread notification of the user to read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, req *rpc.UserIDRequest) (*emptypb.Empty, error) {
	s.appCtx.Logger.Debug("MarkAllNotificationsRead called", "user", req.UserID)

	if err := svcErr.ValidateID("userId", req.UserID); err != nil {
		return nil, err
	}

	changed, err := s.repo.MarkAllRead(ctx, req.UserID)
	if err != nil {
		s.appCtx.Logger.Error("MarkAllRead failed", "err", err)
		return nil, svcErr.Map(err)
	}
	s.invalidateCount(ctx, req.UserID)

	s.appCtx.Logger.Debug("MarkAllNotificationsRead result", "user", req.UserID, "changed", changed)
	return &emptypb.Empty{}, nil
}

// CountUnreadNotifications returns how many notifications the user has not read.
// Cache-first strategy:
//  1. Attempts to read from Redis (notifications:unread:userID), refreshing its TTL on a hit.
//  2. On a miss or unparsable value, falls back to the DB.
//  3. Stores the DB result with a 1h TTL unless the count was invalidated meanwhile.
func (s *Service) CountUnreadNotifications(ctx context.Context, req *rpc.UserIDRequest) (*rpc.CountReply, error) {
	s.appCtx.Logger.Debug("CountUnreadNotifications called", "user", req.UserID)

	if err := svcErr.ValidateID("userId", req.UserID); err != nil {
		return nil, err
	}

	key := s.appCtx.RedisCache.KeyForUnreadNotifications(req.UserID)

	// try cache first
	if n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key); err == nil && ok {
		return &rpc.CountReply{Count: n}, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("unread count cache read failed", "key", key, "err", err)
	}

	// an invalidation racing with the DB read bumps the version and the fill is skipped
	version, verr := s.appCtx.RedisCache.CountVersion(ctx, key)
	if verr != nil {
		s.appCtx.Logger.Warn("unread count version read failed", "key", key, "err", verr)
	}

	// fallback: DB
	count, err := s.repo.CountUnread(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if verr == nil {
		if _, err := s.appCtx.RedisCache.SetCountIfVersion(ctx, key, version, count); err != nil {
			s.appCtx.Logger.Warn("unread count cache write failed", "key", key, "err", err)
		}
	}
	return &rpc.CountReply{Count: count}, nil
}

func (s *Service) invalidateCount(ctx context.Context, userID string) {
	key := s.appCtx.RedisCache.KeyForUnreadNotifications(userID)
	if err := s.appCtx.RedisCache.InvalidateCount(ctx, key); err != nil {
		s.appCtx.Logger.Warn("unread count cache invalidation failed", "key", key, "err", err)
	}
}
