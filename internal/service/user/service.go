package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/db"
	svcErr "github.com/oggyb/spark/internal/errors"
	"github.com/oggyb/spark/internal/repository"
	"github.com/oggyb/spark/internal/rpc"
)

const (
	minAgeLimit      = 18
	maxAgeLimit      = 100
	maxDistanceLimit = 500
	minPasswordLen   = 8
)

// Service implements the User gRPC API (the user directory).
type Service struct {
	appCtx *app.AppContext
	repo   *repository.UserRepository
}

// NewUserService creates a user service with dependencies from AppContext.
func NewUserService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   repository.NewUserRepository(appCtx.DB),
	}
}

// CreateUser registers an Active user.
//
// Behavior:
//   - Validates profile fields and preferences; the user must be at least 18.
//   - Stores a bcrypt hash of the password.
//   - A duplicate email is AlreadyExists.
func (s *Service) CreateUser(ctx context.Context, req *rpc.CreateUserRequest) (*rpc.UserReply, error) {
	s.appCtx.Logger.Debug("CreateUser called", "email", req.Email)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, svcErr.InvalidArgument("email must be a valid address")
	}
	if len(req.Password) < minPasswordLen {
		return nil, svcErr.InvalidArgument("password must be at least 8 characters")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, svcErr.InvalidArgument("firstName and lastName are required")
	}
	if !req.Gender.Valid() {
		return nil, svcErr.InvalidArgument("gender must be one of Male, Female, Non Binary, Other")
	}
	birthday, err := time.Parse(rpc.BirthdayLayout, req.Birthday)
	if err != nil {
		return nil, svcErr.InvalidArgument("birthday must be YYYY-MM-DD")
	}
	if birthday.After(s.appCtx.Now().AddDate(-minAgeLimit, 0, 0)) {
		return nil, svcErr.InvalidArgument("user must be at least 18")
	}
	if (req.Longitude == nil) != (req.Latitude == nil) {
		return nil, svcErr.InvalidArgument("longitude and latitude must be set together")
	}
	if req.Longitude != nil {
		if err := validateLocation(*req.Longitude, *req.Latitude); err != nil {
			return nil, err
		}
	}

	prefs := req.Preferences
	if len(prefs.GenderPreference) == 0 && prefs.MinAge == 0 && prefs.MaxAge == 0 && prefs.MaxDistanceKm == 0 {
		prefs = defaultPreferences()
	}
	if err := validatePreferences(prefs); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.appCtx.Logger.Error("password hashing failed", "err", err)
		return nil, svcErr.Map(err)
	}

	u := db.User{
		ID:               db.NewID(),
		Email:            email,
		PasswordHash:     string(hash),
		FirstName:        strings.TrimSpace(req.FirstName),
		MiddleName:       strings.TrimSpace(req.MiddleName),
		LastName:         strings.TrimSpace(req.LastName),
		ShortBio:         req.ShortBio,
		Photo:            req.Photo,
		Gender:           req.Gender,
		Birthday:         birthday.UTC(),
		Longitude:        req.Longitude,
		Latitude:         req.Latitude,
		GenderPreference: prefs.GenderPreference,
		MinAge:           prefs.MinAge,
		MaxAge:           prefs.MaxAge,
		MaxDistanceKm:    prefs.MaxDistanceKm,
		Status:           db.StatusActive,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		s.appCtx.Logger.Error("CreateUser failed", "email", email, "err", err)
		return nil, svcErr.Map(err)
	}

	return &rpc.UserReply{User: rpc.NewUserView(u)}, nil
}

func (s *Service) GetUser(ctx context.Context, req *rpc.UserIDRequest) (*rpc.UserReply, error) {
	s.appCtx.Logger.Debug("GetUser called", "user", req.UserID)

	u, err := s.find(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &rpc.UserReply{User: rpc.NewUserView(*u)}, nil
}

// UpdatePreferences replaces the user's feed preferences.
func (s *Service) UpdatePreferences(ctx context.Context, req *rpc.UpdatePreferencesRequest) (*rpc.UserReply, error) {
	s.appCtx.Logger.Debug("UpdatePreferences called", "user", req.UserID)

	if err := validatePreferences(req.Preferences); err != nil {
		return nil, err
	}
	return s.update(ctx, req.UserID, map[string]any{
		"gender_preference": datatypes.JSONSlice[db.Gender](req.Preferences.GenderPreference),
		"min_age":           req.Preferences.MinAge,
		"max_age":           req.Preferences.MaxAge,
		"max_distance_km":   req.Preferences.MaxDistanceKm,
	})
}

func (s *Service) UpdateLocation(ctx context.Context, req *rpc.UpdateLocationRequest) (*rpc.UserReply, error) {
	s.appCtx.Logger.Debug("UpdateLocation called", "user", req.UserID, "lon", req.Longitude, "lat", req.Latitude)

	if err := validateLocation(req.Longitude, req.Latitude); err != nil {
		return nil, err
	}
	return s.update(ctx, req.UserID, map[string]any{
		"longitude": req.Longitude,
		"latitude":  req.Latitude,
	})
}

// UpdateStatus moves the user between Active, Paused, Banned and Deleted.
// Only Active users appear in feeds.
func (s *Service) UpdateStatus(ctx context.Context, req *rpc.UpdateStatusRequest) (*rpc.UserReply, error) {
	s.appCtx.Logger.Debug("UpdateStatus called", "user", req.UserID, "status", req.Status)

	if !req.Status.Valid() {
		return nil, svcErr.InvalidArgument("status must be one of Active, Paused, Banned, Deleted")
	}
	return s.update(ctx, req.UserID, map[string]any{"status": req.Status})
}

func (s *Service) update(ctx context.Context, userID string, fields map[string]any) (*rpc.UserReply, error) {
	if _, err := s.find(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, fields); err != nil {
		s.appCtx.Logger.Error("update user failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}
	return s.GetUser(ctx, &rpc.UserIDRequest{UserID: userID})
}

func (s *Service) find(ctx context.Context, userID string) (*db.User, error) {
	if err := svcErr.ValidateID("userId", userID); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, svcErr.MapEntity(err, "user")
	}
	return u, nil
}

func defaultPreferences() rpc.Preferences {
	return rpc.Preferences{
		GenderPreference: []db.Gender{db.GenderMale, db.GenderFemale, db.GenderNonBinary, db.GenderOther},
		MinAge:           minAgeLimit,
		MaxAge:           maxAgeLimit,
		MaxDistanceKm:    50,
	}
}

func validatePreferences(p rpc.Preferences) error {
	if len(p.GenderPreference) == 0 {
		return svcErr.InvalidArgument("genderPreference must not be empty")
	}
	for _, g := range p.GenderPreference {
		if !g.Valid() {
			return svcErr.InvalidArgument("unknown gender in genderPreference: " + string(g))
		}
	}
	if p.MinAge < minAgeLimit || p.MaxAge > maxAgeLimit || p.MinAge > p.MaxAge {
		return svcErr.InvalidArgument("ages must satisfy 18 <= minAge <= maxAge <= 100")
	}
	if p.MaxDistanceKm < 1 || p.MaxDistanceKm > maxDistanceLimit {
		return svcErr.InvalidArgument("maxDistanceKm must be between 1 and 500")
	}
	return nil
}

func validateLocation(lon, lat float64) error {
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return svcErr.InvalidArgument("longitude must be in [-180,180] and latitude in [-90,90]")
	}
	return nil
}
