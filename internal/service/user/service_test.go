package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/spark/internal/db"
	"github.com/oggyb/spark/internal/rpc"
	"github.com/oggyb/spark/internal/service/user"
	"github.com/oggyb/spark/internal/testutil"
)

func validRequest() *rpc.CreateUserRequest {
	return &rpc.CreateUserRequest{
		Email:     "Maria@Example.com ",
		Password:  "correct horse",
		FirstName: "Maria",
		LastName:  "Santos",
		Gender:    db.GenderFemale,
		Birthday:  "1995-04-12",
		Longitude: testutil.Ptr(121.05),
		Latitude:  testutil.Ptr(14.58),
		Preferences: rpc.Preferences{
			GenderPreference: []db.Gender{db.GenderMale},
			MinAge:           25,
			MaxAge:           35,
			MaxDistanceKm:    50,
		},
	}
}

func TestCreateUser(t *testing.T) {
	appCtx, _, _ := testutil.NewAppContext(t)
	svc := user.NewUserService(appCtx)
	ctx := context.Background()

	resp, err := svc.CreateUser(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", resp.User.Email)
	assert.Equal(t, "1995-04-12", resp.User.Birthday)
	assert.Equal(t, db.StatusActive, resp.User.Status)
	assert.Equal(t, []db.Gender{db.GenderMale}, resp.User.Preferences.GenderPreference)

	var stored db.User
	require.NoError(t, appCtx.DB.First(&stored, "id = ?", resp.User.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))

	_, err = svc.CreateUser(ctx, validRequest())
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestCreateUser_DefaultsPreferences(t *testing.T) {
	appCtx, _, _ := testutil.NewAppContext(t)
	svc := user.NewUserService(appCtx)

	req := validRequest()
	req.Preferences = rpc.Preferences{}
	resp, err := svc.CreateUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 18, resp.User.Preferences.MinAge)
	assert.Equal(t, 100, resp.User.Preferences.MaxAge)
	assert.Len(t, resp.User.Preferences.GenderPreference, 4)
}

func TestCreateUser_Validation(t *testing.T) {
	appCtx, _, _ := testutil.NewAppContext(t)
	svc := user.NewUserService(appCtx)

	cases := map[string]func(r *rpc.CreateUserRequest){
		"bad email":        func(r *rpc.CreateUserRequest) { r.Email = "nope" },
		"short password":   func(r *rpc.CreateUserRequest) { r.Password = "short" },
		"missing name":     func(r *rpc.CreateUserRequest) { r.LastName = " " },
		"bad gender":       func(r *rpc.CreateUserRequest) { r.Gender = "Robot" },
		"bad birthday":     func(r *rpc.CreateUserRequest) { r.Birthday = "12/04/1995" },
		"minor":            func(r *rpc.CreateUserRequest) { r.Birthday = appCtx.Now().AddDate(-17, 0, 0).Format(rpc.BirthdayLayout) },
		"half location":    func(r *rpc.CreateUserRequest) { r.Latitude = nil },
		"latitude range":   func(r *rpc.CreateUserRequest) { r.Latitude = testutil.Ptr(91.0) },
		"inverted ages":    func(r *rpc.CreateUserRequest) { r.Preferences.MinAge = 40 },
		"distance too big": func(r *rpc.CreateUserRequest) { r.Preferences.MaxDistanceKm = 501 },
		"no genders":       func(r *rpc.CreateUserRequest) { r.Preferences.GenderPreference = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(req)
			_, err := svc.CreateUser(context.Background(), req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestUpdates(t *testing.T) {
	appCtx, _, _ := testutil.NewAppContext(t)
	svc := user.NewUserService(appCtx)
	ctx := context.Background()
	u := testutil.CreateUser(t, appCtx.DB, "Una", nil)

	resp, err := svc.UpdatePreferences(ctx, &rpc.UpdatePreferencesRequest{
		UserID: u.ID,
		Preferences: rpc.Preferences{
			GenderPreference: []db.Gender{db.GenderNonBinary, db.GenderOther},
			MinAge:           21,
			MaxAge:           30,
			MaxDistanceKm:    10,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []db.Gender{db.GenderNonBinary, db.GenderOther}, resp.User.Preferences.GenderPreference)
	assert.Equal(t, 21, resp.User.Preferences.MinAge)

	resp, err = svc.UpdateLocation(ctx, &rpc.UpdateLocationRequest{UserID: u.ID, Longitude: 120.98, Latitude: 14.6})
	require.NoError(t, err)
	require.NotNil(t, resp.User.Latitude)
	assert.InDelta(t, 14.6, *resp.User.Latitude, 1e-9)

	resp, err = svc.UpdateStatus(ctx, &rpc.UpdateStatusRequest{UserID: u.ID, Status: db.StatusPaused})
	require.NoError(t, err)
	assert.Equal(t, db.StatusPaused, resp.User.Status)

	_, err = svc.UpdateStatus(ctx, &rpc.UpdateStatusRequest{UserID: u.ID, Status: "Gone"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.UpdateLocation(ctx, &rpc.UpdateLocationRequest{UserID: u.ID, Longitude: 200})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetUser_Errors(t *testing.T) {
	appCtx, _, _ := testutil.NewAppContext(t)
	svc := user.NewUserService(appCtx)

	_, err := svc.GetUser(context.Background(), &rpc.UserIDRequest{UserID: "123"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.GetUser(context.Background(), &rpc.UserIDRequest{UserID: db.NewID()})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, "user not found", status.Convert(err).Message())
}
