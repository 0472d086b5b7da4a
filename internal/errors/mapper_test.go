package errors_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/spark/internal/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want codes.Code
	}{
		{"not found", fmt.Errorf("find user: %w", gorm.ErrRecordNotFound), codes.NotFound},
		{"duplicate", fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey), codes.AlreadyExists},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", fmt.Errorf("connection refused"), codes.Internal},
		{"status passthrough", svcErr.InvalidArgument("bad"), codes.InvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, status.Code(svcErr.Map(tc.in)))
		})
	}

	assert.NoError(t, svcErr.Map(nil))
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, codes.NotFound, status.Code(svcErr.NotFound("user")))
	assert.Equal(t, "user not found", status.Convert(svcErr.NotFound("user")).Message())
	assert.Equal(t, codes.PermissionDenied, status.Code(svcErr.PermissionDenied("no")))
	assert.Equal(t, codes.Unauthenticated, status.Code(svcErr.Unauthenticated("no")))
	assert.Equal(t, codes.AlreadyExists, status.Code(svcErr.AlreadyExists("dup")))
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, svcErr.ValidateID("userId", "0190b5a6-7c3e-7d2a-9f00-4b1e2c3d4e5f"))

	err := svcErr.ValidateID("userId", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, err.Error(), "userId is required")

	err = svcErr.ValidateID("likedUser", "42")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, err.Error(), "likedUser must be a valid UUID")
}

func TestMapEntity(t *testing.T) {
	err := svcErr.MapEntity(fmt.Errorf("find conversation: %w", gorm.ErrRecordNotFound), "conversation")
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, "conversation not found", status.Convert(err).Message())

	err = svcErr.MapEntity(context.DeadlineExceeded, "conversation")
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}
