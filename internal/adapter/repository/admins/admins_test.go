package admins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
)

func newDAO(t *testing.T) *AdminDAO {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every :memory: connection is a separate database
	dao, err := NewAdminDAO(db)
	require.NoError(t, err)
	return dao
}

func TestEnsureAdminAndVerify(t *testing.T) {
	dao := newDAO(t)
	ctx := context.Background()

	require.NoError(t, dao.EnsureAdmin(ctx, "admin", "s3cret", domain.RoleAdmin))

	role, err := dao.VerifyCredentials(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)

	_, err = dao.VerifyCredentials(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = dao.VerifyCredentials(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestEnsureAdmin_ResetsPassword(t *testing.T) {
	dao := newDAO(t)
	ctx := context.Background()

	require.NoError(t, dao.EnsureAdmin(ctx, "admin", "old", domain.RoleAdmin))
	require.NoError(t, dao.EnsureAdmin(ctx, "admin", "new", domain.RoleAdmin))

	_, err := dao.VerifyCredentials(ctx, "admin", "old")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = dao.VerifyCredentials(ctx, "admin", "new")
	assert.NoError(t, err)

	var count int64
	require.NoError(t, dao.db.Model(&Admin{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureAdmin_RequiresCredentials(t *testing.T) {
	dao := newDAO(t)
	assert.Error(t, dao.EnsureAdmin(context.Background(), "", "pw", domain.RoleAdmin))
	assert.Error(t, dao.EnsureAdmin(context.Background(), "admin", "", domain.RoleAdmin))
}
