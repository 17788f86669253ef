package admins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
)

var _ port.AdminRepository = (*AdminDAO)(nil)

type Admin struct {
	Id           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;type:varchar(128)"`
	PasswordHash string
	Role         string `gorm:"type:varchar(32)"`
	Ctime        int64
	Utime        int64
}

type AdminDAO struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite admin database and migrates it.
func Open(path string) (*AdminDAO, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open admin database %s: %w", path, err)
	}
	return NewAdminDAO(db)
}

func NewAdminDAO(db *gorm.DB) (*AdminDAO, error) {
	if err := db.AutoMigrate(&Admin{}); err != nil {
		return nil, fmt.Errorf("failed to migrate admins table: %w", err)
	}
	return &AdminDAO{db: db}, nil
}

// EnsureAdmin creates the account or resets its password and role.
func (d *AdminDAO) EnsureAdmin(ctx context.Context, username, password, role string) error {
	if username == "" || password == "" {
		return errors.New("admin username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UnixMilli()

	var existing Admin
	err = d.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return d.db.WithContext(ctx).Create(&Admin{
			Username:     username,
			PasswordHash: string(hash),
			Role:         role,
			Ctime:        now,
			Utime:        now,
		}).Error
	case err != nil:
		return fmt.Errorf("failed to look up admin %s: %w", username, err)
	}

	return d.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
		"password_hash": string(hash),
		"role":          role,
		"utime":         now,
	}).Error
}

func (d *AdminDAO) VerifyCredentials(ctx context.Context, username, password string) (string, error) {
	var admin Admin
	err := d.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up admin %s: %w", username, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return admin.Role, nil
}

func (d *AdminDAO) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
