package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"backoffice_chat/internal/models"
	"backoffice_chat/internal/repository"
	"backoffice_chat/internal/storage"
)

// newTestServices 建立以 in-memory sqlite 為後端的完整服務組
func newTestServices(t *testing.T) *Services {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := &storage.PostgresDB{DB: gdb}
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Room{}, &models.Message{}))

	return NewServices(repository.NewRepositories(db))
}

// createTestUser 建立測試使用者並回傳其 ID
func createTestUser(t *testing.T, services *Services, name, email string) string {
	t.Helper()

	user := &models.User{Name: name, Email: email, Password: "hashed"}
	require.NoError(t, services.User.CreateUser(user))
	return user.ID
}
