package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/repositories/repotest"
)

// newTestDB opens a private in-memory sqlite database with the schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestGormRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repositories.Repository {
		return NewPostgreSQLRepository(RepositoryConfig{DB: newTestDB(t)})
	})
}

func TestHandleDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		duplicate bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleDBError(tt.err, "create user")
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.duplicate, errors.Is(err, repositories.ErrDuplicate))
			assert.Contains(t, err.Error(), "create user failed")
		})
	}
}

func TestRepositoryManager(t *testing.T) {
	ctx := context.Background()

	rm := NewRepositoryManager(RepositoryConfig{})
	assert.Error(t, rm.Initialize())
	assert.Error(t, rm.HealthCheck(ctx))

	rm = NewRepositoryManager(RepositoryConfig{DB: newTestDB(t)})
	require.NoError(t, rm.Initialize())
	require.NoError(t, rm.HealthCheck(ctx))

	repo := rm.GetRepository()
	u := repotest.NewUser(t, repo, "managed", models.RoleAdmin)
	assert.NotZero(t, u.ID)
}

func TestTutorSubjectFilterIsExact(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: newTestDB(t)})

	a := repotest.NewUser(t, repo, "a", models.RoleTutor)
	b := repotest.NewUser(t, repo, "b", models.RoleTutor)
	require.NoError(t, repo.TutorProfile().Create(ctx, &models.TutorProfile{UserID: a.ID, Subjects: "Biochemistry"}))
	require.NoError(t, repo.TutorProfile().Create(ctx, &models.TutorProfile{UserID: b.ID, Subjects: "Chemistry, Biology"}))

	list, err := repo.TutorProfile().List(ctx, repositories.TutorFilters{Subject: "chemistry"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].UserID)
}
