package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/gorm"

	"employee_backend/internal/feature/employee/domain/entity"
	"employee_backend/internal/feature/employee/usecase"
	"employee_backend/internal/platform/db"
)

// setupTestDB はテスト用のインメモリ SQLite を用意します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.SQLiteOpener(":memory:")
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(Models()...), "failed to migrate tables")
	return gdb
}

func newEmployee(email, designation, department string) *entity.Employee {
	return &entity.Employee{
		FirstName:     "Jane",
		LastName:      "Doe",
		Email:         email,
		Gender:        entity.GenderFemale,
		Designation:   designation,
		Salary:        50000,
		DateOfJoining: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
		Department:    department,
	}
}

func ptr[T any](v T) *T { return &v }

func TestEmployeeGorm_CreateAndFind(t *testing.T) {
	repo := NewEmployeeGorm(setupTestDB(t))
	ctx := context.Background()

	e := newEmployee("jane@example.com", "Engineer", "R&D")
	require.NoError(t, repo.Create(ctx, e))
	assert.True(t, repo.ValidID(e.ID))
	assert.False(t, e.CreatedAt.IsZero())

	byID, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", byID.Email)
	assert.True(t, byID.DateOfJoining.Equal(e.DateOfJoining))

	byEmail, err := repo.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, e.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, usecase.ErrEmployeeNotFound)

	err = repo.Create(ctx, newEmployee("jane@example.com", "Manager", "Sales"))
	assert.ErrorIs(t, err, usecase.ErrEmailAlreadyExists)

	assert.Error(t, repo.Create(ctx, nil))
}

func TestEmployeeGorm_ValidID(t *testing.T) {
	repo := NewEmployeeGorm(setupTestDB(t))

	assert.True(t, repo.ValidID(uuid.NewString()))
	assert.False(t, repo.ValidID("not-a-valid-id"))
	assert.False(t, repo.ValidID(""))
}

func TestEmployeeGorm_Search(t *testing.T) {
	repo := NewEmployeeGorm(setupTestDB(t))
	ctx := context.Background()
	for _, e := range []*entity.Employee{
		newEmployee("a@example.com", "Engineer", "R&D"),
		newEmployee("b@example.com", "Engineer", "Sales"),
		newEmployee("c@example.com", "Manager", "Sales"),
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	tests := []struct {
		name   string
		filter entity.Filter
		want   []string
	}{
		{name: "no filter", filter: entity.Filter{}, want: []string{"a@example.com", "b@example.com", "c@example.com"}},
		{name: "designation", filter: entity.Filter{Designation: "Engineer"}, want: []string{"a@example.com", "b@example.com"}},
		{name: "department", filter: entity.Filter{Department: "Sales"}, want: []string{"b@example.com", "c@example.com"}},
		{name: "both", filter: entity.Filter{Designation: "Engineer", Department: "Sales"}, want: []string{"b@example.com"}},
		{name: "none", filter: entity.Filter{Designation: "Pilot"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.filter)
			require.NoError(t, err)
			emails := make([]string, 0, len(got))
			for _, e := range got {
				emails = append(emails, e.Email)
			}
			assert.ElementsMatch(t, tt.want, emails)
		})
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEmployeeGorm_Update(t *testing.T) {
	repo := NewEmployeeGorm(setupTestDB(t))
	ctx := context.Background()
	a := newEmployee("a@example.com", "Engineer", "R&D")
	b := newEmployee("b@example.com", "Engineer", "R&D")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	t.Run("partial update", func(t *testing.T) {
		got, err := repo.Update(ctx, a.ID, entity.Patch{
			Salary:        ptr(70000.0),
			EmployeePhoto: ptr("uploads/employees/x.png"),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 70000, got.Salary)
		assert.Equal(t, "uploads/employees/x.png", got.EmployeePhoto)
		assert.Equal(t, "Engineer", got.Designation)
		assert.False(t, got.UpdatedAt.Before(a.UpdatedAt))
	})

	t.Run("empty patch still matches", func(t *testing.T) {
		_, err := repo.Update(ctx, a.ID, entity.Patch{})
		assert.NoError(t, err)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.Update(ctx, uuid.NewString(), entity.Patch{Salary: ptr(2000.0)})
		assert.ErrorIs(t, err, usecase.ErrEmployeeNotFound)
	})

	t.Run("email collision", func(t *testing.T) {
		_, err := repo.Update(ctx, b.ID, entity.Patch{Email: ptr("a@example.com")})
		assert.ErrorIs(t, err, usecase.ErrEmailAlreadyExists)
	})
}

func TestEmployeeGorm_Delete(t *testing.T) {
	repo := NewEmployeeGorm(setupTestDB(t))
	ctx := context.Background()
	e := newEmployee("a@example.com", "Engineer", "R&D")
	require.NoError(t, repo.Create(ctx, e))

	require.NoError(t, repo.Delete(ctx, e.ID))
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), usecase.ErrEmployeeNotFound)

	_, err := repo.FindByID(ctx, e.ID)
	assert.ErrorIs(t, err, usecase.ErrEmployeeNotFound)
}

func TestPatchFields(t *testing.T) {
	joined := time.Date(2024, 1, 2, 0, 0, 0, 0, time.FixedZone("X", 3600))
	fields := patchFields(entity.Patch{FirstName: ptr("Ann"), DateOfJoining: &joined})

	assert.Equal(t, map[string]any{
		"first_name":      "Ann",
		"date_of_joining": joined.UTC(),
	}, fields)
	assert.Empty(t, patchFields(entity.Patch{}))
}

func TestSearchFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, searchFilter(entity.Filter{}))
	assert.Equal(t, bson.M{"designation": "Engineer", "department": "Sales"},
		searchFilter(entity.Filter{Designation: "Engineer", Department: "Sales"}))
}

func TestEmployeeMongo_OfflineChecks(t *testing.T) {
	// mongo.Connect は操作が必要になるまで接続しない
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://127.0.0.1:1").SetServerSelectionTimeout(50 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	repo := NewEmployeeMongo(client.Database("test"))
	ctx := context.Background()

	assert.True(t, repo.ValidID(bson.NewObjectID().Hex()))
	assert.False(t, repo.ValidID("not-a-valid-id"))
	assert.False(t, repo.ValidID(uuid.NewString()))

	_, err = repo.FindByID(ctx, "bad")
	assert.ErrorIs(t, err, usecase.ErrEmployeeNotFound)
	_, err = repo.Update(ctx, "bad", entity.Patch{})
	assert.ErrorIs(t, err, usecase.ErrEmployeeNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "bad"), usecase.ErrEmployeeNotFound)
	assert.Error(t, repo.Create(ctx, nil))
}
