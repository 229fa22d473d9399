package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/pkg/apierror"
)

func TestCreateProfile(t *testing.T) {
	t.Parallel()

	t.Run("stores the password encrypted at rest", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)

		m, err := repository.NewProfileRepository(ts.Repo.DB()).GetByID(ctx, profile.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, m.Password)
		assert.NotEqual(t, "Passw0rd!", m.Password)

		cfg, err := ts.ProfileService.EngineConfig(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", cfg.Host)
		assert.Equal(t, 1433, cfg.Port)
		assert.Equal(t, "sa", cfg.User)
		assert.Equal(t, "Passw0rd!", cfg.Password)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		createTestProfile(t, ts)

		_, err := ts.ProfileService.CreateProfile(context.Background(), &entity.CreateProfileRequest{
			Name: "staging", Host: "10.0.0.9", Port: 1433,
			Username: "sa", Password: "x", SnapshotDir: `C:\snapshots`,
		})
		assert.ErrorIs(t, err, apierror.ErrValidation)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("keeps the password when left blank", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)

		updated, err := ts.ProfileService.UpdateProfile(ctx, &entity.UpdateProfileRequest{
			ID:   profile.ID,
			Host: "10.1.1.1",
		})
		require.NoError(t, err)
		assert.Equal(t, "10.1.1.1", updated.Host)

		cfg, err := ts.ProfileService.EngineConfig(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, "Passw0rd!", cfg.Password)
	})

	t.Run("replaces the password when provided", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)

		_, err := ts.ProfileService.UpdateProfile(ctx, &entity.UpdateProfileRequest{
			ID:       profile.ID,
			Password: "Rotated!",
		})
		require.NoError(t, err)

		cfg, err := ts.ProfileService.EngineConfig(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rotated!", cfg.Password)
	})

	t.Run("returns ProfileNotFound for unknown profile", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		_, err := ts.ProfileService.UpdateProfile(context.Background(), &entity.UpdateProfileRequest{ID: "prof-missing"})
		assert.ErrorIs(t, err, apierror.ErrProfileNotFound)
	})
}

func TestDeleteProfile(t *testing.T) {
	t.Parallel()

	t.Run("refuses while groups remain", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing")

		err := ts.ProfileService.DeleteProfile(ctx, profile.ID)
		require.ErrorIs(t, err, apierror.ErrValidation)

		_, err = ts.GroupService.DeleteGroup(ctx, &entity.DeleteGroupRequest{ID: group.ID})
		require.NoError(t, err)

		require.NoError(t, ts.ProfileService.DeleteProfile(ctx, profile.ID))
		_, err = ts.ProfileService.DescribeProfile(ctx, profile.ID)
		assert.ErrorIs(t, err, apierror.ErrProfileNotFound)
	})

	t.Run("returns ProfileNotFound for unknown profile", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		err := ts.ProfileService.DeleteProfile(context.Background(), "prof-missing")
		assert.ErrorIs(t, err, apierror.ErrProfileNotFound)
	})
}

func TestTestProfile(t *testing.T) {
	t.Parallel()

	t.Run("reports success when the engine answers", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		profile := createTestProfile(t, ts)

		ts.expectConnect()
		ts.MockClient.On("Ping", mock.Anything).Return(nil)

		resp, err := ts.ProfileService.TestProfile(context.Background(), profile.ID)
		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Empty(t, resp.Error)
	})

	t.Run("reports failure without returning an error", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		profile := createTestProfile(t, ts)

		ts.MockConnector.On("Connect", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

		resp, err := ts.ProfileService.TestProfile(context.Background(), profile.ID)
		require.NoError(t, err)
		assert.False(t, resp.OK)
		assert.Contains(t, resp.Error, "connection refused")
	})

	t.Run("reports ping failures", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		profile := createTestProfile(t, ts)

		ts.expectConnect()
		ts.MockClient.On("Ping", mock.Anything).Return(errors.New("login failed for user"))

		resp, err := ts.ProfileService.TestProfile(context.Background(), profile.ID)
		require.NoError(t, err)
		assert.False(t, resp.OK)
		assert.Contains(t, resp.Error, "login failed")
	})
}

func TestListProfiles(t *testing.T) {
	t.Parallel()

	t.Run("lists every profile without passwords", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		createTestProfile(t, ts)
		_, err := ts.ProfileService.CreateProfile(ctx, &entity.CreateProfileRequest{
			Name: "prod", Host: "10.0.0.2", Port: 1433,
			Username: "sa", Password: "Passw0rd!", SnapshotDir: `D:\snapshots`,
		})
		require.NoError(t, err)

		profiles, err := ts.ProfileService.ListProfiles(ctx)
		require.NoError(t, err)

		names := make([]string, 0, len(profiles))
		for _, p := range profiles {
			names = append(names, p.Name)
		}
		assert.ElementsMatch(t, []string{"staging", "prod"}, names)
	})
}

func TestSnapshotDir(t *testing.T) {
	t.Parallel()

	t.Run("returns the configured directory", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		profile := createTestProfile(t, ts)

		dir, err := ts.ProfileService.SnapshotDir(context.Background(), profile.ID)
		require.NoError(t, err)
		assert.Equal(t, `C:\snapshots`, dir)
	})

	t.Run("returns ProfileNotFound for unknown profile", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		_, err := ts.ProfileService.SnapshotDir(context.Background(), "prof-missing")
		assert.ErrorIs(t, err, apierror.ErrProfileNotFound)
	})
}
