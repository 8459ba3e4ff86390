package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ovenrush/matchcore/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestGetSettingsReturnsZeroValueInitially() {
	settings, err := s.storage.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Empty(settings.LastLoginMethod)
}

func (s *StorageSuite) TestUpdateSettingsPersistsMutation() {
	err := s.storage.UpdateSettings(s.ctx, func(st *model.Settings) {
		st.LastLoginMethod = "device"
	})
	s.Require().NoError(err)

	settings, err := s.storage.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("device", settings.LastLoginMethod)
}

func (s *StorageSuite) TestGetSettingsReturnsCopy() {
	settings, _ := s.storage.GetSettings(s.ctx)
	settings.LastLoginMethod = "scribbled"

	fresh, _ := s.storage.GetSettings(s.ctx)
	s.Empty(fresh.LastLoginMethod)
}

func (s *StorageSuite) TestSaveAndGetProfile() {
	profile := &model.Profile{
		PlayerID:    "p_1",
		DisplayName: "Alice",
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	got, err := s.storage.GetProfile(s.ctx, "p_1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)
}

func (s *StorageSuite) TestGetProfileNotFound() {
	_, err := s.storage.GetProfile(s.ctx, "p_missing")
	s.ErrorIs(err, model.ErrProfileNotFound)
}
