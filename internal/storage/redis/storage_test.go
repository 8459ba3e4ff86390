package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/ovenrush/matchcore/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	mini, err := miniredis.Run()
	s.Require().NoError(err)
	s.mini = mini

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	_ = s.storage.Close()
	s.mini.Close()
}

func (s *StorageSuite) TestGetSettingsReturnsZeroValueWhenAbsent() {
	settings, err := s.storage.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Empty(settings.LastLoginMethod)
}

func (s *StorageSuite) TestUpdateSettingsRoundTrips() {
	err := s.storage.UpdateSettings(s.ctx, func(st *model.Settings) {
		st.LastLoginMethod = "device"
	})
	s.Require().NoError(err)

	settings, err := s.storage.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("device", settings.LastLoginMethod)
}

func (s *StorageSuite) TestUpdateSettingsPreservesOtherFields() {
	_ = s.storage.UpdateSettings(s.ctx, func(st *model.Settings) {
		st.LastLoginMethod = "device"
	})
	_ = s.storage.UpdateSettings(s.ctx, func(st *model.Settings) {
		st.UpdatedAt = st.UpdatedAt.AddDate(0, 0, 1)
	})

	settings, err := s.storage.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("device", settings.LastLoginMethod)
}

func (s *StorageSuite) TestSaveAndGetProfile() {
	profile := &model.Profile{PlayerID: "p_1", DisplayName: "Alice"}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	got, err := s.storage.GetProfile(s.ctx, "p_1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)
}

func (s *StorageSuite) TestGetProfileNotFound() {
	_, err := s.storage.GetProfile(s.ctx, "p_missing")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *StorageSuite) TestProfileIsStoredWithTTL() {
	profile := &model.Profile{PlayerID: "p_1", DisplayName: "Alice"}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	ttl := s.mini.TTL(profileKey("p_1"))
	s.Equal(DefaultConfig().ProfileTTL, ttl)
}
