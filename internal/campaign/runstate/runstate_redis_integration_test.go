//go:build integration

package runstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadflow/internal/campaign/models"
	"leadflow/internal/campaign/runstate"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
	"leadflow/pkg/testutil/containers"
)

type RedisRunStateSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisRunStateSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisRunStateSuite))
}

func (s *RedisRunStateSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisRunStateSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisRunStateSuite) TestSnapshotRoundTripWithTTL() {
	ctx := context.Background()
	store := runstate.NewRedis(s.redis.Client, time.Hour)
	campaignID := id.NewCampaignID()

	s.Require().NoError(store.Save(ctx, models.RunState{
		CampaignID: campaignID,
		Status:     models.StatusCompleted,
		Report:     models.Report{Success: true, CampaignID: campaignID},
	}))

	got, err := store.Load(ctx, campaignID)
	s.Require().NoError(err)
	s.True(got.Report.Success)

	ttl, err := s.redis.Client.TTL(ctx, "campaign:"+campaignID.String()+":state").Result()
	s.Require().NoError(err)
	s.InDelta(time.Hour.Seconds(), ttl.Seconds(), 5)

	_, err = store.Load(ctx, id.NewCampaignID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisRunStateSuite) TestLockExclusive() {
	ctx := context.Background()
	lock := runstate.NewRedisLock(s.redis.Client, time.Minute)
	campaignID := id.NewCampaignID()

	release, err := lock.Acquire(ctx, campaignID)
	s.Require().NoError(err)

	_, err = lock.Acquire(ctx, campaignID)
	s.ErrorIs(err, sentinel.ErrLocked)

	s.Require().NoError(release(ctx))
	again, err := lock.Acquire(ctx, campaignID)
	s.Require().NoError(err)
	s.Require().NoError(again(ctx))
}
