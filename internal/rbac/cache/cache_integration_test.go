//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatehouse/internal/platform/redis"
	"gatehouse/internal/rbac/cache"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
	"gatehouse/pkg/testutil/containers"
)

type CacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Cache
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = cache.New(&redis.Client{Client: s.redis.Client}, time.Minute)
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CacheSuite) TestRoundTrip() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	_, err := s.cache.Get(ctx, tenantID, actorID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	permissions := []string{"view_user", "update_user"}
	s.Require().NoError(s.cache.Set(ctx, tenantID, actorID, permissions))

	got, err := s.cache.Get(ctx, tenantID, actorID)
	s.Require().NoError(err)
	s.Equal(permissions, got)
}

func (s *CacheSuite) TestEmptyPermissionSetIsCacheable() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	// An actor with no roles is a valid, cacheable answer distinct from a miss.
	s.Require().NoError(s.cache.Set(ctx, tenantID, actorID, []string{}))

	got, err := s.cache.Get(ctx, tenantID, actorID)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *CacheSuite) TestInvalidateTenantOrphansAllActors() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	actorA := id.ActorID(uuid.New())
	actorB := id.ActorID(uuid.New())

	s.Require().NoError(s.cache.Set(ctx, tenantID, actorA, []string{"view_user"}))
	s.Require().NoError(s.cache.Set(ctx, tenantID, actorB, []string{"update_user"}))

	s.Require().NoError(s.cache.InvalidateTenant(ctx, tenantID))

	_, err := s.cache.Get(ctx, tenantID, actorA)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.cache.Get(ctx, tenantID, actorB)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CacheSuite) TestInvalidationIsTenantScoped() {
	ctx := context.Background()
	tenantA := id.TenantID(uuid.New())
	tenantB := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	s.Require().NoError(s.cache.Set(ctx, tenantA, actorID, []string{"view_user"}))
	s.Require().NoError(s.cache.Set(ctx, tenantB, actorID, []string{"view_user"}))

	s.Require().NoError(s.cache.InvalidateTenant(ctx, tenantA))

	_, err := s.cache.Get(ctx, tenantA, actorID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	got, err := s.cache.Get(ctx, tenantB, actorID)
	s.Require().NoError(err)
	s.Equal([]string{"view_user"}, got)
}

func (s *CacheSuite) TestSetAfterInvalidationLandsInNewGeneration() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	s.Require().NoError(s.cache.Set(ctx, tenantID, actorID, []string{"view_user"}))
	s.Require().NoError(s.cache.InvalidateTenant(ctx, tenantID))
	s.Require().NoError(s.cache.Set(ctx, tenantID, actorID, []string{"view_any_user"}))

	got, err := s.cache.Get(ctx, tenantID, actorID)
	s.Require().NoError(err)
	s.Equal([]string{"view_any_user"}, got)
}
