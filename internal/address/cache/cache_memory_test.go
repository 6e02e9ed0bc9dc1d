package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cadastro/internal/address/models"
	"cadastro/pkg/platform/sentinel"
)

type InMemoryCacheSuite struct {
	suite.Suite
	now   time.Time
	cache *InMemoryCache
}

func TestInMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCacheSuite))
}

func (s *InMemoryCacheSuite) SetupTest() {
	s.now = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	s.cache = NewInMemoryCache(WithClock(func() time.Time { return s.now }))
}

func (s *InMemoryCacheSuite) TestMissReturnsErrNotFound() {
	_, err := s.cache.Get(context.Background(), "04850280")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryCacheSuite) TestRoundTripWithinTTL() {
	ctx := context.Background()
	addr := models.PostalAddress{PostalCode: "04850280", Street: "Rua Alfa", City: "São Paulo", State: "SP"}
	s.Require().NoError(s.cache.Set(ctx, "04850280", addr, time.Hour))

	s.now = s.now.Add(59 * time.Minute)
	found, err := s.cache.Get(ctx, "04850280")
	s.Require().NoError(err)
	s.Equal(addr, *found)
}

func (s *InMemoryCacheSuite) TestExpiredEntryReadsAsMissAndIsOverwritten() {
	ctx := context.Background()
	stale := models.PostalAddress{PostalCode: "04850280", Street: "Old"}
	s.Require().NoError(s.cache.Set(ctx, "04850280", stale, time.Hour))

	s.now = s.now.Add(time.Hour)
	_, err := s.cache.Get(ctx, "04850280")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Equal(1, s.cache.Len(), "expired entries are not swept")

	fresh := models.PostalAddress{PostalCode: "04850280", Street: "New"}
	s.Require().NoError(s.cache.Set(ctx, "04850280", fresh, time.Hour))
	found, err := s.cache.Get(ctx, "04850280")
	s.Require().NoError(err)
	s.Equal("New", found.Street)
	s.Equal(1, s.cache.Len())
}

func (s *InMemoryCacheSuite) TestReturnedValueIsACopy() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "04850280", models.PostalAddress{Street: "Rua Alfa"}, time.Hour))

	found, err := s.cache.Get(ctx, "04850280")
	s.Require().NoError(err)
	found.Street = "mutated"

	again, err := s.cache.Get(ctx, "04850280")
	s.Require().NoError(err)
	s.Equal("Rua Alfa", again.Street)
}

func (s *InMemoryCacheSuite) TestRejectsNonPositiveTTL() {
	err := s.cache.Set(context.Background(), "04850280", models.PostalAddress{}, 0)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *InMemoryCacheSuite) TestConcurrentAccess() {
	ctx := context.Background()
	cache := NewInMemoryCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = cache.Set(ctx, "04850280", models.PostalAddress{Street: "Rua Alfa"}, time.Minute)
		}()
		go func() {
			defer wg.Done()
			_, _ = cache.Get(ctx, "04850280")
		}()
	}
	wg.Wait()
	found, err := cache.Get(ctx, "04850280")
	s.Require().NoError(err)
	s.Equal("Rua Alfa", found.Street)
}
