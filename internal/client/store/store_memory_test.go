package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"backoffice/internal/client/models"
	"backoffice/pkg/platform/sentinel"
)

type MemorySuite struct {
	suite.Suite
	store *Memory
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func (s *MemorySuite) SetupTest() {
	s.store = NewMemory()
}

func (s *MemorySuite) seed(code, taxID string) models.Client {
	c := models.Client{
		Code:         code,
		TaxID:        taxID,
		BusinessName: "TEST SA",
		Phone:        "1155550000",
	}
	s.Require().NoError(s.store.Create(context.Background(), c))
	return c
}

func (s *MemorySuite) TestFindByKeysMatchesEitherKey() {
	s.seed("ABC123", "20123456783")
	s.seed("DEF456", "27999999994")

	found, err := s.store.FindByKeys(context.Background(), []string{"ABC123"}, []string{"27999999994"})
	s.Require().NoError(err)
	s.Len(found, 2)

	found, err = s.store.FindByKeys(context.Background(), []string{"ZZZ999"}, nil)
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *MemorySuite) TestBulkInsertRejectsCollisions() {
	s.seed("ABC123", "20123456783")

	res, err := s.store.BulkInsert(context.Background(), []models.Client{
		{Code: "ABC123", TaxID: "27000000001"},
		{Code: "DEF456", TaxID: "20123456783"},
		{Code: "GHI789", TaxID: "23111111119"},
	})
	s.Require().NoError(err)
	s.Equal(1, res.Inserted)
	s.Require().Len(res.Rejected, 2)
	s.Contains(res.Rejected[0].Reason, "client code")
	s.Contains(res.Rejected[1].Reason, "tax id")
}

func (s *MemorySuite) TestBulkInsertRejectsWithinBatch() {
	res, err := s.store.BulkInsert(context.Background(), []models.Client{
		{Code: "ABC123", TaxID: "20123456783"},
		{Code: "ABC123", TaxID: "27999999994"},
	})
	s.Require().NoError(err)
	s.Equal(1, res.Inserted)
	s.Len(res.Rejected, 1)
}

func (s *MemorySuite) TestCreateDuplicate() {
	s.seed("ABC123", "20123456783")

	err := s.store.Create(context.Background(), models.Client{Code: "ABC123", TaxID: "27999999994"})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	err = s.store.Create(context.Background(), models.Client{Code: "DEF456", TaxID: "20123456783"})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *MemorySuite) TestUpdatePreservesKeysAndCredential() {
	ctx := context.Background()
	c := s.seed("ABC123", "20123456783")

	c.TaxID = "27999999994"
	c.BusinessName = "RENAMED SA"
	s.Require().NoError(s.store.Update(ctx, c))

	got, err := s.store.FindByCode(ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("20123456783", got.TaxID)
	s.Equal("RENAMED SA", got.BusinessName)

	s.ErrorIs(s.store.Update(ctx, models.Client{Code: "ZZZ999"}), sentinel.ErrNotFound)
}

func (s *MemorySuite) TestListSearchAndPaging() {
	s.seed("ABC123", "20123456783")
	s.seed("DEF456", "27999999994")
	s.seed("GHI789", "23111111119")

	items, total, err := s.store.List(context.Background(), ListQuery{Search: "def"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal("DEF456", items[0].Code)

	items, total, err = s.store.List(context.Background(), ListQuery{Page: 2, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(items, 1)
	s.Equal("GHI789", items[0].Code)
}
