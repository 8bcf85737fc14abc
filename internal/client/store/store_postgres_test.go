//go:build integration

package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"backoffice/internal/client/models"
	"backoffice/internal/platform/postgres"
	"backoffice/pkg/platform/sentinel"
)

type PostgresSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *sql.DB
	store     *Postgres
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("backoffice"),
		tcpostgres.WithUsername("backoffice"),
		tcpostgres.WithPassword("backoffice"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := postgres.Open(url)
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(postgres.EnsureSchema(ctx, db))
	s.store = NewPostgres(db)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE clients CASCADE`)
	s.Require().NoError(err)
}

func testClient(code, taxID string) models.Client {
	return models.Client{
		Code:         code,
		TaxID:        taxID,
		BusinessName: "TEST SA",
		ContactName:  "NO INITIAL DATA",
		Address:      "NO INITIAL DATA",
		Phone:        "1155550000",
		Email:        "NO INITIAL DATA",
		PasswordHash: "x",
	}
}

func (s *PostgresSuite) TestBulkInsertReportsDuplicates() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, testClient("ABC123", "20123456783")))

	res, err := s.store.BulkInsert(ctx, []models.Client{
		testClient("ABC123", "27000000001"), // code collides
		testClient("DEF456", "20123456783"), // tax id collides
		testClient("GHI789", "23111111119"), // lands
	})
	s.Require().NoError(err)

	s.Equal(1, res.Inserted)
	s.Require().Len(res.Rejected, 2)
	s.Equal("ABC123", res.Rejected[0].Primary)
	s.Equal("DEF456", res.Rejected[1].Primary)

	_, err = s.store.FindByCode(ctx, "GHI789")
	s.NoError(err)
}

func (s *PostgresSuite) TestBulkInsertReportsWithinPayloadDuplicates() {
	ctx := context.Background()

	res, err := s.store.BulkInsert(ctx, []models.Client{
		testClient("ABC123", "20123456783"),
		testClient("ABC123", "27000000001"), // code repeats within the payload
		testClient("DEF456", "20123456783"), // tax id repeats within the payload
	})
	s.Require().NoError(err)

	s.Equal(1, res.Inserted)
	s.Require().Len(res.Rejected, 2)
	s.Equal("ABC123", res.Rejected[0].Primary)
	s.Contains(res.Rejected[0].Reason, "client code")
	s.Equal("DEF456", res.Rejected[1].Primary)
	s.Contains(res.Rejected[1].Reason, "tax id")

	got, err := s.store.FindByCode(ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("20123456783", got.TaxID)
}

func (s *PostgresSuite) TestBulkInsertIsIdempotent() {
	ctx := context.Background()
	batch := []models.Client{
		testClient("ABC123", "20123456783"),
		testClient("DEF456", "27999999994"),
	}

	first, err := s.store.BulkInsert(ctx, batch)
	s.Require().NoError(err)
	s.Equal(2, first.Inserted)
	s.Empty(first.Rejected)

	second, err := s.store.BulkInsert(ctx, batch)
	s.Require().NoError(err)
	s.Zero(second.Inserted)
	s.Len(second.Rejected, 2)
}

func (s *PostgresSuite) TestFindByKeysMatchesEitherKey() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, testClient("ABC123", "20123456783")))
	s.Require().NoError(s.store.Create(ctx, testClient("DEF456", "27999999994")))

	found, err := s.store.FindByKeys(ctx, []string{"ABC123"}, []string{"27999999994"})
	s.Require().NoError(err)
	s.Len(found, 2)
}

func (s *PostgresSuite) TestCreateDuplicateKey() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, testClient("ABC123", "20123456783")))

	err := s.store.Create(ctx, testClient("ABC123", "27999999994"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresSuite) TestUpdateAndNotFound() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, testClient("ABC123", "20123456783")))

	c := testClient("ABC123", "20123456783")
	c.BusinessName = "RENAMED SA"
	s.Require().NoError(s.store.Update(ctx, c))

	got, err := s.store.FindByCode(ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("RENAMED SA", got.BusinessName)
	s.Equal("20123456783", got.TaxID)

	missing := testClient("ZZZ999", "23111111119")
	s.ErrorIs(s.store.Update(ctx, missing), sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestListSearchAndPaging() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, testClient("ABC123", "20123456783")))
	s.Require().NoError(s.store.Create(ctx, testClient("DEF456", "27999999994")))
	s.Require().NoError(s.store.Create(ctx, testClient("GHI789", "23111111119")))

	items, total, err := s.store.List(ctx, ListQuery{Search: "DEF"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal("DEF456", items[0].Code)

	items, total, err = s.store.List(ctx, ListQuery{Page: 2, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(items, 1)
	s.Equal("GHI789", items[0].Code)
}
