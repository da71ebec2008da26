//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"credsearch/internal/search/store"
	"credsearch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	st, err := store.NewPostgres(s.postgres.Pool, store.DefaultTable)
	s.Require().NoError(err)
	s.store = st
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), store.DefaultTable))
}

func (s *PostgresStoreSuite) seed(rows ...store.Record) {
	ctx := context.Background()
	for _, r := range rows {
		_, err := s.postgres.Pool.Exec(ctx,
			"INSERT INTO logins (domain, login_data) VALUES ($1, $2)", r.Domain, r.Line)
		s.Require().NoError(err)
	}
}

func (s *PostgresStoreSuite) TestLiteralKeyFanout() {
	s.seed(
		store.Record{Domain: "a.abc.com", Line: "u1:p1"},
		store.Record{Domain: "ABC.com", Line: "u2:p2"},
		store.Record{Domain: "b.abc.org", Line: "u3:p3"},
	)

	got := s.store.Query(context.Background(), "abc.com")
	s.ElementsMatch([]string{"u1:p1", "u2:p2"}, got.Records())
}

func (s *PostgresStoreSuite) TestWildcardSuffix() {
	s.seed(
		store.Record{Domain: "portal.gov.br", Line: "br:1"},
		store.Record{Domain: "nasa.gov", Line: "us:1"},
		store.Record{Domain: "gsa.gov", Line: "us:2"},
	)

	got := s.store.Query(context.Background(), "*.gov")
	s.Equal([]string{"us:2", "us:1"}, got.Records())
}

func (s *PostgresStoreSuite) TestGovernmentBranch() {
	s.seed(
		store.Record{Domain: "datasus.saude.gov.br", Line: "a:1"},
		store.Record{Domain: "sistema.datasus.gov.br", Line: "b:2"},
		store.Record{Domain: "unrelated.com", Line: "c:3"},
	)

	got := s.store.Query(context.Background(), "datasus.saude.gov.br")
	s.True(got.Contains("a:1"))
	s.True(got.Contains("b:2"))
	s.False(got.Contains("c:3"))
}

func (s *PostgresStoreSuite) TestCount() {
	s.seed(
		store.Record{Domain: "netflix.com", Line: "a"},
		store.Record{Domain: "netflix.com", Line: "b"},
		store.Record{Domain: "gmail.com", Line: "c"},
	)

	counts, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(3), counts.Records)
	s.Equal(int64(2), counts.Domains)
}
