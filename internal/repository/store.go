package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/store"
)

// Store is the postgres backed store.Store. Repositories are cheap views
// over the current querier, either the pool or an open transaction.
type Store struct {
	pool *pgxpool.Pool
	db   database.Querier
	inTx bool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (s *Store) Users() store.UserStore             { return NewUserRepository(s.db) }
func (s *Store) Restaurants() store.RestaurantStore { return NewRestaurantRepository(s.db) }
func (s *Store) Reviews() store.ReviewStore         { return NewReviewRepository(s.db) }
func (s *Store) Reports() store.ReportStore         { return NewReportRepository(s.db) }
func (s *Store) Audit() store.AuditStore            { return NewAuditRepository(s.db) }
func (s *Store) Menu() store.MenuStore              { return NewMenuRepository(s.db) }
func (s *Store) Favorites() store.FavoriteStore     { return NewFavoriteRepository(s.db) }
func (s *Store) Sessions() store.SessionStore       { return NewSessionRepository(s.db) }
func (s *Store) Stats() store.StatsStore            { return NewStatsRepository(s.db) }

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, db: tx, inTx: true})
	})
}

var _ store.Store = (*Store)(nil)
