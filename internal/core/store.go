package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/wanderlust/internal/core/domain"
	"github.com/duynhne/wanderlust/internal/core/repository"
)

// Supported backends.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

// Options selects and locates the backing stores.
type Options struct {
	Driver            string
	DatabaseURL       string
	MongoDatabase     string
	MongoTransactions bool
	SessionStore      string
	RedisAddr         string
	RedisPassword     string
}

// Store bundles the repositories of one configured backend.
type Store struct {
	Listings domain.ListingRepository
	Reviews  domain.ReviewRepository
	Users    domain.UserRepository
	Sessions domain.SessionRepository

	pingers []func(context.Context) error
	closers []func(context.Context) error
	purge   func(context.Context) (int64, error)
}

// Open connects to the configured backend. Connection failures are returned
// to the caller, which treats them as fatal at startup.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := &Store{}
	var dbSessions domain.SessionRepository

	switch opts.Driver {
	case DriverMongo:
		client, db, err := ConnectMongo(ctx, opts.DatabaseURL, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.Listings = repository.NewMongoListingRepository(db, opts.MongoTransactions)
		s.Reviews = repository.NewMongoReviewRepository(db, opts.MongoTransactions)
		s.Users = repository.NewMongoUserRepository(db)
		dbSessions = repository.NewMongoSessionRepository(db)
		s.pingers = append(s.pingers, func(ctx context.Context) error { return client.Ping(ctx, nil) })
		s.closers = append(s.closers, client.Disconnect)
		log.Info().Str("database", opts.MongoDatabase).Bool("transactions", opts.MongoTransactions).Msg("MongoDB connected")

	case DriverPostgres:
		pool, err := ConnectPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.Listings = repository.NewListingRepository(pool)
		s.Reviews = repository.NewReviewRepository(pool)
		s.Users = repository.NewUserRepository(pool)
		pgSessions := repository.NewSessionRepository(pool)
		dbSessions = pgSessions
		s.pingers = append(s.pingers, pool.Ping)
		s.closers = append(s.closers, func(context.Context) error { pool.Close(); return nil })
		if opts.SessionStore == SessionStoreDatabase {
			s.purge = pgSessions.DeleteExpired
		}
		log.Info().Msg("Database connection pool established")

	case DriverMemory:
		mem := repository.NewMemoryStore()
		s.Listings = mem.Listings()
		s.Reviews = mem.Reviews()
		s.Users = mem.Users()
		dbSessions = mem.Sessions()
		log.Warn().Msg("Using in-memory store; data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}

	switch opts.SessionStore {
	case SessionStoreDatabase, "":
		s.Sessions = dbSessions
	case SessionStoreMemory:
		s.Sessions = repository.NewMemoryStore().Sessions()
	case SessionStoreRedis:
		rs := repository.NewRedisSessionRepository(opts.RedisAddr, opts.RedisPassword)
		if err := rs.Ping(ctx); err != nil {
			_ = s.Close(context.Background())
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.Sessions = rs
		s.pingers = append(s.pingers, rs.Ping)
		s.closers = append(s.closers, func(context.Context) error { return rs.Close() })
		log.Info().Str("addr", opts.RedisAddr).Msg("Redis session store connected")
	default:
		_ = s.Close(context.Background())
		return nil, fmt.Errorf("unknown session store %q", opts.SessionStore)
	}
	return s, nil
}

// NewMemory returns a Store backed entirely by one MemoryStore.
func NewMemory() *Store {
	mem := repository.NewMemoryStore()
	return &Store{
		Listings: mem.Listings(),
		Reviews:  mem.Reviews(),
		Users:    mem.Users(),
		Sessions: mem.Sessions(),
	}
}

// Ping checks every connected backend.
func (s *Store) Ping(ctx context.Context) error {
	for _, ping := range s.pingers {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
	}
	return nil
}

// PurgeExpiredSessions removes expired sessions for backends without native TTL.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	if s.purge == nil {
		return 0, nil
	}
	return s.purge(ctx)
}

// Close releases every connection, in reverse order of opening.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
