package repository

import "github.com/duynhne/wanderlust/internal/core/domain"

var (
	_ domain.ListingRepository = (*PgxListingRepository)(nil)
	_ domain.ListingRepository = (*MongoListingRepository)(nil)
	_ domain.ListingRepository = (*MemoryListingRepository)(nil)

	_ domain.ReviewRepository = (*PgxReviewRepository)(nil)
	_ domain.ReviewRepository = (*MongoReviewRepository)(nil)
	_ domain.ReviewRepository = (*MemoryReviewRepository)(nil)

	_ domain.UserRepository = (*PgxUserRepository)(nil)
	_ domain.UserRepository = (*MongoUserRepository)(nil)
	_ domain.UserRepository = (*MemoryUserRepository)(nil)

	_ domain.SessionRepository = (*PgxSessionRepository)(nil)
	_ domain.SessionRepository = (*MongoSessionRepository)(nil)
	_ domain.SessionRepository = (*RedisSessionRepository)(nil)
	_ domain.SessionRepository = (*MemorySessionRepository)(nil)
)
