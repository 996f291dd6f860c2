// Package library provides the core abstractions and types for the
// library-catalog system: the catalog, user, and borrow-ledger data model,
// the store contracts the services are built against, and the book filter
// used for ranked catalog queries.
//
// The package is persistence-agnostic. Concrete store implementations live
// in the postgresengine and memoryengine subpackages; the services in the
// lending and recommend packages consume the interfaces defined here and
// receive their store handles by injection from the composition root.
//
// Key types:
//   - Book, User, BorrowRecord: the persisted data model
//   - CatalogStore, UserStore, LedgerStore, ProfileStore: store contracts
//   - BookFilter: criteria for ranked catalog queries
//   - PreferenceProfile: a persisted snapshot of a user's genre tally
//
// Common usage pattern:
//
//	filter := library.BuildBookFilter().
//		Matching().
//		AnyGenreOf("Sci-Fi").
//		Finalize()
//
//	books, err := catalog.FindTopByRating(ctx, filter, 3)
//	if err != nil {
//		// handle error
//	}
package library
