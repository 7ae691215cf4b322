// Package repository provides data access interfaces and implementations
// for the course service.
//
// Repositories follow the repository pattern: interfaces abstract persistence
// from business logic, and PostgreSQL implementations accept a DBTX so they
// work against both a connection pool and a transaction. All implementations
// are safe for concurrent use; pgxpool handles pooling and synchronization.
//
// Methods return domain-specific errors: domain.ErrNotFound for missing rows,
// domain.ErrAlreadyExists for unique violations, domain.ErrInvalidInput for
// bad parameters. Database errors are wrapped with fmt.Errorf and %w.
package repository

import (
	"github.com/ddalkkak/course-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
//
// Repository implementations follow a constructor pattern that accepts DBTX:
//
//	placeRepo := repository.NewPgPlaceRepository(db)
//
// For atomic operations, pass a transaction instead:
//
//	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
//	    txRepo := repository.NewPgPlaceRepository(tx)
//	    _, err := txRepo.Save(ctx, place)
//	    return err
//	})
type DBTX = database.DBTX
