package ecsched

import "github.com/oriumgames/ecsched/internal/scheduler"

// Mode marks whether a declared access is shared (read) or exclusive (write).
type Mode = scheduler.Mode

const (
	Read  = scheduler.Read
	Write = scheduler.Write
)

// AccessBuilder accumulates a system's declared resource and query borrows,
// one call per binding, before being frozen into a BorrowDescriptor at
// insertion. This is the value-level stand-in for the compile-time tuple
// expansion a generics-free host can't express: one AccessBuilder call per
// resource or query takes the place of an arbitrary-arity system signature.
type AccessBuilder = scheduler.AccessBuilder

// QueryBuilder accumulates one query's component access before it is folded
// back into its parent AccessBuilder via End.
type QueryBuilder = scheduler.QueryBuilder

// NewAccessBuilder creates an empty builder.
func NewAccessBuilder() *AccessBuilder { return scheduler.NewAccessBuilder() }

// ReadResource declares a shared borrow of resource type T.
func ReadResource[T any](b *AccessBuilder) *AccessBuilder { return scheduler.ReadResource[T](b) }

// WriteResource declares an exclusive borrow of resource type T.
func WriteResource[T any](b *AccessBuilder) *AccessBuilder { return scheduler.WriteResource[T](b) }

// QueryRead declares that a query requires component type T present and
// reads it.
func QueryRead[T any](q *QueryBuilder) *QueryBuilder { return scheduler.QueryRead[T](q) }

// QueryWrite declares that a query requires component type T present and
// writes it.
func QueryWrite[T any](q *QueryBuilder) *QueryBuilder { return scheduler.QueryWrite[T](q) }
