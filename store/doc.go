// Package store reads the pricing analytics warehouse. It exposes a thin
// map-based query layer for the dynamic pivot statements, a cached querier
// for reusable raw SQL, and the tariff reference catalog with write-path
// cache busting.
package store
