// Package models defines the core domain models for schedpoint.
//
// # Models
//
//   - User: an account that owns plans and actuals. Its JTI is the
//     revocation marker embedded in every issued token; rotating it
//     invalidates all outstanding tokens for that user.
//   - Category: shared reference data (name + icon) seeded once and tagged
//     onto every time block.
//   - TimeBlock: a user-owned, category-tagged interval with an optional
//     memo. Plans and actuals share this shape and are told apart by Kind.
//
// # Ownership
//
// A user owns its blocks outright: deleting the user deletes them. A
// category is only referenced, but deleting it still removes every block
// that points at it.
//
// # Time
//
// Block bounds are wall-clock instants with no stored zone. They are
// compared as-is, so callers must interpret them in a single location.
package models
