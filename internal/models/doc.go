// Package models defines the core domain models for Core Padel.
//
// # Models
//
//   - Court: a bookable padel court (read-only, seeded by migrations)
//   - Booking: a 75-minute reservation of one court at one start time
//   - Participant: a player attached to a booking (one owner, up to three players)
//   - User: a registered account
//   - Profile: supplementary contact details for a user
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships use ID fields; read models may carry
// denormalized copies (e.g. Booking.Court) filled in by the store.
// 2. **String enums**: statuses and roles are typed strings matching the values stored in
// the database and sent over the wire.
// 3. **Calendar values as strings**: booking dates are "YYYY-MM-DD" and start times are
// "HH:MM:SS" in storage, so they compare lexically and survive both SQL backends unchanged.
package models
