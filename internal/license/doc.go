// Package license derives machine identifiers and license codes for the site gate.
//
// Two pure derivations live here:
//   - DeriveMachineID: query parameters or environment descriptors → "A-B" identifier
//   - DeriveCode: "A-B" identifier → "PPPPPP-PPPPPP-PPPPP" license code
//
// Both derivations run on the same side as the comparison that consumes them, so the
// scheme is a deterministic checksum and not an access-control boundary. Anyone holding
// the identifier can compute the code.
//
// # Seed Hashing
//
// Seeds are hashed over UTF-16 code units, the same units a browser's charCodeAt
// reports, so identifiers computed here match the ones the site pages compute for
// non-ASCII seeds.
//
// # Failure Values
//
// Nothing in this package returns an error to the page layer:
//   - Malformed identifiers derive the ErrorCode sentinel
//   - Environment failures derive FallbackMachineID
package license
