// Package gate implements the session-scoped license gate.
//
// A Gate is bound to one browsing session through a Store holding three entries
// (authorized flag, machine identifier, license code). The entries are written
// together on a successful verification and cleared together on a reload.
//
// # States
//
//	Locked   --Verify(mc, code) with code == license.DeriveCode(mc)-->  Unlocked
//	Unlocked --Load(NavigationReload)-->                                Locked
//
// No other transitions exist. A refused verification leaves the stored state
// untouched, and non-reload navigations keep an Unlocked session Unlocked.
//
// The gate is a UX affordance: the derivation it checks against is public, so
// it provides no confidentiality.
package gate
