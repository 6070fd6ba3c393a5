// Package catalog loads the code catalog and renders it as cards.
//
// The catalog is a JSON array of records (name, description, version,
// category, docPath). Loading never fails from the caller's point of view:
// a timeout, network error, non-200 status or malformed body all yield an
// empty catalog, which renders as a single placeholder element.
//
// Cards carry action affordances that depend on the gate status. Unlocked
// cards link to their documentation; Locked cards carry gated buttons that
// open the gate prompt instead.
package catalog
