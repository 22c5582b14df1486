// Package types holds the small set of domain types shared between the hive
// store, the batch engine and the search engine: registry value types, hive
// types, and typed errors with stable categories.
//
// This package has no dependencies beyond the standard library.
package types
