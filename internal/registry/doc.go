// Package registry is the symbol table of the runtime: it stores architype
// records, their ability slots and the ability definitions collected from
// every loaded module.
//
// The registry is populated in two phases. During collection, declarations
// and definitions are recorded in any order, so a definition may arrive
// before the slot it belongs to. The resolver then links inheritance, binds
// definitions to slots and freezes the registry. A frozen registry rejects
// every change but accepts re-registration of identical data, which keeps
// resolution idempotent.
//
// All registry errors are *Error values wrapping one of the package
// sentinels, so callers can match with errors.Is and still report the exact
// architype or ability path.
package registry
