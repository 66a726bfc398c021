// Package module defines the structured module trees the core consumes and
// the import dependency graph between them.
//
// A Module is an ordered list of elements: architype declarations with their
// fields and ability slots, out-of-line ability definitions, globals,
// imports, tests and seed graphs. Trees are produced by a front end (the HCL
// loader, or Go code in tests) and are treated as immutable once handed to
// the resolver.
package module
