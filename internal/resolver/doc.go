/*
Package resolver unifies ability declarations with their definitions across a
set of modules before anything runs.

Resolution has three phases:

 1. Order: the import graph is validated (unknown imports are errors) and
    modules are ordered imports-first, ties broken by name. Import cycles are
    tolerated since binding is global.
 2. Collect: every architype, ability slot, inline definition and out-of-line
    definition is registered. Definitions may precede their declaration.
 3. Bind: inheritance is linked, then every definition is attached to its
    slot. A definition without a slot, and a concrete slot without a
    definition, are errors naming the exact ability path.

Every error from every phase is collected and returned once as an *Errors
value. On success the registry is frozen. Resolving the same module set
against the frozen registry again is a no-op that reports no error.
*/
package resolver
