/*
Package script compiles ability bodies written as HCL statement blocks.

A body is the ordered list of blocks inside an ability block. Every
statement accepts an optional `when` guard and runs only when the guard is
true. Expressions are evaluated when the statement runs, against these
variables:

	here      fields of the current position
	visitor   fields of the walker
	self      fields of the ability owner (the walker or the position)
	global    globals visible to the defining module
	args      arguments the walker was spawned with
	event     "entry" or "exit"
	position  { id, arch, kind } of the current position
	ability   qualified path of the running ability

Statements:

	set "<here|visitor|self>" "<field>" { value = ... }
	global "<name>" { value = ... }
	report { value = ... }
	log { message = ... }
	visit { edge = ..., node = ..., direction = "out", first = false, via_edges = false }
	ignore { edge = ..., node = ..., direction = ... }
	connect "<NodeArch>" { edge = "<EdgeArch>", fields = {...}, edge_fields = {...}, visit = false }
	delete { edge = ..., node = ..., direction = ..., edges = false }
	disengage {}
	fail { message = ... }

Filters (edge, node) take a string or a list of strings naming architypes;
subtypes match. direction is one of "out", "in" or "any".
*/
package script
