// Package hclmodule loads module trees from .hcl files. Every file is one
// module, named by its `module` attribute or, failing that, by the file
// stem. Ability bodies are compiled with the script package or bound to a
// native Go body by name.
package hclmodule
