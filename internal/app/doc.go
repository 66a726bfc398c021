// Package app contains the core application logic. It wires the module
// loader, the runtime, the inspection server, the trace sink and the
// snapshot store together, decoupled from any specific entrypoint like a
// CLI.
package app
