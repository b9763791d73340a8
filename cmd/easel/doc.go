// Package main hosts the Easel CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into REST
// calls against the generation backend, queue inspection and maintenance
// operations, submission history queries, and configuration scaffolding. It
// centralizes configuration resolution and client construction so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
