// Package main hosts the bibdup CLI entrypoint and command graph.
//
// The Cobra-based command tree covers record ingestion with immediate
// duplicate resolution, batch scans over recently added records,
// administrative deletion, and configuration scaffolding. It centralizes
// configuration resolution, store access, library locking, and structured
// logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
