// Package tasks runs the long-lived jobs of a host process.
//
// A [Job] is a named function that blocks until its context is cancelled. [Run] starts a set of jobs under one
// [errgroup.Group]: the first job to fail cancels the others and its error is returned once all have stopped.
//
// The serve command runs three jobs this way:
//  1. the HTTP API, wrapped by [HTTPJob] so cancellation triggers a graceful shutdown
//  2. the Home Assistant state stream
//  3. the command queue that delivers service calls
package tasks
