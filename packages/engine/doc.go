// Package engine drives declarative HTTP endpoint tests: the single
// endpoint executor resolves templates, issues the call, and runs the
// response through analysis, assertion evaluation, and variable extraction;
// the orchestrator chains executors into sequential or bounded-parallel
// batches and aggregates the outcome.
package engine
