// Package artifact contains implementations of core.ArtifactStore, the store
// for synthesized answer audio served under /get-audio/{filename}.
//
// The interface lives in the core package so the pipeline and the HTTP server
// depend on the contract only. FileStore keeps files in an output directory
// (the production default); InMemoryStore is meant for tests and ephemeral
// deployments.
//
// Artifacts are addressed by bare file names. Names containing a path
// component are rejected with ErrInvalidName.
package artifact
