// Package model defines the provider‑agnostic abstractions for interacting
// with language models inside agrimesh.
//
// Core goals:
//   - Unify streaming and non‑streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, core.FunctionCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate scripted mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic, Gemini) implement Model in sub-packages so
// the agent and the capability tools remain decoupled from vendor SDKs.
package model
