// Package agent implements the tool-dispatch agent: one conversational turn
// turns a user utterance into an answer, calling at most a bounded number of
// capability tools on the way.
//
// The package focuses on three concerns:
//
//  1. Turn orchestration (Agent.RunTurn): session locking, history, limits
//  2. Decision policy behind the Planner interface (ModelPlanner, IntentPlanner)
//  3. Safe tool execution (Executor): panic recovery, dedup, cancellation
//
// Execution Model:
//   - RunTurn locks the session, snapshots its history and builds a TurnState
//   - The planner returns either tool calls or a final answer
//   - Tool results are added to the TurnState and the planner is asked again
//   - On success the utterance and the answer are appended, in that order
//
// A failed turn (model failure, tool limit, timeout) appends nothing.
package agent
