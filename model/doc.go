// Package model defines the provider-neutral turn abstraction used to drive
// language models inside expertswarm. One Generate call is one turn: a system
// instruction, the conversation so far and the exposed tools go in, a single
// complete response with text and any function calls comes out.
//
// Providers (Anthropic, OpenAI) implement the Model interface so behaviors,
// the selector and the coordinator stay decoupled from vendor SDKs. MockModel
// offers deterministic canned turns for tests and examples.
package model
