// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the lexrag config directory (~/.lexrag).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable LLM prompt templates, seeded from the
//     embedded defaults directory
package file
