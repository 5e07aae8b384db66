package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or fall back to built-in defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptLegalSystem is the legal-assistant system prompt.
	// This prompt has no format placeholders.
	PromptLegalSystem = "legal_system"

	// PromptLegalAnswer builds the answer request.
	// The template expects %s (context) then %s (question).
	PromptLegalAnswer = "legal_answer"

	// PromptContractComprehensive asks for a full contract review.
	// The template expects a %s placeholder for the contract text.
	PromptContractComprehensive = "contract_comprehensive"

	// PromptContractSummary asks for a contract summary.
	// The template expects a %s placeholder for the contract text.
	PromptContractSummary = "contract_summary"

	// PromptContractCompliance asks for a compliance review.
	// The template expects a %s placeholder for the contract text.
	PromptContractCompliance = "contract_compliance"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use built-in default prompts.
	SetPromptStore(store PromptStore)
}
