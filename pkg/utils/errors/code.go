package errors

// Service codes (AA).
const (
	// ServiceCommon holds base errors shared by all services.
	ServiceCommon = 0

	// ServicePipeline is the query-processing pipeline service.
	ServicePipeline = 21

	// ServiceInfraVector is the vector store infrastructure.
	ServiceInfraVector = 13

	// ServiceThirdPartyLLM covers upstream LLM providers.
	ServiceThirdPartyLLM = 94
)

// Category codes (BB).
const (
	// CategorySuccess indicates success.
	CategorySuccess = 0

	// CategoryRequest indicates request/validation errors (400).
	CategoryRequest = 1

	// CategoryResource indicates resource not found errors (404).
	CategoryResource = 4

	// CategoryRateLimit indicates rate limiting errors (429).
	CategoryRateLimit = 6

	// CategoryInternal indicates internal errors (500).
	CategoryInternal = 7

	// CategoryNetwork indicates network/upstream errors (502/503).
	CategoryNetwork = 10

	// CategoryTimeout indicates timeout errors (504).
	CategoryTimeout = 11

	// CategoryConfig indicates configuration errors (500).
	CategoryConfig = 12
)

// MakeCode builds an AABBCCC error code from its parts.
func MakeCode(service, category, seq int) int {
	return service*100000 + category*1000 + seq
}
