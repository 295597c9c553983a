package openrouter

import "github.com/forPelevin/hookscan/internal/ports/adapters/endpoint"

const DefaultBaseURL = "https://openrouter.ai"

var DefaultAllowedHosts = []string{"openrouter.ai", "api.openrouter.ai"}

func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	return endpoint.Validate("OPENROUTER_BASE_URL", endpoint.Normalize(baseURL, DefaultBaseURL), allowedHosts, DefaultAllowedHosts)
}
