package errors

import (
	"strings"
	"unicode"
)

// Record field limits. Kept deliberately generous; the point is rejecting
// garbage, not constraining prose.
const (
	maxDomainNameLen = 128
	maxPrincipleLen  = 4096
	maxReferenceLen  = 1024
)

// ValidateDomainName validates a domain name for storage.
func ValidateDomainName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return New(ErrCodeInvalidDomain, "domain name cannot be empty")
	}
	if len(trimmed) > maxDomainNameLen {
		return New(ErrCodeInvalidDomain, "domain name too long (max %d characters)", maxDomainNameLen)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDomain, "domain name contains control characters")
		}
	}
	return nil
}

// ValidatePrinciple validates a formula's principle text.
func ValidatePrinciple(principle string) error {
	if strings.TrimSpace(principle) == "" {
		return New(ErrCodeInvalidFormula, "principle cannot be empty")
	}
	if len(principle) > maxPrincipleLen {
		return New(ErrCodeInvalidFormula, "principle too long (max %d characters)", maxPrincipleLen)
	}
	return nil
}

// ValidateReference validates a formula's optional reference text.
func ValidateReference(reference string) error {
	if len(reference) > maxReferenceLen {
		return New(ErrCodeInvalidFormula, "reference too long (max %d characters)", maxReferenceLen)
	}
	return nil
}
