package profile

import "strings"

// Environment is a normalised environment token such as DEV or PROD.
type Environment string

const (
	Dev  Environment = "DEV"
	FAT  Environment = "FAT"
	FWS  Environment = "FWS"
	UAT  Environment = "UAT"
	PRD  Environment = "PRD"
	PRO  Environment = "PRO"
	PROD Environment = "PROD"
)

// Default is used when no environment token is supplied.
const Default = Dev

// Profile source names. Several tokens can share one source.
const (
	sourceDev  = "dev"
	sourceFAT  = "fat"
	sourceUAT  = "uat"
	sourceProd = "prod"
)

var environments = []Environment{Dev, FAT, FWS, UAT, PRD, PRO, PROD}

// Environments returns the supported tokens in declaration order.
func Environments() []Environment {
	out := make([]Environment, len(environments))
	copy(out, environments)
	return out
}

// Normalize trims and uppercases a raw token. Empty or whitespace-only input
// yields Default. Surrounding whitespace is dropped, so " prod " selects PROD
// where a plain uppercase of the raw value would leave it unsupported.
// Unsupported tokens are returned uppercased rather than rejected.
func Normalize(raw string) Environment {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Default
	}
	return Environment(strings.ToUpper(raw))
}

// Known reports whether e is one of the supported tokens.
func (e Environment) Known() bool {
	_, ok := e.Source()
	return ok
}

// Source returns the name of the profile source backing e.
func (e Environment) Source() (string, bool) {
	switch e {
	case Dev:
		return sourceDev, true
	case FAT, FWS:
		return sourceFAT, true
	case UAT:
		return sourceUAT, true
	case PRD, PRO, PROD:
		return sourceProd, true
	default:
		return "", false
	}
}

func (e Environment) String() string {
	return string(e)
}
