package domain

import "fmt"

// Module is a membership area of the platform.
type Module string

const (
	ModulePassionSingles Module = "PASSION_SINGLES"
	ModulePassionConnect Module = "PASSION_CONNECT"
	ModulePassionCouples Module = "PASSION_COUPLES"
)

const (
	MinAge               = 18
	PassionConnectMinAge = 25
)

var moduleAccessRules = map[MaritalStatus][]Module{
	MaritalStatusNotInRelationship: {ModulePassionSingles, ModulePassionConnect},
	MaritalStatusInRelationship:    {ModulePassionSingles},
	MaritalStatusMarried:           {ModulePassionCouples},
}

// AllowedModules returns the modules open to a marital status.
func AllowedModules(status MaritalStatus) []Module {
	return moduleAccessRules[status]
}

// CheckModuleAccess applies the age limits and the marital-status table.
// The returned error wraps ErrAccessDenied.
func CheckModuleAccess(u *User, module Module) error {
	if u.Age < MinAge {
		return fmt.Errorf("must be %d or older to access: %w", MinAge, ErrAccessDenied)
	}
	if module == ModulePassionConnect && u.Age < PassionConnectMinAge {
		return fmt.Errorf("must be %d or older to access Passion Connect: %w", PassionConnectMinAge, ErrAccessDenied)
	}
	for _, m := range moduleAccessRules[u.MaritalStatus] {
		if m == module {
			return nil
		}
	}
	return fmt.Errorf("marital status %s does not allow access to this module: %w", u.MaritalStatus, ErrAccessDenied)
}
