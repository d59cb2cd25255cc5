package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the admin role
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"health":        SecurityPublic,
	"statuses":      SecurityPublic,
	"pricing.quote": SecurityPublic,

	"rentals.create":      SecurityAccess,
	"rentals.list":        SecurityAccess,
	"rentals.get":         SecurityAccess,
	"rentals.status":      SecurityAccess,
	"rentals.delivery_qc": SecurityAccess,
	"rentals.return_qc":   SecurityAccess,
	"rentals.issues":      SecurityAccess,
	"closets.stats":       SecurityAccess,

	"rentals.resolution":  SecurityAdmin,
	"rentals.annotations": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to access for unknown routes
	return SecurityAccess
}
