package auth

// Principal is the identity resolved from a credential for a single request.
type Principal struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           Role   `json:"role"`
}

// BelongsTo reports whether the principal may act on resources of tenant `orgID`.
func (p Principal) BelongsTo(orgID string) bool {
	return p.Role.IsSuper() || p.OrganizationID == orgID
}
