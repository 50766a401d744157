package services

import "restaurant_pos_backend/internal/models"

// Viewer is the authenticated caller on whose behalf a read happens.
type Viewer struct {
	UserID int64
	Role   string
}

// CanViewAll reports whether the viewer may see every user's records.
func (v Viewer) CanViewAll() bool {
	return v.Role == models.RoleAdmin || v.Role == models.RoleCashier
}

// CanSee reports whether a record owned by ownerID is visible to the viewer.
func (v Viewer) CanSee(ownerID int64) bool {
	return v.CanViewAll() || v.UserID == ownerID
}
