package session

import "slices"

// RoleAdmin is the role reported by IsAdmin.
const RoleAdmin = "admin"

// User is the profile of the signed-in account.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Avatar      string   `json:"avatar"`
	UID         string   `json:"uid"`
	BCoin       int64    `json:"bcoin"`
	Coin        int64    `json:"coin"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Stats       Stats    `json:"stats"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type Stats struct {
	Posts   int64 `json:"posts"`
	Follows int64 `json:"follows"`
	Fans    int64 `json:"fans"`
}

// Clone returns a deep copy. A nil user clones to nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Permissions = slices.Clone(u.Permissions)
	return &c
}

// HasPermission reports whether the permission set contains name.
func (u *User) HasPermission(name string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Permissions, name)
}
