package models

// TravelPatch lists the travel fields a client may change.
// Nil fields are left untouched.
type TravelPatch struct {
	Title       *string `json:"title"`
	City        *string `json:"city"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

// Apply returns the travel with the patch applied
func (p TravelPatch) Apply(t Travel) Travel {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.City != nil {
		t.City = *p.City
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

// Empty reports whether the patch changes nothing
func (p TravelPatch) Empty() bool {
	return p.Title == nil && p.City == nil && p.Description == nil && p.Date == nil
}

// UserPatch lists the user fields that may change on a profile update.
// Password must already be hashed.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
}

// Apply returns the user with the patch applied
func (p UserPatch) Apply(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	return u
}
