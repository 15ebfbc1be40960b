package model

// Contact is the data structure for a person that we know. All fields except Notes
// are required and non-null for every stored record. The Id is assigned by the
// database and never reused.
type Contact struct {
	Id        int64   `json:"id"         db:"id"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name"  db:"last_name"`
	Email     string  `json:"email"      db:"email"`
	Phone     string  `json:"phone"      db:"phone"`
	Birthday  Date    `json:"birthday"   db:"birthday"`
	Notes     *string `json:"notes"      db:"notes"`
}

// ContactInput is the request payload for creating a contact (POST) or replacing one
// in full (PUT). Every writable field must be present and valid.
type ContactInput struct {
	FirstName string  `json:"first_name" db:"first_name" binding:"required,min=1,max=255"`
	LastName  string  `json:"last_name"  db:"last_name"  binding:"required,min=1,max=255"`
	Email     string  `json:"email"      db:"email"      binding:"required,email,max=255"`
	Phone     string  `json:"phone"      db:"phone"      binding:"required,phone"`
	Birthday  *Date   `json:"birthday"   db:"birthday"   binding:"required"`
	Notes     *string `json:"notes"      db:"notes"      binding:"omitempty,max=5000"`
}

// ContactPatch is the request payload for a partial update (PATCH). Only the fields
// present in the JSON are merged onto the stored record; each one is validated with
// the same rules as on create. An empty patch is a legal no-op.
type ContactPatch struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=255"`
	LastName  *string `json:"last_name"  binding:"omitempty,min=1,max=255"`
	Email     *string `json:"email"      binding:"omitempty,email,max=255"`
	Phone     *string `json:"phone"      binding:"omitempty,phone"`
	Birthday  *Date   `json:"birthday"`
	Notes     *string `json:"notes"      binding:"omitempty,max=5000"`
}

// Empty reports whether the patch carries no fields at all.
func (p ContactPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Phone == nil && p.Birthday == nil && p.Notes == nil
}
