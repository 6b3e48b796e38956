package models

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is global reference data, shared across organizations.
// Only admins and directors may create or delete entries.
type Doctor struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Specialty string     `json:"specialty,omitempty" db:"specialty"`
	LicenseNo string     `json:"license_no,omitempty" db:"license_no"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
