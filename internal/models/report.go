package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

type PatientInfo struct {
	Name      string `json:"name"`
	Age       *int   `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	MRN       string `json:"mrn,omitempty"`
	Physician string `json:"physician,omitempty"`
}

type Report struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	OrganizationID       uuid.UUID       `json:"organization_id" db:"organization_id"`
	OriginalFile         string          `json:"original_file" db:"original_file"`
	AIAnalysis           json.RawMessage `json:"ai_analysis,omitempty" db:"ai_analysis"`
	MuainaInterpretation json.RawMessage `json:"muaina_interpretation,omitempty" db:"muaina_interpretation"`
	PatientInfo          PatientInfo     `json:"patient_info" db:"patient_info"`
	ReviewStatus         string          `json:"review_status" db:"review_status"`
	ReviewedAt           *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy           *uuid.UUID      `json:"reviewed_by,omitempty" db:"reviewed_by"`
	CreatedBy            *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// Approved reports whether the report has passed review. Only approved
// reports may be exported or disclosed to insurance readers.
func (r *Report) Approved() bool {
	return r.ReviewStatus == ReviewApproved
}
