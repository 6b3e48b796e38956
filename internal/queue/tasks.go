package queue

const (
	TypeReportAnalyze  = "report:analyze"
	TypeLastSeenUpdate = "user:lastseen"
	TypeAuditWrite     = "audit:write"
)

type ReportAnalyzePayload struct {
	ReportID       string `json:"report_id"`
	OrganizationID string `json:"organization_id"`
}

type LastSeenPayload struct {
	UserID string `json:"user_id"`
	SeenAt string `json:"seen_at"` // RFC 3339
}

type AuditWritePayload struct {
	OrganizationID string                 `json:"organization_id"`
	UserID         string                 `json:"user_id,omitempty"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type,omitempty"`
	ResourceID     string                 `json:"resource_id,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	IPAddress      string                 `json:"ip_address,omitempty"`
}
