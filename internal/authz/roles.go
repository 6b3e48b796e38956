package authz

const (
	RoleAdmin       = "admin"
	RoleDirector    = "director"
	RolePathologist = "pathologist"
	RoleInsurance   = "insurance"
)

type Capability string

const (
	CapReportRead     Capability = "reports:read"
	CapReportUpload   Capability = "reports:upload"
	CapReportReview   Capability = "reports:review"
	CapReportExport   Capability = "reports:export"
	CapFileDelete     Capability = "files:delete"
	CapUsageRead      Capability = "usage:read"
	CapPatientSearch  Capability = "patients:search"
	CapReferenceWrite Capability = "reference:write"
	CapReferenceRead  Capability = "reference:read"
	CapAuditRead      Capability = "audit:read"
	CapUserManage     Capability = "users:manage"
	CapOrgManage      Capability = "orgs:manage"
)

// capabilities per role. Admin is handled by wildcard in Authorize, not
// listed here.
var roleCapabilities = map[string]map[Capability]bool{
	RoleDirector: {
		CapReportRead:     true,
		CapReportUpload:   true,
		CapReportReview:   true,
		CapReportExport:   true,
		CapFileDelete:     true,
		CapUsageRead:      true,
		CapReferenceWrite: true,
		CapReferenceRead:  true,
	},
	RolePathologist: {
		CapReportRead:    true,
		CapReportUpload:  true,
		CapReportReview:  true,
		CapReportExport:  true,
		CapUsageRead:     true,
		CapReferenceRead: true,
	},
	RoleInsurance: {
		CapReportRead:    true,
		CapPatientSearch: true,
		CapReferenceRead: true,
	},
}
