package constants

// Действия журнала аудита (в том виде, в котором уходят в экспорт).
const (
	AuditDeviceCreated     = "Device Created"
	AuditDeviceUpdated     = "Device Updated"
	AuditDeviceDeleted     = "Device Deleted"
	AuditTechnicianChanged = "Technician Changed"
	AuditStatusChanged     = "Status Changed"
	AuditWorkStatusUpdated = "Work Status Updated"
	AuditPriorityChanged   = "Priority Changed"
	AuditDueDateChanged    = "Due Date Changed"
	AuditManagerApproval   = "Manager Approval"
	AuditDiagnosisAdded    = "Diagnosis Added"
	AuditDiagnosisEdited   = "Diagnosis Edited"
	AuditDiagnosisDeleted  = "Diagnosis Deleted"
)

// Действия истории устройства (машиночитаемые коды таймлайна).
const (
	HistoryCreated          = "Created"
	HistoryUpdated          = "Updated"
	HistoryAssigned         = "Assigned"
	HistoryUnassigned       = "Unassigned"
	HistoryStatusChanged    = "StatusChanged"
	HistoryPriorityChanged  = "PriorityChanged"
	HistoryDueDateChanged   = "DueDateChanged"
	HistoryDiagnosisAdded   = "DiagnosisAdded"
	HistoryDiagnosisEdited  = "DiagnosisEdited"
	HistoryDiagnosisDeleted = "DiagnosisDeleted"
	HistoryApproved         = "Approved"
	HistoryRestored         = "Restored"
)
