package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldSessionID = "session_id"
	FieldOp        = "op"
	FieldEvent     = "event"

	// Channel fields
	FieldAppID       = "app_id"
	FieldChannel     = "channel"
	FieldUID         = "uid"
	FieldUserAccount = "user_account"

	// Recording fields
	FieldPath       = "path"
	FieldMixing     = "mixing"
	FieldResolution = "resolution"
	FieldLayoutMode = "layout_mode"
	FieldRegions    = "regions"
	FieldStatus     = "status"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
