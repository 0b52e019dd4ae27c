package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTask is the standardized structured logging key for task source paths.
	FieldTask = "task"
	// FieldTaskName is the standardized structured logging key for task display names.
	FieldTaskName = "task_name"
	// FieldStatus is the standardized structured logging key for task statuses.
	FieldStatus = "status"
	// FieldState is the standardized structured logging key for pipeline states.
	FieldState = "state"
	// FieldCorrelationID is the standardized structured logging key for operation correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags log lines with a machine-matchable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next debugging step for a failure.
	FieldErrorHint = "error_hint"
)
