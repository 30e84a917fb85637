package activity

import (
	"strings"
	"time"
)

// SourceContext describes the file a parameter event relates to.
type SourceContext struct {
	Name string
	Path string
	ETag string
}

// ParamEventInput describes the common fields for parameter lifecycle events.
type ParamEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Key            string
	Keys           []string
	OldValue       any
	NewValue       any
	Source         SourceContext
	OccurredAt     time.Time
}

// Verbs emitted by a Store.
const (
	VerbCreated     = "params.created"
	VerbUpdated     = "params.updated"
	VerbDeleted     = "params.deleted"
	VerbInitialized = "params.initialized"
	VerbMigrated    = "params.migrated"
	VerbReconciled  = "params.reconciled"
	VerbRefreshed   = "params.refreshed"
)

// Object types: a single key, or the parameter file as a whole.
const (
	ObjectKey  = "params.key"
	ObjectFile = "params.file"
)

// Metadata keys set by the builders.
const (
	MetaKey        = "key"
	MetaKeys       = "keys"
	MetaSourceName = "source_name"
	MetaSourcePath = "source_path"
	MetaETag       = "etag"
	MetaOldValue   = "old_value"
	MetaNewValue   = "new_value"
)

// BuildParamCreatedEvent describes a key added through Put.
func BuildParamCreatedEvent(input ParamEventInput) Event {
	return buildParamEvent(VerbCreated, ObjectKey, input)
}

// BuildParamUpdatedEvent describes an existing key changed through Put.
func BuildParamUpdatedEvent(input ParamEventInput) Event {
	return buildParamEvent(VerbUpdated, ObjectKey, input)
}

// BuildParamDeletedEvent describes a key removed through Delete.
func BuildParamDeletedEvent(input ParamEventInput) Event {
	return buildParamEvent(VerbDeleted, ObjectKey, input)
}

// BuildParamsInitializedEvent describes a first run that created the file.
func BuildParamsInitializedEvent(input ParamEventInput) Event {
	return buildParamEvent(VerbInitialized, ObjectFile, input)
}

// BuildParamsMigratedEvent describes an import from the legacy file.
func BuildParamsMigratedEvent(input ParamEventInput) Event {
	return buildParamEvent(VerbMigrated, ObjectFile, input)
}

// BuildParamsReconciledEvent describes defaults merged into a loaded file.
func BuildParamsReconciledEvent(input ParamEventInput) Event {
	return buildParamEvent(VerbReconciled, ObjectFile, input)
}

// BuildParamsRefreshedEvent describes changes picked up from disk.
func BuildParamsRefreshedEvent(input ParamEventInput) Event {
	return buildParamEvent(VerbRefreshed, ObjectFile, input)
}

func buildParamEvent(verb, objectType string, input ParamEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any, present bool) {
		if !present {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	set(MetaKey, input.Key, input.Key != "")
	set(MetaKeys, append([]string{}, input.Keys...), len(input.Keys) > 0)
	set(MetaSourceName, input.Source.Name, input.Source.Name != "")
	set(MetaSourcePath, input.Source.Path, input.Source.Path != "")
	set(MetaETag, input.Source.ETag, input.Source.ETag != "")
	set(MetaOldValue, input.OldValue, input.OldValue != nil)
	set(MetaNewValue, input.NewValue, input.NewValue != nil)

	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append(recipients, input.Recipients...)
	}

	objectID := objectType
	for _, candidate := range []string{input.ObjectID, input.Key, input.Source.Path} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			objectID = trimmed
			break
		}
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}
