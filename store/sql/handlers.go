package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func vaultHandlers() repository.ModelHandlers[*vaultRecord] {
	return repository.ModelHandlers[*vaultRecord]{
		NewRecord: func() *vaultRecord {
			return &vaultRecord{}
		},
		GetID: func(record *vaultRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *vaultRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *vaultRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func groupHandlers() repository.ModelHandlers[*groupRecord] {
	return repository.ModelHandlers[*groupRecord]{
		NewRecord: func() *groupRecord {
			return &groupRecord{}
		},
		GetID: func(record *groupRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *groupRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *groupRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func entryHandlers() repository.ModelHandlers[*entryRecord] {
	return repository.ModelHandlers[*entryRecord]{
		NewRecord: func() *entryRecord {
			return &entryRecord{}
		},
		GetID: func(record *entryRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *entryRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *entryRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func entryDataHandlers() repository.ModelHandlers[*entryDataRecord] {
	return repository.ModelHandlers[*entryDataRecord]{
		NewRecord: func() *entryDataRecord {
			return &entryDataRecord{}
		},
		GetID: func(record *entryDataRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *entryDataRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *entryDataRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func vaultDataHandlers() repository.ModelHandlers[*vaultDataRecord] {
	return repository.ModelHandlers[*vaultDataRecord]{
		NewRecord: func() *vaultDataRecord {
			return &vaultDataRecord{}
		},
		GetID: func(record *vaultDataRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *vaultDataRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *vaultDataRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
