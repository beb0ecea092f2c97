package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// uuidKeyedHandlers builds repository handlers for records whose primary key
// is a string UUID stored in the id column. idField returns nil for a nil
// record.
func uuidKeyedHandlers[T any](newRecord func() T, idField func(T) *string) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(record T) uuid.UUID {
			if field := idField(record); field != nil {
				return parseUUID(*field)
			}
			return uuid.Nil
		},
		SetID: func(record T, id uuid.UUID) {
			if field := idField(record); field != nil {
				*field = id.String()
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record T) string {
			if field := idField(record); field != nil {
				return strings.TrimSpace(*field)
			}
			return ""
		},
	}
}

func notificationHandlers() repository.ModelHandlers[*notificationRecord] {
	return uuidKeyedHandlers(
		func() *notificationRecord { return &notificationRecord{} },
		func(record *notificationRecord) *string {
			if record == nil {
				return nil
			}
			return &record.ID
		},
	)
}

func webhookDeliveryHandlers() repository.ModelHandlers[*webhookDeliveryRecord] {
	return uuidKeyedHandlers(
		func() *webhookDeliveryRecord { return &webhookDeliveryRecord{} },
		func(record *webhookDeliveryRecord) *string {
			if record == nil {
				return nil
			}
			return &record.ID
		},
	)
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
