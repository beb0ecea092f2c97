package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type deliveryRecord struct {
	bun.BaseModel `bun:"table:relay_deliveries,alias:rd"`

	ID          string         `bun:"id,pk"`
	Status      string         `bun:"status,notnull"`
	ContractID  string         `bun:"contract_id,notnull"`
	SupplierID  string         `bun:"supplier_id,notnull"`
	Courier     map[string]any `bun:"courier,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   *time.Time     `bun:"updated_at,nullzero"`
	DeliveredAt *time.Time     `bun:"delivered_at,nullzero"`
}

type contractRecord struct {
	bun.BaseModel `bun:"table:relay_contracts,alias:rc"`

	ID         string    `bun:"id,pk"`
	EventID    string    `bun:"event_id,notnull"`
	SupplierID string    `bun:"supplier_id,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type eventRecord struct {
	bun.BaseModel `bun:"table:relay_events,alias:re"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"event_name,notnull"`
	UserID    string    `bun:"user_id,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type notificationRecord struct {
	bun.BaseModel `bun:"table:relay_notifications,alias:rn"`

	ID             string    `bun:"id,pk"`
	Avatar         string    `bun:"avatar,notnull"`
	Title          string    `bun:"title,notnull"`
	Message        string    `bun:"message,notnull"`
	ReferencedType string    `bun:"referenced_type,notnull"`
	ReferencedID   string    `bun:"referenced_id,notnull"`
	SenderID       string    `bun:"sender_id,nullzero"`
	ReceiverID     string    `bun:"receiver_id,nullzero"`
	Unread         bool      `bun:"unread,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type webhookDeliveryRecord struct {
	bun.BaseModel `bun:"table:relay_webhook_deliveries,alias:rwd"`

	ID         string    `bun:"id,pk"`
	ProviderID string    `bun:"provider_id,notnull"`
	EventID    string    `bun:"event_id,notnull"`
	Status     string    `bun:"status,notnull"`
	Attempts   int       `bun:"attempts,notnull"`
	Payload    []byte    `bun:"payload"`
	LastError  string    `bun:"last_error,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
