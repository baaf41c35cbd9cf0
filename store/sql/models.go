package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type vaultRecord struct {
	bun.BaseModel `bun:"table:broker_vaults,alias:bv"`

	ID           string     `bun:"id,pk"`
	Name         string     `bun:"name,notnull"`
	Active       bool       `bun:"active,notnull"`
	Locked       bool       `bun:"locked,notnull"`
	RecycleBinID string     `bun:"recycle_bin_id"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt    *time.Time `bun:"deleted_at,soft_delete"`
}

type groupRecord struct {
	bun.BaseModel `bun:"table:broker_groups,alias:bg"`

	ID               string    `bun:"id,pk"`
	VaultID          string    `bun:"vault_id,notnull"`
	ParentID         *string   `bun:"parent_id"`
	Name             string    `bun:"name,notnull"`
	SearchingEnabled bool      `bun:"searching_enabled,notnull"`
	Recycled         bool      `bun:"recycled,notnull"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type entryRecord struct {
	bun.BaseModel `bun:"table:broker_entries,alias:be"`

	ID             string     `bun:"id,pk"`
	VaultID        string     `bun:"vault_id,notnull"`
	GroupID        string     `bun:"group_id,notnull"`
	Title          string     `bun:"title,notnull"`
	Username       string     `bun:"username"`
	Password       string     `bun:"password"`
	URL            string     `bun:"url"`
	AdditionalURLs []string   `bun:"additional_urls,type:jsonb"`
	TOTPSecret     string     `bun:"totp_secret"`
	ExpiresAt      *time.Time `bun:"expires_at,nullzero"`
	Recycled       bool       `bun:"recycled,notnull"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// entryDataRecord holds both client-visible attributes and the protected
// custom-data side channel, discriminated by Kind.
type entryDataRecord struct {
	bun.BaseModel `bun:"table:broker_entry_data,alias:bed"`

	ID        string    `bun:"id,pk"`
	EntryID   string    `bun:"entry_id,notnull"`
	Kind      string    `bun:"kind,notnull"`
	Key       string    `bun:"key,notnull"`
	Value     string    `bun:"value,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

const (
	entryDataKindAttribute  = "attribute"
	entryDataKindCustomData = "custom_data"
)

type vaultDataRecord struct {
	bun.BaseModel `bun:"table:broker_vault_data,alias:bvd"`

	ID        string    `bun:"id,pk"`
	VaultID   string    `bun:"vault_id,notnull"`
	Key       string    `bun:"key,notnull"`
	Value     string    `bun:"value,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
