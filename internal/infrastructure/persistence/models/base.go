// Package models contains the storage-shaped records (DAOs) persisted under
// the configured schema namespace. Every table carries the soft-delete
// triplet (id, active, deleted_at) on top of its domain columns.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reference declares an incoming foreign key from another table. Cascade
// references are removed together with the parent on hard delete and
// deactivated together with it on soft delete; non-cascade references block
// hard deletion while rows exist.
type Reference struct {
	Table   string
	Column  string
	Cascade bool
}

// Record is implemented by every persisted entity type.
type Record interface {
	TableName() string
	PrimaryKeyColumns() []string
	// UpdatableColumns lists the non-key columns overwritten by an
	// UPDATE-policy upsert.
	UpdatableColumns() []string
	// NaturalKeyColumns names the unique business key, if any. Entities
	// without one cannot participate in get-or-create.
	NaturalKeyColumns() []string
	ReferencedBy() []Reference
}

// BaseModel provides the common persistence fields for all records.
// DeletedAt is set exactly once, on soft delete, and never reset; a row may
// be inactive without being marked deleted, but never the reverse.
type BaseModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Active    bool       `gorm:"not null;default:true;index" json:"active"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns an identifier when the caller did not provide one.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// basePrimaryKey is the shared primary key column set.
func basePrimaryKey() []string {
	return []string{"id"}
}

// baseColumns are the bookkeeping columns refreshed by an UPDATE-policy
// upsert alongside the domain columns. DeletedAt is excluded: once set by a
// soft delete the timestamp survives any later upsert.
func baseColumns() []string {
	return []string{"active", "updated_at"}
}

// StringList stores an ordered list of strings in a single text column so
// that the same model maps onto backends without array types.
type StringList []string

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner
func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, s)
	case string:
		return json.Unmarshal([]byte(raw), s)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// GormDataType tells GORM which column type backs the list.
func (StringList) GormDataType() string {
	return "text"
}

// All returns every record type known to the schema, in an order safe for
// migration (referenced tables first).
func All() []any {
	return []any{
		&Type{},
		&Account{},
		&AssetAccount{},
		&LiabilityAccount{},
		&IdentifiedTransaction{},
		&Transaction{},
	}
}
