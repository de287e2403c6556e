package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdentifiedTransaction is a template for recurring or planned money
// movements: rent, payroll, subscriptions. Actual transactions link back to
// it for categorization.
type IdentifiedTransaction struct {
	BaseModel
	TypeID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"type_id"`
	Name                  string          `gorm:"not null;uniqueIndex" json:"name"`
	Tags                  StringList      `gorm:"not null" json:"tags"`
	Description           string          `gorm:"not null" json:"description"`
	PlannedValue          decimal.Decimal `gorm:"type:decimal(22,8);not null" json:"planned_value"`
	PlannedTransactionDay int             `gorm:"not null" json:"planned_transaction_day"`
}

// TableName implements the GORM Tabler interface
func (IdentifiedTransaction) TableName() string { return "identified_transactions" }

// PrimaryKeyColumns implements Record
func (IdentifiedTransaction) PrimaryKeyColumns() []string { return basePrimaryKey() }

// UpdatableColumns implements Record
func (IdentifiedTransaction) UpdatableColumns() []string {
	return append([]string{
		"type_id", "name", "tags", "description", "planned_value", "planned_transaction_day",
	}, baseColumns()...)
}

// NaturalKeyColumns implements Record
func (IdentifiedTransaction) NaturalKeyColumns() []string { return []string{"name"} }

// ReferencedBy implements Record
func (IdentifiedTransaction) ReferencedBy() []Reference {
	return []Reference{
		{Table: "transactions", Column: "identified_transaction_id", Cascade: true},
	}
}

// Transaction is an actual money movement. Either account reference may be
// nil: income from external sources has no origin, expenses to external
// destinations have no target.
type Transaction struct {
	BaseModel
	IdentifiedTransactionID *uuid.UUID      `gorm:"type:uuid;index" json:"identified_transaction_id"`
	FromAccountID           *uuid.UUID      `gorm:"type:uuid;index" json:"from_account_id"`
	ToAccountID             *uuid.UUID      `gorm:"type:uuid;index" json:"to_account_id"`
	TransactionTs           time.Time       `gorm:"not null;index" json:"transaction_ts"`
	Value                   decimal.Decimal `gorm:"type:decimal(22,8);not null" json:"value"`
}

// TableName implements the GORM Tabler interface
func (Transaction) TableName() string { return "transactions" }

// PrimaryKeyColumns implements Record
func (Transaction) PrimaryKeyColumns() []string { return basePrimaryKey() }

// UpdatableColumns implements Record
func (Transaction) UpdatableColumns() []string {
	return append([]string{
		"identified_transaction_id", "from_account_id", "to_account_id", "transaction_ts", "value",
	}, baseColumns()...)
}

// NaturalKeyColumns implements Record
func (Transaction) NaturalKeyColumns() []string { return nil }

// ReferencedBy implements Record
func (Transaction) ReferencedBy() []Reference { return nil }
