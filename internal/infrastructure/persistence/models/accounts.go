package models

import "time"

// Account is a financial account. StartTs marks when the account became
// active; EndTs stays nil until the account is closed.
type Account struct {
	BaseModel
	Name        string     `gorm:"not null;uniqueIndex" json:"name"`
	Description string     `gorm:"not null" json:"description"`
	Tags        StringList `gorm:"not null" json:"tags"`
	StartTs     time.Time  `gorm:"not null;index" json:"start_ts"`
	EndTs       *time.Time `gorm:"index" json:"end_ts"`
}

// TableName implements the GORM Tabler interface
func (Account) TableName() string { return "accounts" }

// PrimaryKeyColumns implements Record
func (Account) PrimaryKeyColumns() []string { return basePrimaryKey() }

// UpdatableColumns implements Record
func (Account) UpdatableColumns() []string {
	return append([]string{"name", "description", "tags", "start_ts", "end_ts"}, baseColumns()...)
}

// NaturalKeyColumns implements Record
func (Account) NaturalKeyColumns() []string { return []string{"name"} }

// ReferencedBy implements Record
func (Account) ReferencedBy() []Reference {
	return []Reference{
		{Table: "asset_accounts", Column: "account_id", Cascade: true},
		{Table: "liability_accounts", Column: "account_id", Cascade: true},
		{Table: "transactions", Column: "from_account_id", Cascade: false},
		{Table: "transactions", Column: "to_account_id", Cascade: false},
	}
}
