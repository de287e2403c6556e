package models

// Type classifies assets, liabilities and transaction templates. The
// discriminator distinguishes which family of entities the type applies to.
type Type struct {
	BaseModel
	Name          string     `gorm:"not null;uniqueIndex" json:"name"`
	Tags          StringList `gorm:"not null" json:"tags"`
	Description   string     `gorm:"not null" json:"description"`
	Discriminator string     `gorm:"not null" json:"discriminator"`
}

// TableName implements the GORM Tabler interface
func (Type) TableName() string { return "types" }

// PrimaryKeyColumns implements Record
func (Type) PrimaryKeyColumns() []string { return basePrimaryKey() }

// UpdatableColumns implements Record
func (Type) UpdatableColumns() []string {
	return append([]string{"name", "tags", "description", "discriminator"}, baseColumns()...)
}

// NaturalKeyColumns implements Record
func (Type) NaturalKeyColumns() []string { return []string{"name"} }

// ReferencedBy implements Record
func (Type) ReferencedBy() []Reference {
	return []Reference{
		{Table: "asset_accounts", Column: "type_id", Cascade: true},
		{Table: "liability_accounts", Column: "type_id", Cascade: true},
		{Table: "identified_transactions", Column: "type_id", Cascade: true},
	}
}
