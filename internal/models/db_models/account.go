package db_models

// Account is the tenant: a brand owner that holds one subscription lifecycle at a time.
type Account struct {
	BaseModel
	Name  string
	Email string `gorm:"unique"`
	Role  string `gorm:"size:16"`
}
