package entities

// Account is the root entity; every other record references one.
// IBAN is unique across all accounts.
type Account struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SWIFT     string `gorm:"column:swift;size:11" json:"swift"`
	IBAN      string `gorm:"column:iban;size:34" json:"iban"`
	LogoURL   string `gorm:"size:2048" json:"logoUrl,omitempty"`
	WithDepot bool   `json:"withDepot"`
}

func (Account) TableName() string {
	return string(StoreAccounts)
}

func (Account) StoreName() StoreName { return StoreAccounts }
func (a Account) GetID() uint        { return a.ID }
