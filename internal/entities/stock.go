package entities

import "time"

// Stock is a security held in a depot account. ISIN and Symbol are
// unique per owning account, not globally.
type Stock struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ISIN      string `gorm:"column:isin;size:12" json:"isin"`
	Symbol    string `gorm:"size:16" json:"symbol"`
	Company   string `gorm:"size:256" json:"company"`
	FadeOut   bool   `json:"fadeOut"`   // inactive, hidden from default lists
	FirstPage bool   `json:"firstPage"` // pinned to the first page
	URL       string `gorm:"column:url;size:2048" json:"url,omitempty"`

	MeetingDay time.Time `json:"meetingDay"`
	QuarterDay time.Time `json:"quarterDay"`
	DeleteDay  time.Time `json:"deleteDay"`
	// NextQuoteAt is the earliest time the quote collaborator may query
	// the external market data source for this stock again.
	NextQuoteAt time.Time `json:"nextQuoteAt"`

	AccountID uint `gorm:"not null" json:"accountId"`
}

func (Stock) TableName() string {
	return string(StoreStocks)
}

func (Stock) StoreName() StoreName   { return StoreStocks }
func (s Stock) GetID() uint          { return s.ID }
func (s Stock) OwnerAccountID() uint { return s.AccountID }
