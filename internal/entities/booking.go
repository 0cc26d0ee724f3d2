package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingType categorises bookings of one account (dividend, buy, fee...).
type BookingType struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:128" json:"name"`
	AccountID uint   `gorm:"not null" json:"accountId"`
}

func (BookingType) TableName() string {
	return string(StoreBookingTypes)
}

func (BookingType) StoreName() StoreName   { return StoreBookingTypes }
func (b BookingType) GetID() uint          { return b.ID }
func (b BookingType) OwnerAccountID() uint { return b.AccountID }

// Booking is a single account movement. Amounts are stored as text so
// that decimal values round-trip exactly.
type Booking struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	BookDate      time.Time       `json:"bookDate"`
	ExDay         time.Time       `json:"exDay"`
	Count         decimal.Decimal `gorm:"type:text" json:"count"`
	Credit        decimal.Decimal `gorm:"type:text" json:"credit"`
	Debit         decimal.Decimal `gorm:"type:text" json:"debit"`
	Description   string          `gorm:"type:text" json:"description"`
	AccountID     uint            `gorm:"not null" json:"accountId"`
	BookingTypeID uint            `json:"bookingTypeId"`
	StockID       *uint           `json:"stockId,omitempty"`
	MarketPlace   string          `gorm:"size:64" json:"marketPlace,omitempty"`

	TaxCredit            decimal.Decimal `gorm:"type:text" json:"taxCredit"`
	TaxDebit             decimal.Decimal `gorm:"type:text" json:"taxDebit"`
	SourceTaxCredit      decimal.Decimal `gorm:"type:text" json:"sourceTaxCredit"`
	SourceTaxDebit       decimal.Decimal `gorm:"type:text" json:"sourceTaxDebit"`
	TransactionTaxCredit decimal.Decimal `gorm:"type:text" json:"transactionTaxCredit"`
	TransactionTaxDebit  decimal.Decimal `gorm:"type:text" json:"transactionTaxDebit"`
	FeeCredit            decimal.Decimal `gorm:"type:text" json:"feeCredit"`
	FeeDebit             decimal.Decimal `gorm:"type:text" json:"feeDebit"`
	SoliCredit           decimal.Decimal `gorm:"type:text" json:"soliCredit"`
	SoliDebit            decimal.Decimal `gorm:"type:text" json:"soliDebit"`
}

func (Booking) TableName() string {
	return string(StoreBookings)
}

func (Booking) StoreName() StoreName   { return StoreBookings }
func (b Booking) GetID() uint          { return b.ID }
func (b Booking) OwnerAccountID() uint { return b.AccountID }

// BeforeSave stores dates in UTC so that date lookups do not depend on the
// caller's time zone.
func (b *Booking) BeforeSave(*gorm.DB) error {
	b.BookDate = b.BookDate.UTC()
	b.ExDay = b.ExDay.UTC()
	return nil
}
