package entities

// StoreName identifies one of the object stores of the portfolio database.
type StoreName string

const (
	StoreAccounts     StoreName = "accounts"
	StoreBookings     StoreName = "bookings"
	StoreBookingTypes StoreName = "bookingTypes"
	StoreStocks       StoreName = "stocks"
)

// Stores lists every store in canonical order, root entity first.
var Stores = []StoreName{StoreAccounts, StoreBookings, StoreBookingTypes, StoreStocks}

// Valid reports whether s names a known store.
func (s StoreName) Valid() bool {
	switch s {
	case StoreAccounts, StoreBookings, StoreBookingTypes, StoreStocks:
		return true
	}
	return false
}

func (s StoreName) String() string {
	return string(s)
}

// Record is implemented by every value kept in a store. The identity is
// assigned by the engine on insert and stays stable afterwards.
type Record interface {
	StoreName() StoreName
	GetID() uint
}

// Owned is implemented by records that belong to an account.
type Owned interface {
	Record
	OwnerAccountID() uint
}

// NewRecord returns a pointer to a zero record for the given store,
// or nil when the store is unknown.
func NewRecord(store StoreName) Record {
	switch store {
	case StoreAccounts:
		return &Account{}
	case StoreBookings:
		return &Booking{}
	case StoreBookingTypes:
		return &BookingType{}
	case StoreStocks:
		return &Stock{}
	}
	return nil
}
