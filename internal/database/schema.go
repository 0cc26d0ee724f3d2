package database

import (
	"fmt"

	"github.com/mrlokans/depot/internal/entities"
)

// SchemaVersion is the schema version this build of the application opens.
const SchemaVersion = 27

// IndexSchema declares a secondary index over one or more record fields.
// Fields are the record's JSON field names, Columns the matching table columns.
type IndexSchema struct {
	Name    string
	Fields  []string
	Columns []string
	Unique  bool
}

// PhysicalName returns the engine-level index name. Index names are scoped
// per store, the engine namespace is global, hence the prefix.
func (i IndexSchema) PhysicalName(store entities.StoreName) string {
	return fmt.Sprintf("%s_%s", store, i.Name)
}

// StoreSchema declares a store, its key path and its indexes.
type StoreSchema struct {
	Name    entities.StoreName
	KeyPath string
	Model   func() entities.Record
	Indexes []IndexSchema
}

// Index returns the index declared under name.
func (s StoreSchema) Index(name string) (IndexSchema, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSchema{}, false
}

// IndexForField returns the single-field index declared for field.
func (s StoreSchema) IndexForField(field string) (IndexSchema, bool) {
	for _, idx := range s.Indexes {
		if len(idx.Fields) == 1 && idx.Fields[0] == field {
			return idx, true
		}
	}
	return IndexSchema{}, false
}

func index(name string, unique bool, fields ...string) IndexSchema {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = columnFor(f)
	}
	return IndexSchema{Name: name, Fields: fields, Columns: cols, Unique: unique}
}

// columnFor maps a record field name to its column.
func columnFor(field string) string {
	switch field {
	case "iban":
		return "iban"
	case "isin":
		return "isin"
	case "symbol":
		return "symbol"
	case "accountId":
		return "account_id"
	case "bookDate":
		return "book_date"
	case "bookingTypeId":
		return "booking_type_id"
	case "stockId":
		return "stock_id"
	case "fadeOut":
		return "fade_out"
	case "firstPage":
		return "first_page"
	}
	return field
}

// Schema is the declared schema at SchemaVersion.
var Schema = []StoreSchema{
	{
		Name:    entities.StoreAccounts,
		KeyPath: "id",
		Model:   func() entities.Record { return &entities.Account{} },
		Indexes: []IndexSchema{
			index("uk1", true, "iban"),
		},
	},
	{
		Name:    entities.StoreBookings,
		KeyPath: "id",
		Model:   func() entities.Record { return &entities.Booking{} },
		Indexes: []IndexSchema{
			index("k1", false, "bookDate"),
			index("k2", false, "bookingTypeId"),
			index("k3", false, "accountId"),
			index("k4", false, "stockId"),
		},
	},
	{
		Name:    entities.StoreBookingTypes,
		KeyPath: "id",
		Model:   func() entities.Record { return &entities.BookingType{} },
		Indexes: []IndexSchema{
			index("k1", false, "accountId"),
		},
	},
	{
		Name:    entities.StoreStocks,
		KeyPath: "id",
		Model:   func() entities.Record { return &entities.Stock{} },
		Indexes: []IndexSchema{
			index("uk1", false, "isin"),
			index("uk2", false, "symbol"),
			index("uk3", true, "accountId", "isin"),
			index("uk4", true, "accountId", "symbol"),
			index("k1", false, "fadeOut"),
			index("k2", false, "firstPage"),
			index("k3", false, "accountId"),
		},
	},
}

// StoreSchemaFor returns the declared schema of store.
func StoreSchemaFor(store entities.StoreName) (StoreSchema, bool) {
	for _, s := range Schema {
		if s.Name == store {
			return s, true
		}
	}
	return StoreSchema{}, false
}
