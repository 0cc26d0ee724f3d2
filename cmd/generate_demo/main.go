// Command generate_demo creates a demo depot database with two accounts,
// their stocks and a year of bookings.
// Usage: go run cmd/generate_demo/main.go [--db path/to/demo.db]
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/depot/internal/batch"
	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
	"github.com/mrlokans/depot/internal/services"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type demoStock struct {
	isin    string
	symbol  string
	company string
	price   string
}

var demoAccounts = []entities.Account{
	{ID: 1, SWIFT: "DEUTDEFFXXX", IBAN: "DE89370400440532013000", WithDepot: true},
	{ID: 2, SWIFT: "COBADEFFXXX", IBAN: "DE02200400600628307700", WithDepot: false},
}

var demoStocks = []demoStock{
	{isin: "US0378331005", symbol: "AAPL", company: "Apple Inc.", price: "182.50"},
	{isin: "DE0007164600", symbol: "SAP", company: "SAP SE", price: "141.20"},
	{isin: "NL0010273215", symbol: "ASML", company: "ASML Holding N.V.", price: "655.00"},
}

var demoBookingTypes = []string{"Buy", "Sell", "Dividend", "Deposit", "Withdrawal", "Fee"}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	ctx := context.Background()
	conn := database.NewConnectionManager(database.Options{Path: *dbPath, LogLevel: logger.Silent})
	storage := services.NewStorageService(conn, time.Minute)
	if err := storage.Connect(ctx); err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer storage.Disconnect()

	b := storage.Batch()
	addAccounts(b)
	typeIDs := addBookingTypes(b)
	stockIDs := addStocks(b)
	n := addBookings(b, typeIDs, stockIDs)

	if err := b.Execute(ctx); err != nil {
		log.Fatalf("Failed to write demo data: %v", err)
	}

	result, err := storage.HealthCheck(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	if !result.Healthy {
		log.Fatalf("Demo database has %d integrity issue(s)", len(result.Issues))
	}

	log.Printf("Demo database created: %d accounts, %d stocks, %d booking types, %d bookings",
		len(demoAccounts), len(stockIDs), len(typeIDs), n)
}

func addAccounts(b *batch.Builder) {
	for _, acc := range demoAccounts {
		b.Insert(entities.StoreAccounts, acc)
	}
}

// addBookingTypes gives every account its own set of booking types and
// returns the ids keyed by account and name.
func addBookingTypes(b *batch.Builder) map[uint]map[string]uint {
	ids := make(map[uint]map[string]uint)
	next := uint(1)
	for _, acc := range demoAccounts {
		ids[acc.ID] = make(map[string]uint)
		for _, name := range demoBookingTypes {
			b.Insert(entities.StoreBookingTypes, entities.BookingType{ID: next, Name: name, AccountID: acc.ID})
			ids[acc.ID][name] = next
			next++
		}
	}
	return ids
}

// addStocks places every demo stock in the depot account.
func addStocks(b *batch.Builder) map[string]uint {
	ids := make(map[string]uint)
	now := time.Now().UTC().Truncate(24 * time.Hour)
	for i, s := range demoStocks {
		id := uint(i + 1)
		b.Insert(entities.StoreStocks, entities.Stock{
			ID:          id,
			ISIN:        s.isin,
			Symbol:      s.symbol,
			Company:     s.company,
			FirstPage:   i == 0,
			MeetingDay:  now.AddDate(0, 2, i*7),
			QuarterDay:  now.AddDate(0, 1, i*3),
			NextQuoteAt: now,
			AccountID:   demoAccounts[0].ID,
		})
		ids[s.isin] = id
	}
	return ids
}

// addBookings writes a deposit, one buy per stock and quarterly dividends.
func addBookings(b *batch.Builder, typeIDs map[uint]map[string]uint, stockIDs map[string]uint) int {
	depot := demoAccounts[0].ID
	start := time.Date(time.Now().Year()-1, time.January, 2, 0, 0, 0, 0, time.UTC)
	id := uint(1)
	add := func(bk entities.Booking) {
		bk.ID = id
		bk.AccountID = depot
		b.Insert(entities.StoreBookings, bk)
		id++
	}

	add(entities.Booking{
		BookDate:      start,
		Credit:        decimal.NewFromInt(25000),
		Description:   "Initial deposit",
		BookingTypeID: typeIDs[depot]["Deposit"],
	})

	for i, s := range demoStocks {
		stockID := stockIDs[s.isin]
		count := decimal.NewFromInt(int64(10 * (i + 1)))
		price := decimal.RequireFromString(s.price)
		add(entities.Booking{
			BookDate:      start.AddDate(0, 0, 7*(i+1)),
			Count:         count,
			Debit:         count.Mul(price),
			FeeDebit:      decimal.RequireFromString("4.95"),
			Description:   "Buy " + s.company,
			BookingTypeID: typeIDs[depot]["Buy"],
			StockID:       &stockID,
			MarketPlace:   "XETRA",
		})

		for q := 1; q <= 4; q++ {
			gross := count.Mul(decimal.RequireFromString("0.24"))
			tax := gross.Mul(decimal.RequireFromString("0.25")).Round(2)
			add(entities.Booking{
				BookDate:      start.AddDate(0, 3*q, 0),
				ExDay:         start.AddDate(0, 3*q, -2),
				Count:         count,
				Credit:        gross,
				TaxDebit:      tax,
				SoliDebit:     tax.Mul(decimal.RequireFromString("0.055")).Round(2),
				Description:   "Dividend " + s.symbol,
				BookingTypeID: typeIDs[depot]["Dividend"],
				StockID:       &stockID,
			})
		}
	}
	return int(id - 1)
}
