package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/v01dsy/azurewrath/internal/adapter/gateway/postgres"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
	"github.com/v01dsy/azurewrath/internal/infra/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set; integration test skipped")
	}
	db, err := store.OpenPostgres(dsn, 4)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestItem(t *testing.T, db *sql.DB) (id, assetID string) {
	t.Helper()
	id = uuid.NewString()
	assetID = fmt.Sprintf("%d", time.Now().UnixNano())
	_, err := db.Exec(`INSERT INTO "Item" (id, "assetId", name) VALUES ($1, $2, $3)`,
		id, assetID, "integration test item "+assetID)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Exec(`DELETE FROM "Sale" WHERE "itemId" = $1`, id)
		db.Exec(`DELETE FROM "PriceHistory" WHERE "itemId" = $1`, id)
		db.Exec(`DELETE FROM "Item" WHERE id = $1`, id)
	})
	return id, assetID
}

func TestHistoryRepo_PersistAndLatestRaps(t *testing.T) {
	db := openTestDB(t)
	itemID, _ := insertTestItem(t, db)

	repo := postgres.NewHistoryRepo(db)
	ctx := context.Background()
	rap1, rap2 := 100.0, 120.0

	// first cycle: snapshot only, RapChanged not set
	snaps, sales, err := repo.Persist(ctx, []prices.Result{
		{ItemID: itemID, Rap: &rap1},
	}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if snaps != 1 || sales != 0 {
		t.Fatalf("first cycle: snaps=%d sales=%d", snaps, sales)
	}

	raps, err := repo.LatestRaps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := raps[itemID]; got != rap1 {
		t.Fatalf("latest rap=%v want %v", got, rap1)
	}

	// second cycle: changed RAP produces a synthetic sale
	snaps, sales, err = repo.Persist(ctx, []prices.Result{
		{ItemID: itemID, Rap: &rap2, RapChanged: true},
	}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if snaps != 1 || sales != 1 {
		t.Fatalf("second cycle: snaps=%d sales=%d", snaps, sales)
	}

	raps, err = repo.LatestRaps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := raps[itemID]; got != rap2 {
		t.Fatalf("latest rap=%v want %v", got, rap2)
	}

	var salePrice float64
	err = db.QueryRow(`SELECT "salePrice" FROM "Sale" WHERE "itemId" = $1`, itemID).Scan(&salePrice)
	if err != nil {
		t.Fatal(err)
	}
	if salePrice != rap2 {
		t.Fatalf("salePrice=%v want %v", salePrice, rap2)
	}
}

func TestHistoryRepo_PersistRollsBackWholeCycleOnFailure(t *testing.T) {
	db := openTestDB(t)
	itemID, _ := insertTestItem(t, db)

	repo := postgres.NewHistoryRepo(db)
	rap := 100.0

	// the second result references a nonexistent item; its insert violates
	// the "itemId" foreign key after the first result's rows are already in
	// the transaction
	_, _, err := repo.Persist(context.Background(), []prices.Result{
		{ItemID: itemID, Rap: &rap, RapChanged: true},
		{ItemID: uuid.NewString(), Rap: &rap},
	}, time.Now().UTC())
	if err == nil {
		t.Fatal("expected persist to fail on the foreign key violation")
	}

	var snaps, sales int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "PriceHistory" WHERE "itemId" = $1`, itemID).Scan(&snaps); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM "Sale" WHERE "itemId" = $1`, itemID).Scan(&sales); err != nil {
		t.Fatal(err)
	}
	if snaps != 0 || sales != 0 {
		t.Fatalf("partial cycle survived the rollback: snapshots=%d sales=%d", snaps, sales)
	}
}

func TestHistoryRepo_PersistSkipsUnusableResults(t *testing.T) {
	db := openTestDB(t)
	itemID, _ := insertTestItem(t, db)

	repo := postgres.NewHistoryRepo(db)
	snaps, sales, err := repo.Persist(context.Background(), []prices.Result{
		{ItemID: itemID}, // neither price nor RAP
	}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if snaps != 0 || sales != 0 {
		t.Fatalf("snaps=%d sales=%d, want 0/0", snaps, sales)
	}
}

func TestQueryRepo_GetItemByEitherID(t *testing.T) {
	db := openTestDB(t)
	itemID, assetID := insertTestItem(t, db)

	q := postgres.NewQueryRepo(db)
	ctx := context.Background()

	byID, err := q.GetItem(ctx, itemID)
	if err != nil {
		t.Fatal(err)
	}
	byAsset, err := q.GetItem(ctx, assetID)
	if err != nil {
		t.Fatal(err)
	}
	if byID.ID != byAsset.ID || byID.AssetID != assetID {
		t.Fatalf("lookup mismatch: %+v vs %+v", byID, byAsset)
	}
}
