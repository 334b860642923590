package store

import (
	"context"
	"testing"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, "Cadeira", model.CategoryFurniture, 10)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Cadeira" {
		t.Errorf("expected name 'Cadeira', got %q", item.Name)
	}
	if item.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", item.Quantity)
	}
	if item.ImageRef != "" {
		t.Errorf("expected no image, got %q", item.ImageRef)
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Category != model.CategoryFurniture {
		t.Errorf("expected category furniture, got %q", got.Category)
	}
}

func TestGetItemMissing(t *testing.T) {
	database := db.NewTestDB(t)

	got, err := GetItem(context.Background(), database, 42)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing item, got %+v", got)
	}
}

func TestCreateItemNegativeQuantityRejected(t *testing.T) {
	database := db.NewTestDB(t)

	if _, err := CreateItem(context.Background(), database, "Mesa", model.CategoryFurniture, -1); err == nil {
		t.Error("expected CHECK constraint to reject negative quantity")
	}
}

func TestListItemsByCategory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, "Cadeira", model.CategoryFurniture, 10)
	CreateItem(ctx, database, "Mesa", model.CategoryFurniture, 4)
	CreateItem(ctx, database, "Caixa de som", model.CategoryElectronics, 2)

	all, _ := ListItems(ctx, database, "")
	if len(all) != 3 {
		t.Errorf("expected 3 items, got %d", len(all))
	}

	furniture, _ := ListItems(ctx, database, model.CategoryFurniture)
	if len(furniture) != 2 {
		t.Errorf("expected 2 furniture items, got %d", len(furniture))
	}
}

func TestUpdateItemAndImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Tenda", model.CategoryStructure, 3)

	if err := UpdateItem(ctx, database, item.ID, "Tenda 3x3", model.CategoryStructure, 5); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if ok, err := SetItemImage(ctx, database, item.ID, "abc.jpg"); err != nil || !ok {
		t.Fatalf("SetItemImage: %v, %v", ok, err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Name != "Tenda 3x3" || got.Quantity != 5 {
		t.Errorf("unexpected item after update: %+v", got)
	}
	if got.ImageRef != "abc.jpg" {
		t.Errorf("expected image ref 'abc.jpg', got %q", got.ImageRef)
	}

	if _, err := SetItemImage(ctx, database, item.ID, ""); err != nil {
		t.Fatalf("clearing image: %v", err)
	}
	got, _ = GetItem(ctx, database, item.ID)
	if got.ImageRef != "" {
		t.Errorf("expected cleared image ref, got %q", got.ImageRef)
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Delete Me", model.CategoryOther, 1)
	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got != nil {
		t.Error("expected item to be gone")
	}
}

func TestDeleteItemWithCheckoutsFailsOnForeignKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Cadeira", model.CategoryFurniture, 10)
	event, _ := CreateEvent(ctx, database, "Casamento Silva", "Rua A", "2026-05-01")
	CreateCheckout(ctx, database, item.ID, event.ID, 2, model.DefaultDestination)

	if err := DeleteItem(ctx, database, item.ID); err == nil {
		t.Error("expected foreign key to block deleting an item with checkouts")
	}
}

func TestSetItemImageMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	ok, err := SetItemImage(context.Background(), database, 404, "orphan.jpg")
	if err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}
	if ok {
		t.Error("expected no item to be updated")
	}
}
