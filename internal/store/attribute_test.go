package store

import (
	"context"
	"testing"

	"github.com/dukerupert/larder/internal/model"
)

func TestUpsertTag(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	sub := seedSubscription(t, db, "home")
	other := seedSubscription(t, db, "neighbour")
	s := NewAttributeStore(db)

	tag, err := s.UpsertTag(ctx, model.Tag{SubscriptionID: sub, Name: "dairy", Active: true})
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if tag == nil || tag.ID == 0 || tag.Name != "dairy" || !tag.Active {
		t.Fatalf("unexpected tag %+v", tag)
	}

	tag.Name = "milk products"
	updated, err := s.UpsertTag(ctx, *tag)
	if err != nil {
		t.Fatalf("update tag: %v", err)
	}
	if updated.Name != "milk products" {
		t.Errorf("name = %q, want %q", updated.Name, "milk products")
	}

	tag.SubscriptionID = other
	foreign, err := s.UpsertTag(ctx, *tag)
	if err != nil {
		t.Fatalf("foreign update: %v", err)
	}
	if foreign != nil {
		t.Errorf("updating another subscription's tag returned %+v", foreign)
	}
}

func TestGroupCollectionCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	sub := seedSubscription(t, db, "home")
	seedItem(t, db, sub, 1, "Milk")
	seedItem(t, db, sub, 2, "Cheese")
	seedAttribute(t, db, "attribute_groups", sub, 1, "fridge")
	seedAttribute(t, db, "attribute_groups", sub, 2, "pantry")
	seedAttribute(t, db, "attribute_groups", sub, 3, "freezer")
	db.Exec(`INSERT INTO item_groups (item_id, group_id) VALUES (1, 1), (2, 1), (2, 3)`)
	db.Exec(`INSERT INTO item_groups (item_id, group_id, is_active) VALUES (1, 2, 0)`)
	s := NewAttributeStore(db)

	groups, total, err := s.ListGroupsWithCounts(ctx, sub, model.Query{
		Page:   model.Page{Number: 1, Size: 2},
		SortBy: "attribute_count",
	})
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(groups) != 2 {
		t.Fatalf("page len = %d, want 2", len(groups))
	}
	if groups[0].Name != "fridge" || groups[0].AttributeCount != 2 {
		t.Errorf("first group = %+v, want fridge with 2 items", groups[0])
	}
	if groups[1].AttributeCount != 1 {
		t.Errorf("second group count = %d, want 1", groups[1].AttributeCount)
	}

	all, err := s.ListGroups(ctx, sub)
	if err != nil {
		t.Fatalf("list all groups: %v", err)
	}
	if len(all) != 3 || all[0].Name != "freezer" {
		t.Errorf("catalog = %+v, want 3 groups by name", all)
	}

	filtered, total, err := s.ListTagsWithCounts(ctx, sub, model.Query{Term: "x"})
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if total != 0 || len(filtered) != 0 {
		t.Errorf("tags = %+v, total %d, want none", filtered, total)
	}
}

func TestUpsertItemTagsScopedToSubscription(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	sub := seedSubscription(t, db, "home")
	other := seedSubscription(t, db, "neighbour")
	seedItem(t, db, sub, 1, "Milk")
	seedItem(t, db, other, 2, "Cheese")
	seedAttribute(t, db, "tags", sub, 1, "dairy")
	seedAttribute(t, db, "tags", sub, 2, "cold")
	seedAttribute(t, db, "tags", other, 3, "theirs")
	s := NewAttributeStore(db)

	err := s.UpsertItemTags(ctx, sub, []model.ItemAttribute{
		{ItemID: 1, AttributeID: 1, Active: true},
		{ItemID: 1, AttributeID: 2, Active: true},
		{ItemID: 1, AttributeID: 3, Active: true},
		{ItemID: 2, AttributeID: 1, Active: true},
	})
	if err != nil {
		t.Fatalf("upsert item tags: %v", err)
	}

	var n int
	db.QueryRow(`SELECT COUNT(*) FROM item_tags`).Scan(&n)
	if n != 2 {
		t.Fatalf("item_tags rows = %d, want 2", n)
	}

	if err := s.UpsertItemTags(ctx, sub, []model.ItemAttribute{{ItemID: 1, AttributeID: 2}}); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	tags, err := s.ListItemTags(ctx, sub, 1)
	if err != nil {
		t.Fatalf("list item tags: %v", err)
	}
	if len(tags) != 1 || tags[0].AttributeID != 1 || tags[0].AttributeName != "dairy" {
		t.Errorf("item tags = %+v", tags)
	}

	foreign, err := s.ListItemTags(ctx, other, 1)
	if err != nil {
		t.Fatalf("list foreign item tags: %v", err)
	}
	if len(foreign) != 0 {
		t.Errorf("another subscription sees %+v", foreign)
	}
}

func TestUpsertItemGroups(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	sub := seedSubscription(t, db, "home")
	seedItem(t, db, sub, 1, "Milk")
	seedAttribute(t, db, "attribute_groups", sub, 1, "fridge")
	seedAttribute(t, db, "attribute_groups", sub, 2, "pantry")
	s := NewAttributeStore(db)

	err := s.UpsertItemGroups(ctx, sub, []model.ItemAttribute{
		{ItemID: 1, AttributeID: 2, Active: true},
		{ItemID: 1, AttributeID: 1, Active: true},
	})
	if err != nil {
		t.Fatalf("upsert item groups: %v", err)
	}
	groups, err := s.ListItemGroups(ctx, sub, 1)
	if err != nil {
		t.Fatalf("list item groups: %v", err)
	}
	if len(groups) != 2 || groups[0].AttributeName != "fridge" || groups[1].AttributeName != "pantry" {
		t.Errorf("item groups = %+v", groups)
	}
}

func TestTagCollectionMatchesWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	sub := seedSubscription(t, db, "home")
	seedAttribute(t, db, "tags", sub, 1, "50% off")
	seedAttribute(t, db, "tags", sub, 2, "500 g")
	seedAttribute(t, db, "tags", sub, 3, "dry_goods")
	seedAttribute(t, db, "tags", sub, 4, "dry goods")
	s := NewAttributeStore(db)

	for term, want := range map[string]string{"50%": "50% off", "y_g": "dry_goods"} {
		tags, total, err := s.ListTagsWithCounts(context.Background(), sub, model.Query{
			Term: term,
			Page: model.Page{Number: 1, Size: 10},
		})
		if err != nil {
			t.Fatalf("list %q: %v", term, err)
		}
		if total != 1 || len(tags) != 1 || tags[0].Name != want {
			t.Errorf("term %q matched %+v (total %d), want only %q", term, tags, total, want)
		}
	}
}
