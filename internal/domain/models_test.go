package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (RestaurantRecord{}).TableName() != "restaurants" {
		t.Fatalf("RestaurantRecord.TableName() = %q", (RestaurantRecord{}).TableName())
	}
	if (ProcessedMessage{}).TableName() != "processed_messages" {
		t.Fatalf("ProcessedMessage.TableName() = %q", (ProcessedMessage{}).TableName())
	}
	if (DialogSession{}).TableName() != "dialog_sessions" {
		t.Fatalf("DialogSession.TableName() = %q", (DialogSession{}).TableName())
	}
}

func TestMigrations_EmbeddedCoordinates_AndUniqueMessage(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&RestaurantRecord{}, &ProcessedMessage{}, &DialogSession{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasColumn(&RestaurantRecord{}, "coord_latitude") || !m.HasColumn(&RestaurantRecord{}, "coord_longitude") {
		t.Fatalf("expected embedded coordinate columns")
	}
	if !m.HasIndex(&ProcessedMessage{}, "ux_processed_message") {
		t.Fatalf("expected unique index ux_processed_message")
	}

	rec := RestaurantRecord{
		BusinessID:  "b1",
		Name:        "Trattoria",
		Cuisine:     "italian",
		Coordinates: Coordinates{Latitude: 40.7, Longitude: -73.9},
		InsertedAt:  time.Now().UTC(),
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("insert restaurant: %v", err)
	}
	var got RestaurantRecord
	if err := db.First(&got, "business_id = ?", "b1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Coordinates.Latitude != 40.7 || got.Name != "Trattoria" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	now := time.Now().UTC()
	pm := ProcessedMessage{ID: "p1", MessageID: "m1", Cuisine: "italian", RestaurantID: "b1", ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(&pm).Error; err != nil {
		t.Fatalf("insert processed: %v", err)
	}
	dup := ProcessedMessage{ID: "p2", MessageID: "m1", Cuisine: "italian", RestaurantID: "b1", ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected unique violation on message_id")
	}
}

func TestCanonicalLookups(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"New York", "new york", true},
		{"  SEATTLE ", "seattle", true},
		{"los angeles", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalLocation(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("CanonicalLocation(%q) = %q,%v; want %q,%v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
	if got, ok := CanonicalCuisine("Japanese"); !ok || got != "japanese" {
		t.Fatalf("CanonicalCuisine(Japanese) = %q,%v", got, ok)
	}
	if _, ok := CanonicalCuisine("thai"); ok {
		t.Fatalf("thai should not be supported")
	}
}

func TestDisplayChoices(t *testing.T) {
	if got := DisplayChoices(nil); got != "" {
		t.Fatalf("empty: %q", got)
	}
	if got := DisplayChoices([]string{"miami"}); got != "Miami" {
		t.Fatalf("single: %q", got)
	}
	want := "New York, Seattle, San Francisco, Chicago, Boston, or Miami"
	if got := DisplayChoices(Locations); got != want {
		t.Fatalf("locations:\n got %q\nwant %q", got, want)
	}
}

func TestSlotOrder_IsFixed(t *testing.T) {
	want := []Slot{SlotLocation, SlotCuisine, SlotDiningTime, SlotNumberOfPeople, SlotEmail}
	if len(SlotOrder) != len(want) {
		t.Fatalf("len = %d", len(SlotOrder))
	}
	for i := range want {
		if SlotOrder[i] != want[i] {
			t.Fatalf("SlotOrder[%d] = %s; want %s", i, SlotOrder[i], want[i])
		}
	}
}
