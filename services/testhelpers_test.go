package services

import (
	"path/filepath"
	"testing"
	"time"

	"hotel-sync/channel"
	"hotel-sync/config"
	"hotel-sync/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sync.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func day(s string) time.Time {
	d, ok := channel.ParseDate(s)
	if !ok {
		panic("bad date " + s)
	}
	return d
}

func seedRoom(t *testing.T, db *gorm.DB, number, ref string) models.Room {
	t.Helper()
	room := models.Room{RoomNumber: number, ExternalRef: ref, Status: models.RoomStatusAvailable}
	require.NoError(t, db.Create(&room).Error)
	return room
}

func seedRoomType(t *testing.T, db *gorm.DB, name, ref string, qty int) models.RoomType {
	t.Helper()
	rt := models.RoomType{TypeName: name, ExternalRef: ref, Quantity: qty}
	require.NoError(t, db.Create(&rt).Error)
	return rt
}

func uintRef(v uint) *uint { return &v }

func strRef(s string) *string { return &s }
