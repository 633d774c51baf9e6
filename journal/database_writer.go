package journal

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/util"
)

type journalEntry struct {
	ID        uint       `gorm:"primaryKey"`
	EventTS   *time.Time `gorm:"index"`
	Zone      string     `gorm:"index"`
	Event     string     `gorm:"index"`
	KeyType   string
	KeyTag    uint16
	FromState int
	ToState   int
	Retries   int
	Message   string
}

// DatabaseWriter stores the entries in a SQL database
type DatabaseWriter struct {
	db               *gorm.DB
	logRetentionDays uint64
	now              func() time.Time
}

// NewDatabaseWriter opens the database and migrates the schema
func NewDatabaseWriter(target gorm.Dialector, logRetentionDays uint64) (*DatabaseWriter, error) {
	db, err := gorm.Open(target, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("can't create database connection: %w", err)
	}

	if err := db.AutoMigrate(&journalEntry{}); err != nil {
		return nil, fmt.Errorf("can't perform auto migration: %w", err)
	}

	return &DatabaseWriter{
		db:               db,
		logRetentionDays: logRetentionDays,
		now:              time.Now,
	}, nil
}

func (d *DatabaseWriter) Write(entry *LogEntry) {
	ts := entry.Time

	res := d.db.Create(&journalEntry{
		EventTS:   &ts,
		Zone:      entry.Zone,
		Event:     entry.Event,
		KeyType:   entry.KeyType,
		KeyTag:    entry.KeyTag,
		FromState: entry.FromState,
		ToState:   entry.ToState,
		Retries:   entry.Retries,
		Message:   entry.Message,
	})

	util.LogOnErrorWithEntry(log.PrefixedLog("database_writer"), "can't insert journal entry: ", res.Error)
}

// CleanUp deletes entries older than the retention time
func (d *DatabaseWriter) CleanUp() {
	if d.logRetentionDays == 0 {
		return
	}

	deletionDate := d.now().AddDate(0, 0, -int(d.logRetentionDays))

	log.PrefixedLog("database_writer").Debugf("deleting journal entries with event_ts < %s", deletionDate)

	res := d.db.Where("event_ts < ?", deletionDate).Delete(&journalEntry{})
	util.LogOnErrorWithEntry(log.PrefixedLog("database_writer"), "can't delete journal entries: ", res.Error)
}
