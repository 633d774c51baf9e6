package journal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
)

const (
	EventKeyCreated   = "key created"
	EventKeyDeleted   = "key deleted"
	EventStateChanged = "state changed"
	EventStateTimeout = "state timeout"
	EventDSSubmitted  = "DS submitted"
	EventDSRemoved    = "DS removed"
	EventZoneAborted  = "zone aborted"
	EventValidated    = "zone validated"
)

// Journal turns the events of a run into entries of its writer
type Journal struct {
	writer Writer
	clock  func() time.Time
}

// New creates the journal of the configured type
func New(cfg config.Journal) (*Journal, error) {
	writer, err := newWriter(cfg)
	if err != nil {
		return nil, err
	}

	return NewWithWriter(writer, time.Now), nil
}

// NewWithWriter creates a journal writing to writer
func NewWithWriter(writer Writer, clock func() time.Time) *Journal {
	return &Journal{writer: writer, clock: clock}
}

func newWriter(cfg config.Journal) (Writer, error) {
	var writer Writer

	err := retry.Do(
		func() error {
			var err error

			switch cfg.Type {
			case config.JournalTypeMysql:
				writer, err = NewDatabaseWriter(mysql.Open(cfg.Target), cfg.RetentionDays)
			case config.JournalTypePostgresql:
				writer, err = NewDatabaseWriter(postgres.Open(cfg.Target), cfg.RetentionDays)
			case config.JournalTypeSqlite:
				writer, err = NewDatabaseWriter(sqlite.Open(cfg.Target), cfg.RetentionDays)
			case config.JournalTypeCsv:
				writer, err = NewCSVWriter(cfg.Target, cfg.RetentionDays)
			case config.JournalTypeConsole:
				writer = NewLoggerWriter()
			case config.JournalTypeNone:
				writer = NewNoneWriter()
			default:
				err = fmt.Errorf("unknown journal type %s", cfg.Type)
			}

			return err
		},
		retry.Attempts(uint(max(cfg.CreationAttempts, 1))),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(cfg.CreationCooldown.ToDuration()),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.PrefixedLog("journal").Warnf("can't create journal writer (attempt %d/%d): %s",
				n+1, cfg.CreationAttempts, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("can't create journal writer %s: %w", cfg.Type, err)
	}

	return writer, nil
}

// CleanUp removes entries older than the retention time
func (j *Journal) CleanUp() {
	j.writer.CleanUp()
}

func (j *Journal) write(e *LogEntry) {
	e.Time = j.clock()

	j.writer.Write(e)
}

// RegisterEventListeners subscribes the journal to the events of the run
func (j *Journal) RegisterEventListeners(bus EventBus.Bus) error {
	var result error

	subscribe := func(topic string, fn interface{}) {
		if err := bus.Subscribe(topic, fn); err != nil {
			result = multierror.Append(result, fmt.Errorf("can't subscribe topic '%s': %w", topic, err))
		}
	}

	subscribe(evt.KeyCreated, func(zone string, kt model.KeyType, tag uint16) {
		j.write(&LogEntry{Zone: zone, Event: EventKeyCreated, KeyType: kt.String(), KeyTag: tag})
	})

	subscribe(evt.KeyDeleted, func(zone string, tag uint16) {
		e := &LogEntry{Zone: zone, Event: EventKeyDeleted, KeyTag: tag}
		if tag == 0 {
			e.Message = "all keys"
		}

		j.write(e)
	})

	subscribe(evt.KeyStateChanged, func(zone string, kt model.KeyType, tag uint16, from, to int) {
		j.write(&LogEntry{
			Zone: zone, Event: EventStateChanged, KeyType: kt.String(), KeyTag: tag,
			FromState: from, ToState: to,
		})
	})

	subscribe(evt.KeyStateTimeout, func(zone string, kt model.KeyType, tag uint16, state, retries int) {
		j.write(&LogEntry{
			Zone: zone, Event: EventStateTimeout, KeyType: kt.String(), KeyTag: tag,
			FromState: state, ToState: state, Retries: retries,
		})
	})

	subscribe(evt.DSSubmitted, func(zone, registrar string, tags []uint16) {
		j.write(&LogEntry{Zone: zone, Event: EventDSSubmitted, Message: registrar + ": " + tagsToString(tags)})
	})

	subscribe(evt.DSRemoved, func(zone, registrar string) {
		j.write(&LogEntry{Zone: zone, Event: EventDSRemoved, Message: registrar})
	})

	subscribe(evt.ZoneAborted, func(zone string, err error) {
		j.write(&LogEntry{Zone: zone, Event: EventZoneAborted, Message: log.EscapeInput(err.Error())})
	})

	subscribe(evt.ZoneValidated, func(zone string, ok bool) {
		j.write(&LogEntry{Zone: zone, Event: EventValidated, Message: strconv.FormatBool(ok)})
	})

	return result
}

func formatTag(tag uint16) string {
	return strconv.Itoa(int(tag))
}
