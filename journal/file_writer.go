package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/util"
)

const (
	loggerPrefixFileWriter = "fileJournalWriter"
	fileDateFormat         = "2006-01-02"
	fileSuffix             = "_journal.log"
	journalFileMode        = 0o640
)

// FileWriter appends the entries as tab separated rows to one file per day
type FileWriter struct {
	target           string
	logRetentionDays uint64
	now              func() time.Time
}

func NewCSVWriter(target string, logRetentionDays uint64) (*FileWriter, error) {
	if st, err := os.Stat(target); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("journal directory '%s' does not exist or is not a directory", target)
	}

	return &FileWriter{
		target:           target,
		logRetentionDays: logRetentionDays,
		now:              time.Now,
	}, nil
}

func (d *FileWriter) Write(entry *LogEntry) {
	writePath := filepath.Join(d.target, entry.Time.Format(fileDateFormat)+fileSuffix)
	logger := log.PrefixedLog(loggerPrefixFileWriter).WithField("file_name", writePath)

	file, err := os.OpenFile(writePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, journalFileMode)
	if err != nil {
		util.LogOnErrorWithEntry(logger, "can't create/open file", err)

		return
	}

	defer file.Close()

	writer := createCsvWriter(file)

	util.LogOnErrorWithEntry(logger, "can't write to file", writer.Write(createJournalRow(entry)))
	writer.Flush()
}

// CleanUp deletes journal files older than the retention time
func (d *FileWriter) CleanUp() {
	const hoursPerDay = 24

	if d.logRetentionDays == 0 {
		return
	}

	logger := log.PrefixedLog(loggerPrefixFileWriter)

	logger.Trace("starting clean up")

	files, err := os.ReadDir(d.target)
	if err != nil {
		util.LogOnErrorWithEntry(logger.WithField("target", d.target), "can't list journal directory: ", err)

		return
	}

	for _, f := range files {
		name := f.Name()
		if !strings.HasSuffix(name, fileSuffix) || len(name) <= len(fileDateFormat) {
			continue
		}

		t, err := time.Parse(fileDateFormat, name[:len(fileDateFormat)])
		if err != nil {
			continue
		}

		differenceDays := uint64(d.now().Sub(t).Hours() / hoursPerDay)
		if differenceDays > d.logRetentionDays {
			logger.WithFields(logrus.Fields{
				"file":             name,
				"ageInDays":        differenceDays,
				"logRetentionDays": d.logRetentionDays,
			}).Info("existing journal file is older than retention time and will be deleted")

			err := os.Remove(filepath.Join(d.target, name))
			util.LogOnErrorWithEntry(logger.WithField("file", name), "can't remove file: ", err)
		}
	}
}

func createJournalRow(entry *LogEntry) []string {
	return []string{
		entry.Time.Format("2006-01-02 15:04:05"),
		entry.Zone,
		entry.Event,
		entry.KeyType,
		formatTag(entry.KeyTag),
		strconv.Itoa(entry.FromState),
		strconv.Itoa(entry.ToState),
		strconv.Itoa(entry.Retries),
		entry.Message,
	}
}

func createCsvWriter(file io.Writer) *csv.Writer {
	writer := csv.NewWriter(file)
	writer.Comma = '\t'

	return writer
}
