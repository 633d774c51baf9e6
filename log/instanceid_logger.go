package log

import (
	"github.com/dskm-project/dskm/instanceid"
	"github.com/sirupsen/logrus"
)

// instanceIDFormatter adds the id of the current invocation to every entry,
// so the messages of one run can be correlated in a shared syslog
type instanceIDFormatter struct {
	formatter logrus.Formatter
}

func (l instanceIDFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	newentry := *entry
	newentry.Data = make(logrus.Fields, len(entry.Data)+1)

	for k, v := range entry.Data {
		newentry.Data[k] = v
	}

	newentry.Data["run"] = instanceid.String()

	return l.formatter.Format(&newentry)
}
