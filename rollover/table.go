package rollover

import (
	"fmt"

	"github.com/dskm-project/dskm/model"
)

// Check is the condition which must hold before a key track leaves its state
type Check int

const (
	// CheckIncluded holds if the key signs the zone (or its DS is published at the parent)
	CheckIncluded Check = iota
	// CheckExcluded holds if the key no longer signs the zone (or its DS was retracted)
	CheckExcluded
	// CheckDeleted holds if the key is missing in the DNSKEY set of the master
	CheckDeleted
	// CheckTime holds if the named milestone of the key has passed
	CheckTime
)

func (c Check) String() string {
	switch c {
	case CheckIncluded:
		return "included"
	case CheckExcluded:
		return "excluded"
	case CheckDeleted:
		return "deleted"
	case CheckTime:
		return "time"
	}

	return fmt.Sprintf("Check(%d)", int(c))
}

// Action is the effect of a transition
type Action int

const (
	ActionNone Action = iota
	// ActionCreate creates the successor of the key
	ActionCreate
	// ActionDelete marks the key (or with argument delete_all all keys of the zone) for deletion
	ActionDelete
	// ActionRename does nothing, the successor takes over the files of the deleted key by sort order
	ActionRename
	// ActionSubmit changes the set of DS submitted to the parent
	ActionSubmit
	// ActionSetDeleteTime moves the delete time of the key to now plus the inactive to delete interval
	ActionSetDeleteTime
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCreate:
		return "create"
	case ActionDelete:
		return "delete"
	case ActionRename:
		return "rename"
	case ActionSubmit:
		return "submit"
	case ActionSetDeleteTime:
		return "setDeleteTime"
	}

	return fmt.Sprintf("Action(%d)", int(a))
}

// DeleteAll is the argument of ActionDelete removing all key material of the zone
const DeleteAll = "delete_all"

// Row is one state of a key track
type Row struct {
	Label     string
	Timeout   model.TimeoutClass
	Check     Check
	CheckArg  string
	Action    Action
	ActionArg string
	// Next is the state after a successful check, 0 means the following row
	Next int
}

// NextState returns the state following state on success
func (r Row) NextState(state int) int {
	if r.Next != 0 {
		return r.Next
	}

	return state + 1
}

const (
	// StateIdle is the state of zones which are not signed yet
	StateIdle = -1

	// KSKStateMax is the last state of a regular KSK rollover, higher states roll the zone back to unsigned
	KSKStateMax = 8
	// ZSKStateMax is the last state of a ZSK rollover
	ZSKStateMax = 4
)

// nolint:gochecknoglobals
var zskTable = []Row{
	{Label: "ZSK1 created", Timeout: model.TimeoutClassShort, Check: CheckIncluded, CheckArg: "zsk1"},
	{
		Label: "ZSK1 active", Timeout: model.TimeoutClassNone, Check: CheckTime, CheckArg: "zsk1_followup",
		Action: ActionCreate, ActionArg: "zsk",
	},
	{Label: "ZSK2 created", Timeout: model.TimeoutClassLong, Check: CheckIncluded, CheckArg: "zsk2"},
	{Label: "ZSK2 active", Timeout: model.TimeoutClassShort, Check: CheckExcluded, CheckArg: "zsk1"},
	{
		Label: "ZSK1 inactive", Timeout: model.TimeoutClassDelete, Check: CheckDeleted, CheckArg: "zsk1",
		Action: ActionDelete, ActionArg: "zsk", Next: 1,
	},
}

// nolint:gochecknoglobals
var kskTable = []Row{
	{Label: "KSK1 created", Timeout: model.TimeoutClassShort, Check: CheckIncluded, CheckArg: "ksk1"},
	{
		Label: "KSK1 active", Timeout: model.TimeoutClassNone, Check: CheckTime, CheckArg: "ds1_submit",
		Action: ActionSubmit, ActionArg: string(model.ActivityPublish1),
	},
	{Label: "DS1 submitted", Timeout: model.TimeoutClassShort, Check: CheckIncluded, CheckArg: "ds1"},
	{
		Label: "DS1 published", Timeout: model.TimeoutClassNone, Check: CheckTime, CheckArg: "ksk1_followup",
		Action: ActionCreate, ActionArg: "ksk",
	},
	{
		Label: "KSK2 created", Timeout: model.TimeoutClassLong, Check: CheckIncluded, CheckArg: "ksk2",
		Action: ActionSubmit, ActionArg: string(model.ActivityPublish2),
	},
	{
		Label: "KSK2 active", Timeout: model.TimeoutClassShort, Check: CheckIncluded, CheckArg: "ds2",
		Action: ActionSubmit, ActionArg: string(model.ActivityRetire),
	},
	{Label: "DS2 published", Timeout: model.TimeoutClassShort, Check: CheckExcluded, CheckArg: "ds1"},
	{Label: "DS1 retired", Timeout: model.TimeoutClassInactive, Check: CheckExcluded, CheckArg: "ksk1"},
	{
		Label: "KSK1 inactive", Timeout: model.TimeoutClassDelete, Check: CheckDeleted, CheckArg: "ksk1",
		Action: ActionDelete, ActionArg: "ksk", Next: 3,
	},
	{
		Label: "DS retire request submitted", Timeout: model.TimeoutClassShort, Check: CheckExcluded, CheckArg: "ds",
		Action: ActionSetDeleteTime,
	},
	{
		Label: "DS retired", Timeout: model.TimeoutClassNone, Check: CheckTime, CheckArg: "ksk_delete",
		Action: ActionDelete, ActionArg: DeleteAll, Next: StateIdle,
	},
}

// Table returns the state table of the key type
func Table(kt model.KeyType) []Row {
	if kt == model.KeyTypeKSK {
		return kskTable
	}

	return zskTable
}

// StateLabel returns the name of the state of a track
func StateLabel(kt model.KeyType, state int) string {
	table := Table(kt)

	switch {
	case state == StateIdle:
		return "idle"
	case state >= 0 && state < len(table):
		return table[state].Label
	}

	return fmt.Sprintf("invalid state %d", state)
}
