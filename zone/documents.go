package zone

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/rollover"
	"github.com/dskm-project/dskm/util"
)

const (
	configPrefix = "dnssec-conf-"
	statusPrefix = "dnssec-stat-"

	documentFileMode = 0o644
)

// Config is the persisted configuration of a zone
type Config struct {
	Method    model.Method      `json:"method"`
	Registrar string            `json:"registrar"`
	Timing    *model.KeyTimings `json:"timing,omitempty"`
}

// Status is the persisted state of the key tracks of a zone
type Status struct {
	KSK          model.TrackStatus `json:"ksk"`
	ZSK          model.TrackStatus `json:"zsk"`
	OldMethod    model.Method      `json:"oldMethod"`
	OldRegistrar string            `json:"oldRegistrar"`
	// SubmittedToParent are the tags of the KSK whose DS were submitted to the parent
	SubmittedToParent []uint16 `json:"submittedToParent"`
}

// DefaultConfig returns the configuration of a new zone
func DefaultConfig(cfg *config.Config) Config {
	return Config{
		Method:    model.MethodUnsigned,
		Registrar: config.RegistrarLocal,
		Timing:    cfg.Timing.KeyTimings(),
	}
}

// DefaultStatus returns the status of a zone which isn't signed yet
func DefaultStatus() Status {
	return Status{
		KSK:               model.TrackStatus{State: rollover.StateIdle},
		ZSK:               model.TrackStatus{State: rollover.StateIdle},
		OldMethod:         model.MethodUnsigned,
		OldRegistrar:      config.RegistrarLocal,
		SubmittedToParent: []uint16{},
	}
}

// nolint:gochecknoglobals
var (
	timingKeys = []string{"pa", "ai", "id", "overlap"}
	statusKeys = []string{"ksk", "zsk", "oldMethod", "oldRegistrar", "submittedToParent"}
	trackKeys  = []string{"state", "retries"}
)

// readConfig reads the configuration document. A missing document is created with the
// defaults, a missing timing block is embedded and the document rewritten.
func readConfig(dir, zone string, defaults Config) (Config, error) {
	name := filepath.Join(dir, configPrefix+zone)

	raw, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, writeDocument(name, defaults)
	}

	if err != nil {
		return Config{}, fmt.Errorf("can't read configuration: %w", err)
	}

	fields, err := requireKeys(name, raw, "method", "registrar")
	if err != nil {
		return Config{}, err
	}

	var res Config
	if err := json.Unmarshal(raw, &res); err != nil {
		return Config{}, fmt.Errorf("%w '%s': %w", ErrInvalidDocument, name, err)
	}

	if _, ok := fields["timing"]; !ok {
		res.Timing = defaults.Timing

		if err := writeDocument(name, res); err != nil {
			return Config{}, err
		}

		return res, nil
	}

	if err := requireTiming(name, fields["timing"]); err != nil {
		return Config{}, err
	}

	return res, nil
}

// readStatus reads the status document, a missing document is created with the defaults
func readStatus(dir, zone string) (Status, error) {
	name := filepath.Join(dir, statusPrefix+zone)

	raw, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		res := DefaultStatus()

		return res, writeDocument(name, res)
	}

	if err != nil {
		return Status{}, fmt.Errorf("can't read status: %w", err)
	}

	fields, err := requireKeys(name, raw, statusKeys...)
	if err != nil {
		return Status{}, err
	}

	for _, track := range []string{"ksk", "zsk"} {
		if _, err := requireKeys(name, fields[track], trackKeys...); err != nil {
			return Status{}, err
		}
	}

	var res Status
	if err := json.Unmarshal(raw, &res); err != nil {
		return Status{}, fmt.Errorf("%w '%s': %w", ErrInvalidDocument, name, err)
	}

	if res.SubmittedToParent == nil {
		res.SubmittedToParent = []uint16{}
	}

	return res, nil
}

func requireTiming(name string, raw json.RawMessage) error {
	fields, err := requireKeys(name, raw, "ksk", "zsk")
	if err != nil {
		return err
	}

	for _, kt := range []string{"ksk", "zsk"} {
		if _, err := requireKeys(name, fields[kt], timingKeys...); err != nil {
			return err
		}
	}

	return nil
}

func requireKeys(name string, raw []byte, keys ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrInvalidDocument, name, err)
	}

	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("%w '%s': missing option '%s'", ErrInvalidDocument, name, k)
		}
	}

	return fields, nil
}

func writeDocument(name string, doc interface{}) error {
	raw, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return fmt.Errorf("can't encode '%s': %w", filepath.Base(name), err)
	}

	if err := util.WriteFileAtomic(name, append(raw, '\n'), documentFileMode); err != nil {
		return fmt.Errorf("can't write '%s': %w", filepath.Base(name), err)
	}

	return nil
}
