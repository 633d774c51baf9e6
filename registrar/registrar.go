// Package registrar contains the adapters maintaining the DS records of the managed zones at
// their parents: the local parent directory, hand over by mail and the DMAPI of a registrar.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/notify"
)

// ErrUnknownRegistrar is returned for zones bound to a registrar which isn't configured
var ErrUnknownRegistrar = errors.New("unknown registrar")

// ErrNotSupported is returned by adapters without job introspection
var ErrNotSupported = errors.New("not supported by registrar")

// Result is the answer of a registrar to a request. A request which couldn't be sent or whose
// answer couldn't be parsed returns an error instead.
type Result struct {
	// TrackingID identifies the asynchronous job of the registrar
	TrackingID string
	// Success is false if the registrar refused or failed the request
	Success bool
	// Fields are the key value pairs of the answer
	Fields map[string]string
	// Lines are the remaining lines of the answer
	Lines []string
}

func (r *Result) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "tracking id: %s, success: %t", r.TrackingID, r.Success)

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&sb, "\n%s: %s", k, r.Fields[k])
	}

	for _, l := range r.Lines {
		sb.WriteString("\n" + l)
	}

	return sb.String()
}

// Registrar maintains the DS records of zones at their parent
type Registrar interface {
	// Name returns the name zones use to bind to the registrar
	Name() string
	// SubmitDS replaces the DS records of the zone at the parent
	SubmitDS(ctx context.Context, zone string, args []model.DSArg) (*Result, error)
	// RemoveAllDS retracts all DS records of the zone
	RemoveAllDS(ctx context.Context, zone string) (*Result, error)
	// ListPending returns the job with the tracking id or all jobs if the id is empty
	ListPending(ctx context.Context, trackingID string) (*Result, error)
	// DeleteResult removes the completion info of the job or all jobs if the id is empty
	DeleteResult(ctx context.Context, trackingID string) error
}

// Directory resolves the registrar bindings of zones
type Directory struct {
	registrars map[string]Registrar
}

// NewDirectory creates the built-in registrars and all registrars of the configuration
func NewDirectory(cfg *config.Config, sender notify.Sender) (*Directory, error) {
	d := &Directory{registrars: make(map[string]Registrar, len(cfg.Registrars)+2)}

	d.registrars[config.RegistrarLocal] = NewLocal(cfg.Root)
	d.registrars[config.RegistrarByHand] = NewByHand(config.RegistrarByHand, sender, cfg.Mail.Recipients)

	for name, rc := range cfg.Registrars {
		switch rc.Type {
		case config.RegistrarTypeDmapi:
			r, err := NewDMAPI(name, rc)
			if err != nil {
				return nil, fmt.Errorf("can't create registrar '%s': %w", name, err)
			}

			d.registrars[name] = r
		case config.RegistrarTypeMail:
			d.registrars[name] = NewByHand(name, sender, rc.Recipients)
		default:
			return nil, fmt.Errorf("registrar '%s' has unknown type %s", name, rc.Type)
		}
	}

	return d, nil
}

// Get returns the registrar with the name
func (d *Directory) Get(name string) (Registrar, error) {
	r, ok := d.registrars[name]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownRegistrar, name)
	}

	return r, nil
}

// External returns all configured registrars sorted by name
func (d *Directory) External() []Registrar {
	var res []Registrar

	for name, r := range d.registrars {
		if name == config.RegistrarLocal || name == config.RegistrarByHand {
			continue
		}

		res = append(res, r)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})

	return res
}
