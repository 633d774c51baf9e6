package registrar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/miekg/dns"

	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/util"
)

const (
	localTrackingID = "local"
	dsFileSuffix    = ".ds"
	dsFileMode      = 0o644
	dsTTL           = 3600
)

// Local maintains the DS of zones whose parent is managed in the same root directory. The DS are
// written to `<parent dir>/<zone>.ds`, the parent includes this file. Zones without local parent
// have nothing to maintain.
type Local struct {
	root string
}

// NewLocal creates the adapter for the zones below root
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Name implements `Registrar`.
func (r *Local) Name() string {
	return "Local"
}

// File returns the DS file of the zone, empty if the parent isn't managed here
func (r *Local) File(zone string) string {
	parent := util.ParentName(zone)
	if parent == "" {
		return ""
	}

	dir := filepath.Join(r.root, parent)
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return ""
	}

	return filepath.Join(dir, zone+dsFileSuffix)
}

// SubmitDS implements `Registrar`.
func (r *Local) SubmitDS(ctx context.Context, zone string, args []model.DSArg) (*Result, error) {
	if err := model.ValidateDSArgs(args); err != nil {
		return nil, err
	}

	var sb strings.Builder

	for _, arg := range args {
		rr := &dns.DS{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn(zone),
				Rrtype: dns.TypeDS,
				Class:  dns.ClassINET,
				Ttl:    dsTTL,
			},
			KeyTag:     arg.Tag,
			Algorithm:  arg.Algorithm,
			DigestType: uint8(arg.DigestType),
			Digest:     strings.ToUpper(arg.Digest),
		}

		sb.WriteString(rr.String() + "\n")
	}

	return r.write(ctx, zone, sb.String())
}

// RemoveAllDS implements `Registrar`.
func (r *Local) RemoveAllDS(ctx context.Context, zone string) (*Result, error) {
	return r.write(ctx, zone, "")
}

func (r *Local) write(ctx context.Context, zone, content string) (*Result, error) {
	logger := log.FromCtx(ctx).WithField("prefix", "registrar")

	file := r.File(zone)
	if file == "" {
		logger.Debugf("%s has no local parent, nothing to do", zone)

		return &Result{TrackingID: localTrackingID, Success: true}, nil
	}

	if err := util.WriteFileAtomic(file, []byte(content), dsFileMode); err != nil {
		return nil, fmt.Errorf("can't write DS of %s: %w", zone, err)
	}

	logger.Debugf("DS of %s written to %s", zone, file)

	return &Result{
		TrackingID: localTrackingID,
		Success:    true,
		Fields:     map[string]string{"file": file},
	}, nil
}

// ListPending implements `Registrar`.
func (r *Local) ListPending(context.Context, string) (*Result, error) {
	return nil, ErrNotSupported
}

// DeleteResult implements `Registrar`.
func (r *Local) DeleteResult(context.Context, string) error {
	return ErrNotSupported
}
