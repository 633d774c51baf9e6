package registrar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/util"
)

const (
	fieldStatusCode       = "Status-Code"
	fieldStatusText       = "Status-Text"
	fieldAuthSid          = "Auth-Sid"
	fieldTrackingID       = "Tracking-Id"
	fieldCompletionStatus = "Completion-Status"
	fieldRequestState     = "request_state"

	completionPending = "?"
	requestSucceeded  = "SUCCESS"

	// result list lines shorter than this carry no job
	minResultLineLen = 10
)

var (
	// ErrRequestFailed is returned if the DMAPI answered with a status code other than 0
	ErrRequestFailed = errors.New("DMAPI request failed")

	errPending = errors.New("request still pending")
)

// DMAPI talks to a registrar implementing the domain management API: every request is a GET of
// `/request/<command>` answered by `key: value` lines. Changes are asynchronous, their completion
// is polled with the returned tracking id.
type DMAPI struct {
	name string
	cfg  config.Registrar
	base *url.URL

	client *http.Client
	sid    string
}

// NewDMAPI creates the adapter of a configured registrar
func NewDMAPI(name string, cfg config.Registrar) (*DMAPI, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url '%s': %w", cfg.URL, err)
	}

	return &DMAPI{
		name: name,
		cfg:  cfg,
		base: base,
		client: &http.Client{
			Timeout:   time.Minute,
			Transport: util.DefaultHTTPTransport(),
		},
	}, nil
}

// Name implements `Registrar`.
func (r *DMAPI) Name() string {
	return r.name
}

func (r *DMAPI) logger(ctx context.Context) *logrus.Entry {
	return log.FromCtx(ctx).WithField("prefix", "registrar").WithField("registrar", r.name)
}

// SubmitDS implements `Registrar`.
// Zones below .de are submitted with their DNSKEY, all others with the DS.
func (r *DMAPI) SubmitDS(ctx context.Context, zone string, args []model.DSArg) (*Result, error) {
	if util.IsArpa(zone) {
		return nil, fmt.Errorf("%w: DS submission of %s", ErrNotSupported, zone)
	}

	if err := model.ValidateDSArgs(args); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("domain", zone)
	params.Set("dnssec", "1")

	if tld(zone) == "de" {
		i := 1
		seen := make(map[uint16]bool)

		for _, arg := range args {
			if seen[arg.Tag] {
				continue
			}

			if arg.Flags == 0 || arg.PublicKey == "" {
				return nil, fmt.Errorf("%w: missing DNSKEY of key %d", model.ErrMalformedDSArg, arg.Tag)
			}

			seen[arg.Tag] = true
			params.Set("ds-"+strconv.Itoa(i), fmt.Sprintf("3:%d:%d:%s", arg.Algorithm, arg.Flags, arg.PublicKey))
			i++
		}
	} else {
		for i, arg := range args {
			params.Set("ds-"+strconv.Itoa(i+1),
				fmt.Sprintf("%d:%d:%d:%s", arg.Tag, arg.Algorithm, uint8(arg.DigestType), arg.Digest))
		}
	}

	return r.modify(ctx, params)
}

// RemoveAllDS implements `Registrar`.
func (r *DMAPI) RemoveAllDS(ctx context.Context, zone string) (*Result, error) {
	if util.IsArpa(zone) {
		return nil, fmt.Errorf("%w: DS removal of %s", ErrNotSupported, zone)
	}

	params := url.Values{}
	params.Set("domain", zone)
	params.Set("dnssec", "0")

	return r.modify(ctx, params)
}

func (r *DMAPI) modify(ctx context.Context, params url.Values) (*Result, error) {
	res, err := r.request(ctx, "domain-modify", params)
	if err != nil {
		return nil, err
	}

	id, ok := res.Fields[fieldTrackingID]
	if !ok {
		return nil, fmt.Errorf("missing %s in answer of %s to domain-modify", fieldTrackingID, r.name)
	}

	return r.awaitCompletion(ctx, id)
}

// awaitCompletion polls the job until the registrar completed it
func (r *DMAPI) awaitCompletion(ctx context.Context, id string) (*Result, error) {
	logger := r.logger(ctx)

	interval := r.cfg.PollInterval.ToDuration()
	attempts := uint(1)

	if interval > 0 {
		attempts = uint(r.cfg.Timeout.ToDuration()/interval) + 1
	}

	var res *Result

	err := retry.Do(
		func() error {
			var err error

			res, err = r.retrieve(ctx, id)
			if err != nil {
				return err
			}

			if res.Fields[fieldCompletionStatus] == completionPending {
				return errPending
			}

			return nil
		},
		retry.Attempts(attempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(interval),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errPending)
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, _ error) {
			logger.Debugf("retrieving completion status of %s (%d/%d)", id, n+1, attempts)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("job %s at %s: %w", id, r.name, err)
	}

	res.TrackingID = id
	res.Success = res.Fields[fieldRequestState] == requestSucceeded

	if !res.Success {
		logger.Warnf("job %s completed unsuccessfully:\n%s", id, res)
	}

	return res, nil
}

func (r *DMAPI) retrieve(ctx context.Context, id string) (*Result, error) {
	return r.request(ctx, "result-retrieve", url.Values{"SvTrID": {id}})
}

// ListPending implements `Registrar`.
func (r *DMAPI) ListPending(ctx context.Context, trackingID string) (*Result, error) {
	var (
		res *Result
		err error
	)

	if trackingID == "" {
		res, err = r.request(ctx, "result-list", nil)
	} else {
		res, err = r.retrieve(ctx, trackingID)
	}

	if err != nil {
		return nil, err
	}

	res.TrackingID = trackingID
	res.Success = true

	return res, nil
}

// DeleteResult implements `Registrar`.
// Without tracking id the completion info of all listed jobs is removed.
func (r *DMAPI) DeleteResult(ctx context.Context, trackingID string) error {
	if trackingID != "" {
		_, err := r.request(ctx, "result-delete", url.Values{"SvTrID": {trackingID}})

		return err
	}

	list, err := r.ListPending(ctx, "")
	if err != nil {
		return err
	}

	var result error

	for _, line := range list.Lines {
		if len(line) < minResultLineLen {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		if err := r.DeleteResult(ctx, fields[1]); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

func (r *DMAPI) login(ctx context.Context) error {
	res, err := r.get(ctx, "login", url.Values{
		"username": {r.cfg.Username},
		"password": {r.cfg.Password},
	})
	if err != nil {
		return fmt.Errorf("login at %s failed: %w", r.name, err)
	}

	sid, ok := res.Fields[fieldAuthSid]
	if !ok {
		return fmt.Errorf("login at %s failed: missing %s", r.name, fieldAuthSid)
	}

	r.sid = sid

	r.logger(ctx).Debug("logged in")

	return nil
}

// request sends an authenticated command, the session is opened by the first request
func (r *DMAPI) request(ctx context.Context, cmd string, params url.Values) (*Result, error) {
	if r.sid == "" {
		if err := r.login(ctx); err != nil {
			return nil, err
		}
	}

	if params == nil {
		params = url.Values{}
	}

	params.Set("auth-sid", r.sid)

	return r.get(ctx, cmd, params)
}

func (r *DMAPI) get(ctx context.Context, cmd string, params url.Values) (*Result, error) {
	u := r.base.JoinPath("request", cmd)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	r.logger(ctx).Debugf("request %s", cmd)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request %s failed: %w", r.name, cmd, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s request %s failed: HTTP status %d", r.name, cmd, resp.StatusCode)
	}

	res, err := parseResponse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("can't parse answer of %s to %s: %w", r.name, cmd, err)
	}

	if code := res.Fields[fieldStatusCode]; code != "0" {
		return nil, fmt.Errorf("%w: %s %s: %s (%s)", ErrRequestFailed, r.name, cmd, res.Fields[fieldStatusText], code)
	}

	return res, nil
}

// parseResponse splits the answer into `key: value` fields and the remaining lines
func parseResponse(body io.Reader) (*Result, error) {
	res := &Result{Fields: make(map[string]string)}

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		if strings.Count(line, ":") == 1 {
			k, v, _ := strings.Cut(line, ":")
			res.Fields[strings.TrimSpace(k)] = strings.TrimSpace(v)

			continue
		}

		res.Lines = append(res.Lines, line)
	}

	return res, scanner.Err()
}

func tld(zone string) string {
	labels := dns.SplitDomainName(zone)
	if len(labels) == 0 {
		return ""
	}

	return strings.ToLower(labels[len(labels)-1])
}
