package cunyfirst

import (
	"time"

	"seatwatch/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/cunyfirst")

// Endpoints lists the portal URLs the client talks to. The defaults
// are a wire contract: URLs, parameter names and marker strings on
// these endpoints match the live portal byte for byte.
type Endpoints struct {
	Main            string
	Auth            string
	Criteria        string
	ClassData       string
	Search          string
	EnrollmentState string
	EnrollOptions   string
	PerformAction   string
	PortalDown      string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Main:            "https://cssa.cunyfirst.cuny.edu/psc/cnycsprd/EMPLOYEE/SA/s/WEBLIB_VSB.TRANSFER_FUNCS.FieldFormula.IScript_RedirectVSBuilder?INSTITUTION=LAG01",
		Auth:            "https://ssologin.cuny.edu/oam/server/auth_cred_submit",
		Criteria:        "https://sb.cunyfirst.cuny.edu/criteria.jsp",
		ClassData:       "https://sb.cunyfirst.cuny.edu/api/class-data",
		Search:          "https://sb.cunyfirst.cuny.edu/api/string-to-filter",
		EnrollmentState: "https://sb.cunyfirst.cuny.edu/api/getEnrollmentState",
		EnrollOptions:   "https://sb.cunyfirst.cuny.edu/api/enroll-options",
		PerformAction:   "https://sb.cunyfirst.cuny.edu/api/perform-action",
		PortalDown:      "http://portaldown.cuny.edu/cunyfirst",
	}
}

type ClientOptions struct {
	Username string
	Password string
	// attempt enrollment for open sections during a class data fetch
	AutoEnroll bool
	// format section times as 24-hour instead of 12-hour
	Hour24 bool
	// skip TLS verification, some of the portal hosts serve
	// certificates that fail chain validation
	InsecureSkipVerify bool
	// route requests through a browser-profile transport
	BrowserEmulation bool
	// zero value means DefaultEndpoints()
	Endpoints Endpoints
}

type Client struct {
	endpoints Endpoints
	transport *transport

	username string
	password string

	autoEnroll bool
	hour24     bool

	// general portal session walked through the login chain
	session *Session
	// cookie subset scoped to the class data and enrollment endpoints
	api *Session

	// lazily fetched once per client lifetime
	terms map[string]Term

	now func() time.Time
}

func NewClient(opts ClientOptions) *Client {
	endpoints := opts.Endpoints
	if endpoints == (Endpoints{}) {
		endpoints = DefaultEndpoints()
	}
	return &Client{
		endpoints: endpoints,
		transport: newTransport(transportOptions{
			insecureSkipVerify: opts.InsecureSkipVerify,
			browserEmulation:   opts.BrowserEmulation,
		}),
		username:   opts.Username,
		password:   opts.Password,
		autoEnroll: opts.AutoEnroll,
		hour24:     opts.Hour24,
		session:    NewSession(defaultHeaders()),
		now:        time.Now,
	}
}

func defaultHeaders() map[string]string {
	return map[string]string{"User-Agent": "CUNY/1.0"}
}

// Authenticated reports whether the login chain completed and the
// client holds cookies for the data API.
func (c *Client) Authenticated() bool {
	return c.api != nil
}

// apiSession returns the API-scoped session. Calls that depend on it
// report an expired session when it is absent, so the retry wrapper
// can force a login instead of crashing.
func (c *Client) apiSession() (*Session, error) {
	if c.api == nil {
		return nil, ErrSessionExpired
	}
	return c.api, nil
}

// SetInstrumentOutput dumps every portal exchange to the given output,
// for debugging the login chain.
func (c *Client) SetInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.DumpMessages(c.transport.http, output)
}
