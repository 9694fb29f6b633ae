package cunyfirst

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"seatwatch/lib/telemetry"
)

const (
	testUsername = "jdoe"
	testPassword = "hunter2"
	testTermId   = "1249"
	testTermName = "2024 Fall Term"
)

const defaultCriteriaBody = `<html>
<head>
<script type="text/javascript">
window.addEventListener("load", function() {
	return EE.initEntrance({"1249": {"name": "2024 Fall Term", "enrollable": true}, "1252": {"enrollable": false}});
});
</script>
</head>
<body></body>
</html>`

const defaultCollegesBody = `[{"cnKey":"CSCI 101","va":"LAG01"},{"va":"HTR01"}]`

const defaultClassDataBody = `<addcourse><classdata>
<timeblocks>
<timeblock id="10" day="1" t1="540" t2="615"></timeblock>
<timeblock id="11" day="3" t1="540" t2="615"></timeblock>
</timeblocks>
<campusgroup>
<campus v="LAG01"></campus>
<course key="CSCI 101">
<uselection>
<selection key="sel-11111" va="LAG01">
<block key="11111" teacher="A. Turing" timeblockids="10,11" wc="5" ws="2" me="30" os="0"></block>
</selection>
<selection key="sel-22222" va="LAG01">
<block key="22222" teacher="G. Hopper" timeblockids="10" wc="5" ws="0" me="30" os="4"></block>
</selection>
<selection key="sel-33333" va="LAG01">
<block key="33333" teacher="E. Dijkstra" timeblockids="11" wc="5" ws="0" me="30" os="0"></block>
</selection>
<selection key="sel-44444" va="LAG01">
<block key="44444" teacher="D. Knuth" timeblockids="" wc="x" ws="0" me="30" os="0"></block>
</selection>
</uselection>
</course>
</campusgroup>
</classdata></addcourse>`

// fakePortal stands in for the enrollment portal: the SSO login chain
// plus the schedule builder API, with per-test tunable behavior.
type fakePortal struct {
	endpoints Endpoints

	mu                 sync.Mutex
	authHits           int
	criteriaHits       int
	classDataHits      int
	enrollOptionHits   int
	performActionHits  int
	lastClassDataQuery url.Values
	lastPerformQuery   url.Values

	portalDown     bool
	authNoLocation bool
	// number of class data responses that report a lapsed session
	// before serving real data
	expireClassData int

	criteriaBody  string
	collegesBody  string
	classDataBody string
	enrolledBody  string
	performBody   string
}

func newFakePortal(t *testing.T) *fakePortal {
	t.Helper()

	p := &fakePortal{
		criteriaBody:  defaultCriteriaBody,
		collegesBody:  defaultCollegesBody,
		classDataBody: defaultClassDataBody,
		enrolledBody:  `{"cnfs":[]}`,
		performBody:   "OK",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/main", p.handleMain)
	mux.HandleFunc("/sso", p.handleSso)
	mux.HandleFunc("/auth", p.handleAuth)
	mux.HandleFunc("/postauth", p.handlePostAuth)
	mux.HandleFunc("/criteria", p.handleCriteria)
	mux.HandleFunc("/api/class-data", p.handleClassData)
	mux.HandleFunc("/api/string-to-filter", p.handleColleges)
	mux.HandleFunc("/api/getEnrollmentState", p.handleEnrollmentState)
	mux.HandleFunc("/api/enroll-options", p.handleEnrollOptions)
	mux.HandleFunc("/api/perform-action", p.handlePerformAction)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	p.endpoints = Endpoints{
		Main:            server.URL + "/main?INSTITUTION=LAG01",
		Auth:            server.URL + "/auth",
		Criteria:        server.URL + "/criteria",
		ClassData:       server.URL + "/api/class-data",
		Search:          server.URL + "/api/string-to-filter",
		EnrollmentState: server.URL + "/api/getEnrollmentState",
		EnrollOptions:   server.URL + "/api/enroll-options",
		PerformAction:   server.URL + "/api/perform-action",
		PortalDown:      "http://portaldown.example/cunyfirst",
	}
	return p
}

func (p *fakePortal) handleMain(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.HasSuffix(r.URL.RawQuery, "&") {
		http.SetCookie(w, &http.Cookie{Name: "api_token", Value: "api-1"})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "portal_sess", Value: "general-1"})
	if p.portalDown {
		w.Header().Set("Location", p.endpoints.PortalDown)
	} else {
		w.Header().Set("Location", strings.TrimSuffix(p.endpoints.Main, "/main?INSTITUTION=LAG01")+"/sso")
	}
	w.WriteHeader(http.StatusFound)
}

func (p *fakePortal) handleSso(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "sso_entry", Value: "entry-1"})
}

func (p *fakePortal) handleAuth(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authHits++

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.FormValue("username") != testUsername || r.FormValue("password") != testPassword {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "sso_auth", Value: "auth-1"})
	if !p.authNoLocation {
		w.Header().Set("Location", strings.TrimSuffix(p.endpoints.Auth, "/auth")+"/postauth")
	}
	w.WriteHeader(http.StatusFound)
}

func (p *fakePortal) handlePostAuth(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "fresh_sess", Value: "fresh-1"})
}

func (p *fakePortal) handleCriteria(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteriaHits++

	http.SetCookie(w, &http.Cookie{Name: "web_sess", Value: "web-1"})
	io.WriteString(w, p.criteriaBody)
}

func (p *fakePortal) handleClassData(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.classDataHits++
	p.lastClassDataQuery = r.URL.Query()

	if p.expireClassData > 0 {
		p.expireClassData--
		io.WriteString(w, sessionExpiredMarker)
		return
	}
	io.WriteString(w, p.classDataBody)
}

func (p *fakePortal) handleColleges(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(w, p.collegesBody)
}

func (p *fakePortal) handleEnrollmentState(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(w, p.enrolledBody)
}

func (p *fakePortal) handleEnrollOptions(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enrollOptionHits++
}

func (p *fakePortal) handlePerformAction(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.performActionHits++
	p.lastPerformQuery = r.URL.Query()
	io.WriteString(w, p.performBody)
}

func (p *fakePortal) counters() (auth, criteria, classData int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authHits, p.criteriaHits, p.classDataHits
}

func newTestClient(t *testing.T, p *fakePortal, opts ...func(*ClientOptions)) *Client {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting(t, "test:scrapers/cunyfirst"))

	options := ClientOptions{
		Username:  testUsername,
		Password:  testPassword,
		Endpoints: p.endpoints,
	}
	for _, opt := range opts {
		opt(&options)
	}

	c := NewClient(options)
	c.now = func() time.Time { return time.Unix(12000, 0) }
	return c
}
