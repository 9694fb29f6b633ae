package cunyfirst

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"seatwatch/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Term is one academic term offered on the portal.
type Term struct {
	Id         string
	Name       string
	Enrollable bool
}

// the criteria page boots its frontend with an inline script call
// carrying the term table as its argument
const (
	termScriptMarker = "return EE.initEntrance("
	termScriptEnd    = ");"
)

const unknownTermName = "Unknown Term"

// Terms returns the term table, fetching it on first use and serving
// the cached copy afterwards. A page the term data cannot be read
// from yields an empty table, not an error.
func (c *Client) Terms(ctx context.Context) (map[string]Term, error) {
	if c.terms != nil {
		return c.terms, nil
	}
	terms, err := withRelogin(ctx, c, c.fetchTerms)
	if err != nil {
		return nil, err
	}
	c.terms = terms
	return terms, nil
}

func (c *Client) fetchTerms(ctx context.Context) (map[string]Term, error) {
	ctx, span := tracer.Start(ctx, "client:fetchTerms")
	defer span.End()

	sess, err := c.apiSession()
	if err != nil {
		return nil, err
	}

	res, err := c.transport.get(ctx, sess, c.endpoints.Criteria, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the criteria page")
		return nil, err
	}
	if err := checkSessionBody(res); err != nil {
		return nil, err
	}

	raw, ok := extractScriptArgument(res.Body(), termScriptMarker)
	if !ok {
		slog.WarnContext(ctx, "term data marker not found on the criteria page")
		span.SetStatus(codes.Error, "term data marker not found")
		return map[string]Term{}, nil
	}

	var decoded map[string]struct {
		Name       string `json:"name"`
		Enrollable bool   `json:"enrollable"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		slog.WarnContext(ctx, "malformed term data on the criteria page", "err", err)
		span.RecordError(err)
		return map[string]Term{}, nil
	}

	terms := make(map[string]Term, len(decoded))
	for id, data := range decoded {
		name := data.Name
		if name == "" {
			name = unknownTermName
		}
		terms[id] = Term{Id: id, Name: name, Enrollable: data.Enrollable}
	}
	return terms, nil
}

// extractScriptArgument scans the page's script elements for the text
// between `marker` and the closing of the call it opens.
func extractScriptArgument(body []byte, marker string) ([]byte, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	for _, script := range doc.Find("script").Nodes {
		text := htmlutil.GetText(script)
		start := strings.Index(text, marker)
		if start < 0 {
			continue
		}
		rest := text[start+len(marker):]
		end := strings.Index(rest, termScriptEnd)
		if end < 0 {
			continue
		}
		return []byte(rest[:end]), true
	}
	return nil, false
}

// ResolveColleges maps each course identifier to the venue code of
// the college offering it in the given term. Identifiers unknown to
// the portal are absent from the result.
func (c *Client) ResolveColleges(ctx context.Context, term string, courses []string) (map[string]string, error) {
	return withRelogin(ctx, c, func(ctx context.Context) (map[string]string, error) {
		return c.resolveColleges(ctx, term, courses)
	})
}

func (c *Client) resolveColleges(ctx context.Context, term string, courses []string) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "client:resolveColleges")
	defer span.End()

	sess, err := c.apiSession()
	if err != nil {
		return nil, err
	}

	res, err := c.transport.postForm(ctx, sess, c.endpoints.Search, map[string]string{
		"term":      term,
		"itemnames": strings.Join(courses, ","),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := checkSessionBody(res); err != nil {
		return nil, err
	}

	var entries []struct {
		CnKey string `json:"cnKey"`
		Va    string `json:"va"`
	}
	if err := json.Unmarshal(res.Body(), &entries); err != nil {
		slog.WarnContext(ctx, "malformed college lookup response", "err", err)
		span.RecordError(err)
		return map[string]string{}, nil
	}

	colleges := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.CnKey == "" {
			continue
		}
		colleges[e.CnKey] = e.Va
	}
	return colleges, nil
}
