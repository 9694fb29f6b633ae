package telemetry

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty attaches a span to every request made through the
// client, recording request and response headers plus bodies.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func headerAttributes(out *[]attribute.KeyValue, prefix string, headers map[string][]string) {
	for header, values := range headers {
		for i, v := range values {
			key := fmt.Sprintf("%s/header: %s", prefix, header)
			if len(values) > 1 {
				key = fmt.Sprintf("%s (%d)", key, i)
			}
			*out = append(*out, attribute.String(key, v))
		}
	}
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// request attributes are set here since res.Request.RawRequest
	// is nil in OnBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	var attrs []attribute.KeyValue
	headerAttributes(&attrs, "request", res.Request.Header)
	headerAttributes(&attrs, "response", res.Header())
	attrs = append(attrs, attribute.String("response/body", res.String()))
	span.SetAttributes(attrs...)

	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.SetName(fmt.Sprintf("http %s", req.Method))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var attrs []attribute.KeyValue
	headerAttributes(&attrs, "request", req.Header)
	span.SetAttributes(attrs...)

	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}
}
