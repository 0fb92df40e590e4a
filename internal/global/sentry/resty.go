package sentry

import (
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-resty/resty/v2"
)

// TraceResty 为外部 HTTP 调用创建 span，并透传 sentry-trace 头
func TraceResty(client *resty.Client) {
	if !Enabled() {
		return
	}
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		parent := sentry.SpanFromContext(req.Context())
		if parent == nil {
			return nil
		}
		span := parent.StartChild("http.client")
		span.Description = req.Method + " " + stripQuery(req.URL)
		req.SetHeader("sentry-trace", span.ToSentryTrace())
		if baggage := span.ToBaggage(); baggage != "" {
			req.SetHeader("baggage", baggage)
		}
		req.SetContext(span.Context())
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		span := sentry.SpanFromContext(resp.Request.Context())
		if span == nil || span.Op != "http.client" {
			return nil
		}
		span.SetData("http.response.status_code", resp.StatusCode())
		span.Status = sentry.HTTPtoSpanStatus(resp.StatusCode())
		span.Finish()
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		if req == nil {
			return
		}
		if span := sentry.SpanFromContext(req.Context()); span != nil && span.Op == "http.client" {
			finish(span, time.Duration(0), err)
		}
	})
}

// stripQuery 只保留 scheme://host/path，避免 API key 等参数进入 Sentry
func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "unknown"
	}
	return u.Scheme + "://" + u.Host + u.Path
}
