package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stylecart/api-gateway/utils"
)

const gatewayName = "stylecart-gateway"

// Gateway is the reverse proxy front. One shared transport serves every
// route; per-route ReverseProxy instances carry the service attribution.
type Gateway struct {
	routes        []Route
	proxies       map[string]*httputil.ReverseProxy
	timeout       time.Duration
	includeDetail bool
	logger        *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithErrorDetail includes upstream error strings in 503 bodies. Enabled
// outside production only.
func WithErrorDetail() Option {
	return func(g *Gateway) { g.includeDetail = true }
}

// NewGateway creates a proxy over the given routes. timeout bounds each
// upstream call; exceeding it is treated as a connection failure.
func NewGateway(routes []Route, timeout time.Duration, logger *zap.Logger, opts ...Option) *Gateway {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	g := &Gateway{
		routes:  routes,
		proxies: make(map[string]*httputil.ReverseProxy, len(routes)),
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
	}

	for _, rt := range routes {
		g.proxies[rt.Prefix] = g.newProxy(rt, transport)
	}
	return g
}

// newProxy builds the streaming ReverseProxy for one route. The matched
// prefix is kept on the forwarded path; upstreams mount their routers under
// the same public paths the gateway exposes.
func (g *Gateway) newProxy(rt Route, transport http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Transport: transport,
		// Flush as bytes arrive so streamed upstream responses are not
		// held back by buffering.
		FlushInterval: -1,
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(rt.Upstream)
			pr.Out.URL.Path = pr.In.URL.Path
			pr.Out.URL.RawPath = pr.In.URL.RawPath
			pr.Out.Host = rt.Upstream.Host
			pr.SetXForwarded()

			pr.Out.Header.Set("X-Forwarded-By", gatewayName)
			pr.Out.Header.Set("X-Gateway-Target", rt.Service)
			if reqID := chimw.GetReqID(pr.In.Context()); reqID != "" {
				pr.Out.Header.Set("X-Request-Id", reqID)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			// The gateway owns CORS; upstream copies would duplicate or
			// contradict the values set from the inbound Origin.
			resp.Header.Del("Access-Control-Allow-Origin")
			resp.Header.Del("Access-Control-Allow-Credentials")
			resp.Header.Del("Access-Control-Allow-Methods")
			resp.Header.Del("Access-Control-Allow-Headers")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.handleUpstreamError(w, r, rt, err)
		},
	}
}

// ServeHTTP matches the inbound path against the route table and forwards
// the request under a hard timeout. Unmatched paths get the uniform 404.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, ok := match(g.routes, r.URL.Path)
	if !ok {
		_ = utils.WriteNotFound(w, fmt.Sprintf("No service handles %s", r.URL.Path))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	g.proxies[rt.Prefix].ServeHTTP(w, r.WithContext(ctx))
}

// Routes returns the configured route table, longest prefix first.
func (g *Gateway) Routes() []Route {
	return g.routes
}

func (g *Gateway) handleUpstreamError(w http.ResponseWriter, r *http.Request, rt Route, err error) {
	// Client went away mid-transfer; nothing sensible left to write.
	if errors.Is(err, context.Canceled) && r.Context().Err() == context.Canceled {
		return
	}

	g.logger.Error("upstream call failed",
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.String("service", rt.Service),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))

	detail := ""
	if g.includeDetail {
		detail = truncate(err.Error(), 200)
	}
	_ = utils.WriteServiceUnavailable(w,
		fmt.Sprintf("%s is currently unavailable", rt.Service), detail)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
