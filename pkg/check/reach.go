package check

import "net/http"

// Reach classifies an HTTP status by what it says about the endpoint.
// Several probes accept a mix of these as proof the endpoint exists;
// Reach keeps the distinction visible in structured reports.
type Reach string

const (
	ReachNone        Reach = ""
	ReachOK          Reach = "ok"
	ReachRedirect    Reach = "redirect"
	ReachAuth        Reach = "auth_required"
	ReachThrottled   Reach = "throttled"
	ReachNotFound    Reach = "not_found"
	ReachRejected    Reach = "rejected"
	ReachServerError Reach = "server_error"
	ReachUndeployed  Reach = "not_implemented"
)

// Classify maps an HTTP status code to a Reach.
func Classify(status int) Reach {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ReachAuth
	case status == http.StatusTooManyRequests:
		return ReachThrottled
	case status == http.StatusNotFound:
		return ReachNotFound
	case status == http.StatusNotImplemented:
		return ReachUndeployed
	case status >= 200 && status < 300:
		return ReachOK
	case status >= 300 && status < 400:
		return ReachRedirect
	case status >= 400 && status < 500:
		return ReachRejected
	case status >= 500:
		return ReachServerError
	default:
		return ReachNone
	}
}
