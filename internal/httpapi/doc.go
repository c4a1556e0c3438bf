// Package httpapi exposes abra's account and messaging services over HTTP.
//
// Routing uses chi. /signup and /login are public; everything under
// /message sits behind the auth middleware. Request payloads are validated
// with go-playground/validator before they reach a service, and service
// errors map to JSON error responses in one place (sendError): domain
// rejections become 400, bad credentials 401, and anything outside the
// known taxonomy is reported as the store being unavailable (503).
package httpapi
