// Package handler implements the preview server's HTTP request handler. It
// applies a converted serving configuration to live traffic: redirect rules,
// header injection, clean-URL and trailing-slash normalization, and rewrite
// proxying to locally emulated services.
package handler
