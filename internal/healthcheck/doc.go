// Package healthcheck implements periodic health checking for the preview
// server's emulated targets. It monitors target availability and updates
// their health status based on HTTP health endpoint responses.
package healthcheck
