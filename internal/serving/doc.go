// Package serving defines the wire-format serving configuration submitted to
// the hosting API. The shapes mirror the API schema field for field.
package serving
