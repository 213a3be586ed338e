// Package proxy implements the reverse-proxy targets the preview server
// forwards run and function rewrites to. It provides connection tracking,
// response time monitoring and health state per emulated service.
package proxy
