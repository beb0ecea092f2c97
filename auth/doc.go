// Package auth implements the delivery provider's HMAC request signing scheme.
//
// The canonical signing string is
//
//	timestamp + "\r\n" + METHOD + "\r\n" + path + "\r\n\r\n" + body
//
// hashed with HMAC-SHA256 under the shared secret and rendered as
// "hmac <accessKey>:<timestamp>:<hex signature>".
package auth
