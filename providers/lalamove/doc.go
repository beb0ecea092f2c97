// Package lalamove is the outbound call component for the Lalamove v3 REST API.
//
// It builds the quotation and order bodies, signs every call with the HMAC
// scheme from package auth and returns the provider response untouched.
package lalamove
