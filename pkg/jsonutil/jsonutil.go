// Package jsonutil centralizes JSON codec access on bytedance/sonic so
// most of the tree shares one codec configuration for wire payloads.
package jsonutil

import "github.com/bytedance/sonic"

var api = sonic.ConfigStd

// Marshal encodes v as JSON.
func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalString encodes v as a JSON string.
func MarshalString(v interface{}) (string, error) {
	return api.MarshalToString(v)
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v interface{}) error {
	return api.Unmarshal(data, v)
}

// UnmarshalString decodes a JSON string into v.
func UnmarshalString(data string, v interface{}) error {
	return api.UnmarshalFromString(data, v)
}

// Valid reports whether data is well-formed JSON.
func Valid(data []byte) bool {
	return sonic.Valid(data)
}
