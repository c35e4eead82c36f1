package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
)

var (
	InvalidJSON = `{"invalid": json}`
)

const bearer = "Bearer alice-token"

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body
func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	req, err := http.NewRequest(method, url, createJSONRequest(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withAuth(req *http.Request) *http.Request {
	req.Header.Set("Authorization", bearer)
	return req
}

func decodeError(body *bytes.Buffer) string {
	var payload map[string]string
	_ = json.Unmarshal(body.Bytes(), &payload)
	return payload["error"]
}
