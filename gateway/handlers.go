package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const upstreamFailed = "upstream request failed"

var errTrailingData = errors.New("trailing data after JSON value")

// LookupHandler forwards GET <prefix>[/suffix]?query to endpoint+suffix?query.
func LookupHandler(f *Forwarder, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		suffix := strings.TrimPrefix(c.Request.URL.Path, prefix)
		resp, err := f.Get(c.Request.Context(), suffix, c.Request.URL.RawQuery)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": upstreamFailed})
			return
		}
		c.Data(resp.Status, resp.ContentType, resp.Body)
	}
}

// SubmitHandler re-serializes the JSON body and posts it to the endpoint.
// An empty body is sent as {}. Any path suffix is ignored.
func SubmitHandler(f *Forwarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
			return
		}
		body, err := reencode(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body is not valid JSON"})
			return
		}

		resp, err := f.Post(c.Request.Context(), body)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": upstreamFailed})
			return
		}
		c.Data(resp.Status, resp.ContentType, resp.Body)
	}
}

func reencode(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte("{}"), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errTrailingData
	}
	return json.Marshal(v)
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}
