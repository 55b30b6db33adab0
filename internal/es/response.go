package es

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// ResponseError is returned for any non-2xx reply from the cluster.
type ResponseError struct {
	Status int
	Body   string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("es: status %d: %s", e.Status, e.Body)
}

func IsStatus(err error, status int) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Status == status
}

func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

func IsConflict(err error) bool { return IsStatus(err, http.StatusConflict) }

func Body(v any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("es: encode body: %w", err)
	}
	return &buf, nil
}

// Decode closes the response and unmarshals it into out when out is non-nil.
func Decode(res *esapi.Response, err error, out any) error {
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &ResponseError{Status: res.StatusCode, Body: string(b)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("es: decode response: %w", err)
	}
	return nil
}

type Hit[T any] struct {
	ID     string   `json:"_id"`
	Score  *float64 `json:"_score"`
	Source T        `json:"_source"`
}

type SearchResponse[T any] struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []Hit[T] `json:"hits"`
	} `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
}

func (r *SearchResponse[T]) Sources() []T {
	out := make([]T, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return out
}

type GetResponse[T any] struct {
	ID     string `json:"_id"`
	Found  bool   `json:"found"`
	Source T      `json:"_source"`
}
