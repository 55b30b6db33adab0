package migrate

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/recommend_shop/internal/es"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/elastic/go-elasticsearch/v9"
)

func keyword() map[string]any { return map[string]any{"type": "keyword"} }
func date() map[string]any    { return map[string]any{"type": "date"} }

func UsersMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":                 keyword(),
				"email":              keyword(),
				"username":           keyword(),
				"password":           map[string]any{"type": "keyword", "index": false},
				"status":             keyword(),
				"created_at":         date(),
				"reset_token":        keyword(),
				"reset_token_expiry": date(),
			},
		},
	}
}

func RefreshTokensMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"user_id":    keyword(),
				"token":      keyword(),
				"expiry":     date(),
				"created_at": date(),
			},
		},
	}
}

// EnsureIndex creates index with body unless it already exists. It reports
// whether the index was created.
func EnsureIndex(ctx context.Context, client *elasticsearch.Client, index string, body map[string]any) (bool, error) {
	res, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	err = es.Decode(res, err, nil)
	if err == nil {
		return false, nil
	}
	if !es.IsNotFound(err) {
		return false, err
	}

	buf, err := es.Body(body)
	if err != nil {
		return false, err
	}
	res, err = client.Indices.Create(index,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(buf),
	)
	err = es.Decode(res, err, nil)
	if es.IsStatus(err, http.StatusBadRequest) {
		// lost a race with another migrator; re-check
		res, err2 := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
		if es.Decode(res, err2, nil) == nil {
			return false, nil
		}
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Indices creates the users and refresh-token indices used by the
// elasticsearch store backend.
func Indices(ctx context.Context, client *elasticsearch.Client, usersIndex, tokensIndex string) error {
	l := logging.FromContext(ctx).With("component", "migrate")

	for _, ix := range []struct {
		name string
		body map[string]any
	}{
		{usersIndex, UsersMapping()},
		{tokensIndex, RefreshTokensMapping()},
	} {
		created, err := EnsureIndex(ctx, client, ix.name, ix.body)
		if err != nil {
			l.Error("index_create_failed", "index", ix.name, "error", err)
			return err
		}
		if created {
			l.Info("index_created", "index", ix.name)
		} else {
			l.Info("index_exists", "index", ix.name)
		}
	}
	return nil
}
