package es

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/Skotchmaster/recommend_shop/internal/config"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/elastic/go-elasticsearch/v9"
)

func NewClient(ctx context.Context, cfg *config.Config) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("component", "es", "url", cfg.ESURL)

	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	}
	if cfg.ESInsecureSkipVerify {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		l.Error("es_connect_failed", "reason", "cannot create client", "error", err)
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		l.Error("es_connect_failed", "reason", "info request failed", "error", err)
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_connect_failed", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("es: info: %s", res.Status())
	}

	l.Info("es_connected")
	return client, nil
}
