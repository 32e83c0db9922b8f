package server

import (
	"context"
	"net/http"

	"github.com/n9te9/go-graphql-composer/federation/transport"
	"github.com/n9te9/go-graphql-composer/gateway"
	"github.com/n9te9/go-graphql-composer/registry"
	"github.com/rs/zerolog"
)

func newTransport(opt *gateway.GatewayOption, metrics *transport.Metrics) *transport.Client {
	httpClient := &http.Client{
		Timeout: opt.Timeout(),
	}
	return transport.NewClient(httpClient, opt.Retry, opt.Opentelemetry.TracingSetting.Enable, metrics)
}

func buildFunc(opt gateway.GatewayOption, logger zerolog.Logger, client *transport.Client) registry.BuildFunc {
	return func(ctx context.Context) (*gateway.Gateway, error) {
		return gateway.NewGateway(ctx, opt, logger, client)
	}
}

// ComposeSDL composes the subgraphs of the config at configPath once and returns the
// merged schema.
func ComposeSDL(ctx context.Context, configPath string) (string, error) {
	opt, err := gateway.LoadOption(configPath)
	if err != nil {
		return "", err
	}

	gw, err := buildFunc(*opt, NewLogger(opt), newTransport(opt, nil))(ctx)
	if err != nil {
		return "", err
	}
	return gw.SDL(), nil
}
