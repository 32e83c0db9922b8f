package gateway

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/n9te9/go-graphql-composer/composer"
	"github.com/n9te9/go-graphql-composer/federation/transport"
	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("invalid gateway config")

const (
	DefaultEndpoint        = "/graphql"
	DefaultPort            = 8080
	DefaultTimeoutDuration = "5s"
)

type GatewayOption struct {
	Endpoint                    string                `yaml:"endpoint" default:"/graphql"`
	ServiceName                 string                `yaml:"service_name"`
	Port                        int                   `yaml:"port" default:"8080"`
	TimeoutDuration             string                `yaml:"timeout_duration" default:"5s"`
	EnableHangOverRequestHeader bool                  `yaml:"enable_hang_over_request_header" default:"true"`
	QueryTypeName               string                `yaml:"query_type_name" default:"Query"`
	MutationTypeName            string                `yaml:"mutation_type_name" default:"Mutation"`
	AddEntitiesResolvers        bool                  `yaml:"add_entities_resolvers"`
	SkipFailedSubGraphs         bool                  `yaml:"skip_failed_subgraphs"`
	MaxDepth                    int                   `yaml:"max_depth" default:"16"`
	LogLevel                    string                `yaml:"log_level" default:"info"`
	LogFormat                   string                `yaml:"log_format" default:"json"`
	Retry                       transport.RetryOption `yaml:"retry"`
	SubGraphs                   []SubGraphSetting     `yaml:"subgraphs"`
	Opentelemetry               OpentelemetrySetting  `yaml:"opentelemetry"`
}

type OpentelemetrySetting struct {
	TracingSetting OpentelemetryTracingSetting `yaml:"tracing"`
}

type OpentelemetryTracingSetting struct {
	Enable   bool   `yaml:"enable" default:"false"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

type SubGraphSetting struct {
	Name            string                   `yaml:"name"`
	Host            string                   `yaml:"host"`
	ComposeEndpoint string                   `yaml:"compose_endpoint"`
	GraphQLEndpoint string                   `yaml:"graphql_endpoint"`
	Entities        map[string]EntitySetting `yaml:"entities"`
}

type EntitySetting struct {
	PKey     string              `yaml:"pkey"`
	FKeys    []ForeignKeySetting `yaml:"fkeys"`
	Many     []ManySetting       `yaml:"many"`
	Resolver *ResolverSetting    `yaml:"resolver"`
}

type ForeignKeySetting struct {
	Type     string           `yaml:"type"`
	Field    string           `yaml:"field"`
	PKey     string           `yaml:"pkey"`
	As       string           `yaml:"as"`
	SubGraph string           `yaml:"subgraph"`
	Resolver *ResolverSetting `yaml:"resolver"`
}

type ManySetting struct {
	Type     string           `yaml:"type"`
	As       string           `yaml:"as"`
	PKey     string           `yaml:"pkey"`
	FKey     string           `yaml:"fkey"`
	SubGraph string           `yaml:"subgraph"`
	Resolver *ResolverSetting `yaml:"resolver"`
}

// ResolverSetting names a subgraph root field. Args and PartialResults use gjson paths
// on the parent rows; without Args the pkey list adapter is used.
type ResolverSetting struct {
	Name           string            `yaml:"name"`
	Args           []ArgSetting      `yaml:"args"`
	PartialResults map[string]string `yaml:"partial_results"`
}

type ArgSetting struct {
	Arg    string `yaml:"arg"`
	Key    string `yaml:"key"`
	Single bool   `yaml:"single"`
}

// LoadOption reads a YAML config file and applies defaults.
func LoadOption(path string) (*GatewayOption, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseOption(src)
}

// ParseOption decodes a YAML config and applies defaults.
func ParseOption(src []byte) (*GatewayOption, error) {
	var opt GatewayOption
	if err := yaml.Unmarshal(src, &opt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	opt.Defaults()

	if _, err := time.ParseDuration(opt.TimeoutDuration); err != nil {
		return nil, fmt.Errorf("%w: timeout_duration: %v", ErrInvalidConfig, err)
	}
	if _, err := zerolog.ParseLevel(opt.LogLevel); err != nil {
		return nil, fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}

	return &opt, nil
}

// Defaults fills the zero values of o.
func (o *GatewayOption) Defaults() {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.TimeoutDuration == "" {
		o.TimeoutDuration = DefaultTimeoutDuration
	}
	if o.ServiceName == "" {
		o.ServiceName = "graphql-composer"
	}
	if o.LogLevel == "" {
		o.LogLevel = zerolog.LevelInfoValue
	}
	if o.LogFormat == "" {
		o.LogFormat = "json"
	}
}

// Timeout returns the parsed timeout_duration.
func (o *GatewayOption) Timeout() time.Duration {
	d, err := time.ParseDuration(o.TimeoutDuration)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// ComposerOptions converts the config into composer options.
func (o *GatewayOption) ComposerOptions(logger zerolog.Logger, t composer.Transport) composer.Options {
	opts := composer.Options{
		QueryTypeName:        o.QueryTypeName,
		MutationTypeName:     o.MutationTypeName,
		AddEntitiesResolvers: o.AddEntitiesResolvers,
		MaxDepth:             o.MaxDepth,
		Logger:               logger,
		Transport:            t,
	}
	if o.SkipFailedSubGraphs {
		opts.OnSubGraphError = func(err error, subGraph string) error {
			logger.Error().Err(err).Str("subgraph", subGraph).Msg("subgraph left out of the composition")
			return nil
		}
	}

	for _, s := range o.SubGraphs {
		sub := composer.SubGraphOption{
			Name: s.Name,
			Server: composer.ServerOption{
				Host:            s.Host,
				ComposeEndpoint: s.ComposeEndpoint,
				GraphQLEndpoint: s.GraphQLEndpoint,
			},
		}
		if len(s.Entities) > 0 {
			sub.Entities = make(map[string]composer.EntityOption, len(s.Entities))
		}
		for typeName, e := range s.Entities {
			sub.Entities[typeName] = e.entityOption()
		}
		opts.SubGraphs = append(opts.SubGraphs, sub)
	}

	return opts
}

func (e EntitySetting) entityOption() composer.EntityOption {
	entity := composer.EntityOption{
		PKey:     e.PKey,
		Resolver: e.Resolver.resolverOption(),
	}
	for _, fk := range e.FKeys {
		entity.FKeys = append(entity.FKeys, composer.ForeignKeyOption{
			Type:     fk.Type,
			Field:    fk.Field,
			PKey:     fk.PKey,
			As:       fk.As,
			SubGraph: fk.SubGraph,
			Resolver: fk.Resolver.resolverOption(),
		})
	}
	for _, m := range e.Many {
		entity.Many = append(entity.Many, composer.ManyOption{
			Type:     m.Type,
			As:       m.As,
			PKey:     m.PKey,
			FKey:     m.FKey,
			SubGraph: m.SubGraph,
			Resolver: m.Resolver.resolverOption(),
		})
	}
	return entity
}

func (r *ResolverSetting) resolverOption() *composer.ResolverOption {
	if r == nil {
		return nil
	}

	opt := &composer.ResolverOption{Name: r.Name}
	if len(r.Args) > 0 {
		adapter := make(composer.TemplateArgsAdapter, 0, len(r.Args))
		for _, a := range r.Args {
			adapter = append(adapter, composer.ArgsTemplate{Arg: a.Arg, Key: a.Key, Single: a.Single})
		}
		opt.ArgsAdapter = adapter
	}
	if len(r.PartialResults) > 0 {
		opt.PartialResults = composer.FieldsRowsFilter(r.PartialResults)
	}
	return opt
}
