package gazet

import (
	"time"

	runtimepkg "github.com/alexandra-wolf/gazet/internal/runtime"
	errspkg "github.com/alexandra-wolf/gazet/internal/runtime/errors"
	handlerpkg "github.com/alexandra-wolf/gazet/internal/runtime/handlers"
	idspkg "github.com/alexandra-wolf/gazet/internal/runtime/ids"
	jsoncodec "github.com/alexandra-wolf/gazet/internal/runtime/jsoncodec"
	loggingpkg "github.com/alexandra-wolf/gazet/internal/runtime/logging"
	metadatapkg "github.com/alexandra-wolf/gazet/internal/runtime/metadata"
	settingspkg "github.com/alexandra-wolf/gazet/internal/runtime/settings"
	sourcepkg "github.com/alexandra-wolf/gazet/source"
	"google.golang.org/protobuf/proto"
)

type (
	Options   = runtimepkg.Options
	Schema    = runtimepkg.Schema
	Field     = runtimepkg.Field
	Kind      = runtimepkg.Kind
	StartOpt  = runtimepkg.StartOpt
	StartOpts = runtimepkg.StartOpts

	Blueprint     = runtimepkg.Blueprint
	Config        = runtimepkg.Config
	Builder       = runtimepkg.Builder
	BuilderOption = runtimepkg.BuilderOption

	Subscriber = runtimepkg.Subscriber
	Source     = runtimepkg.Source
	State      = runtimepkg.State
	Base       = runtimepkg.Base

	Message = runtimepkg.Message
	Batch   = runtimepkg.Batch

	MessageHandler     = runtimepkg.MessageHandler
	MessageHandlerFunc = runtimepkg.MessageHandlerFunc
	ErrorHandler       = runtimepkg.ErrorHandler
	RecoveryFunc       = handlerpkg.RecoveryFunc

	JSONHandler[T any]            handlerpkg.JSONHandler[T]
	ProtoHandler[T proto.Message] handlerpkg.ProtoHandler[T]

	ProcessSpec      = runtimepkg.ProcessSpec
	RestartPolicy    = runtimepkg.RestartPolicy
	Supervisor       = runtimepkg.Supervisor
	SupervisorOption = runtimepkg.SupervisorOption

	BatchHandlerFunc = runtimepkg.BatchHandlerFunc
	Middleware       = runtimepkg.Middleware

	// Dispatch lifecycle hooks
	BatchInfo     = runtimepkg.BatchInfo
	DispatchHooks = runtimepkg.DispatchHooks

	// Dispatch metrics
	DispatchMetrics    = runtimepkg.DispatchMetrics
	TopicDispatchStats = runtimepkg.TopicDispatchStats

	Metadata = metadatapkg.Metadata

	LogFields = loggingpkg.LogFields
	Logger    = loggingpkg.Logger

	SchemaError     = errspkg.SchemaError
	NoConfigError   = errspkg.NoConfigError
	UnresolvedError = errspkg.UnresolvedError
	HandlerError    = errspkg.HandlerError
	DecodeError     = errspkg.DecodeError

	// Settings store backing environment resolution
	SettingsStore    = settingspkg.Store
	SettingsRegistry = settingspkg.Registry
	SettingsScope    = settingspkg.Scope

	// Source units and the transport registry behind them
	Unit            = sourcepkg.Unit
	UnitOption      = sourcepkg.UnitOption
	Endpoints       = sourcepkg.Endpoints
	EndpointConfig  = sourcepkg.Config
	SourceTransport = sourcepkg.Transport
	SourceBuilder   = sourcepkg.Builder
	SourceRegistry  = sourcepkg.Registry
	Capabilities    = sourcepkg.Capabilities
)

var (
	NewBuilder         = runtimepkg.NewBuilder
	WithSchema         = runtimepkg.WithSchema
	WithStore          = runtimepkg.WithStore
	WithFrameworkScope = runtimepkg.WithFrameworkScope

	DefaultSchema   = runtimepkg.DefaultSchema
	CoerceStartOpts = runtimepkg.CoerceStartOpts

	RawConfig      = runtimepkg.RawConfig
	ResolvedConfig = runtimepkg.ResolvedConfig

	NewBase  = runtimepkg.NewBase
	Dispatch = runtimepkg.Dispatch
	NewBatch = runtimepkg.NewBatch

	ChildSpec          = runtimepkg.ChildSpec
	NewSupervisor      = runtimepkg.NewSupervisor
	WithRestartBackoff = runtimepkg.WithRestartBackoff

	Chain               = runtimepkg.Chain
	HandleBatchFunc     = runtimepkg.HandleBatchFunc
	RecovererMiddleware = runtimepkg.RecovererMiddleware
	LoggingMiddleware   = runtimepkg.LoggingMiddleware
	TracingMiddleware   = runtimepkg.TracingMiddleware
	MetricsMiddleware   = runtimepkg.MetricsMiddleware

	// Dispatch lifecycle hooks
	HooksMiddleware = runtimepkg.HooksMiddleware
	LoggingHooks    = runtimepkg.LoggingHooks

	// Dispatch metrics
	NewDispatchMetrics = runtimepkg.NewDispatchMetrics

	// Per-message recovery for the default dispatch loop
	WithRecovery = handlerpkg.WithRecovery
	SkipErrors   = handlerpkg.SkipErrors

	// Publishing helpers for custom plumbing; units expose the same
	// operations as methods.
	NewMessage      = runtimepkg.NewMessage
	NewMessageJSON  = runtimepkg.NewMessageJSON
	NewMessageProto = runtimepkg.NewMessageProto
	Publish         = runtimepkg.Publish
	PublishJSON     = runtimepkg.PublishJSON
	PublishProto    = runtimepkg.PublishProto

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrModuleRequired         = errspkg.ErrModuleRequired
	ErrSourceRequired         = errspkg.ErrSourceRequired
	ErrNilBlueprint           = errspkg.ErrNilBlueprint
	ErrEmptyBatch             = errspkg.ErrEmptyBatch
	ErrPublisherRequired      = errspkg.ErrPublisherRequired
	ErrTopicRequired          = errspkg.ErrTopicRequired
	ErrHandlerRequired        = errspkg.ErrHandlerRequired
	ErrPayloadRequired        = errspkg.ErrPayloadRequired
	ErrPayloadPointerRequired = errspkg.ErrPayloadPointerRequired
	ErrUnknownSystem          = errspkg.ErrUnknownSystem
	ErrNoTopics               = errspkg.ErrNoTopics
	ErrRunRequired            = errspkg.ErrRunRequired

	NewSlogLogger       = loggingpkg.NewSlogLogger
	NewWatermillLogger  = loggingpkg.NewWatermillLogger
	NewWatermillAdapter = loggingpkg.NewWatermillAdapter

	NewMetadata = metadatapkg.New

	NewULID = idspkg.New

	// Settings store feeding environment resolution. Put defaults under
	// (app, "subscriber"); Load and Watch keep a YAML file in sync with the
	// default registry.
	NewSettingsRegistry     = settingspkg.NewRegistry
	DefaultSettingsRegistry = settingspkg.Default
	PutSettings             = settingspkg.Put
	DeleteSettings          = settingspkg.Delete
	LookupSettings          = settingspkg.Lookup
	LoadSettings            = settingspkg.Load
	WatchSettings           = settingspkg.Watch

	// Source registry.
	// Import individual systems via: _ "github.com/alexandra-wolf/gazet/source/kafka"
	// or everything at once via the source/sources package.
	NewUnit                        = sourcepkg.NewUnit
	DefaultSourceRegistry          = sourcepkg.DefaultRegistry
	NewSourceRegistry              = sourcepkg.NewRegistry
	RegisterSource                 = sourcepkg.Register
	RegisterSourceWithCapabilities = sourcepkg.RegisterWithCapabilities
	BuildSource                    = sourcepkg.Build
	GetCapabilities                = sourcepkg.GetCapabilities

	// Unit options
	WithApp                   = sourcepkg.WithApp
	WithEndpoints             = sourcepkg.WithEndpoints
	WithRegistry              = sourcepkg.WithRegistry
	WithLogger                = sourcepkg.WithLogger
	WithMiddleware            = sourcepkg.WithMiddleware
	WithHooks                 = sourcepkg.WithHooks
	WithMetrics               = sourcepkg.WithMetrics
	WithBatchDefaults         = sourcepkg.WithBatchDefaults
	WithoutDefaultMiddlewares = sourcepkg.WithoutDefaultMiddlewares
)

// Schema option keys understood by the default subscriber schema.
const (
	OptModule         = runtimepkg.OptModule
	OptApp            = runtimepkg.OptApp
	OptID             = runtimepkg.OptID
	OptSource         = runtimepkg.OptSource
	OptStartOpts      = runtimepkg.OptStartOpts
	OptSubscriberOpts = runtimepkg.OptSubscriberOpts
)

// Schema field kinds.
const (
	KindAny       = runtimepkg.KindAny
	KindString    = runtimepkg.KindString
	KindModule    = runtimepkg.KindModule
	KindSource    = runtimepkg.KindSource
	KindStartOpts = runtimepkg.KindStartOpts
)

// Restart policies for supervised subscriber processes.
const (
	RestartPermanent = runtimepkg.RestartPermanent
	RestartTransient = runtimepkg.RestartTransient
	RestartTemporary = runtimepkg.RestartTemporary
)

// start_opts keys the source units act on.
const (
	StartOptTopics        = sourcepkg.StartOptTopics
	StartOptBatchSize     = sourcepkg.StartOptBatchSize
	StartOptFlushInterval = sourcepkg.StartOptFlushInterval

	DefaultBatchSize     = sourcepkg.DefaultBatchSize
	DefaultFlushInterval = sourcepkg.DefaultFlushInterval
)

// Metadata keys stamped by gazet - use these constants to read them back.
const (
	MetadataKeySource = metadatapkg.KeySource
	MetadataKeyApp    = metadatapkg.KeyApp
	MetadataKeySchema = metadatapkg.KeySchema
)

// Settings scopes consulted during environment resolution.
const (
	FrameworkScope      = settingspkg.FrameworkScope
	SubscriberComponent = settingspkg.SubscriberComponent
)

// SubscriberOpts returns bp's subscriber options as T, reporting false when
// they are unset or of a different type.
func SubscriberOpts[T any](bp *Blueprint) (T, bool) {
	return runtimepkg.SubscriberOpts[T](bp)
}

func BuildJSONHandler[T any](handler JSONHandler[T]) (MessageHandler, error) {
	return handlerpkg.BuildJSONHandler(handlerpkg.JSONHandler[T](handler))
}

func MustJSONHandler[T any](handler JSONHandler[T]) MessageHandler {
	return handlerpkg.MustJSONHandler(handlerpkg.JSONHandler[T](handler))
}

func BuildProtoHandler[T proto.Message](handler ProtoHandler[T]) (MessageHandler, error) {
	return handlerpkg.BuildProtoHandler(handlerpkg.ProtoHandler[T](handler))
}

func MustProtoHandler[T proto.Message](handler ProtoHandler[T]) MessageHandler {
	return handlerpkg.MustProtoHandler(handlerpkg.ProtoHandler[T](handler))
}

// Topics returns a start_opts list naming the topics a subscriber consumes.
// Example: gazet.RawConfig(gazet.Options{"source": unit, "start_opts": gazet.Topics("orders.created")})
func Topics(topics ...string) StartOpts {
	return StartOpts{{Key: StartOptTopics, Value: topics}}
}

// Batching returns start_opts entries overriding the unit's batch size and
// flush interval for one subscriber. Combine with Topics via Merge:
// gazet.Topics("orders.created").Merge(gazet.Batching(50, time.Second))
func Batching(size int, flushInterval time.Duration) StartOpts {
	return StartOpts{
		{Key: StartOptBatchSize, Value: size},
		{Key: StartOptFlushInterval, Value: flushInterval},
	}
}
