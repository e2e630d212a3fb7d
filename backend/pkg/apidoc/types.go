package apidoc

// RouteInfo describes one HTTP operation for documentation.
type RouteInfo struct {
	OperationID string
	Method      string
	Path        string
	Summary     string
	Description string
	Group       string
	Deprecated  string
	Parameters  []ParameterInfo
	Request     *RequestBodyInfo
	Responses   map[int]ResponseInfo
}

// ParameterInfo describes a path, query or header parameter.
type ParameterInfo struct {
	Name        string
	In          string
	TypeValue   any
	Description string
	Required    bool
}

// RequestBodyInfo describes a JSON request body.
type RequestBodyInfo struct {
	Description string
	TypeValue   any
	Examples    map[string]any
}

// ResponseInfo describes one response status.
type ResponseInfo struct {
	Description string
	TypeValue   any
	Examples    map[string]any
}

// MQTTPublicationInfo describes a message the server publishes.
type MQTTPublicationInfo struct {
	OperationID string
	Topic       string
	Summary     string
	Description string
	Group       string
	Deprecated  string
	QoS         byte
	Retained    bool
	TypeValue   any
	Examples    map[string]any
}

// MQTTSubscriptionInfo describes a message the server consumes.
type MQTTSubscriptionInfo struct {
	OperationID string
	Topic       string
	Summary     string
	Description string
	Group       string
	Deprecated  string
	QoS         byte
	TypeValue   any
	Examples    map[string]any
}

// RouteMetadataCollector receives HTTP route metadata from the router.
type RouteMetadataCollector interface {
	RegisterRoute(route *RouteInfo) error
}

// MQTTMetadataCollector receives MQTT operation metadata from the MQTT builder.
type MQTTMetadataCollector interface {
	RegisterMQTTPublication(pub *MQTTPublicationInfo) error
	RegisterMQTTSubscription(sub *MQTTSubscriptionInfo) error
}

// MetadataCollector collects both HTTP and MQTT metadata.
type MetadataCollector interface {
	RouteMetadataCollector
	MQTTMetadataCollector
}

// NoopCollector discards everything. Used by binaries that do not serve docs.
type NoopCollector struct{}

func (NoopCollector) RegisterRoute(*RouteInfo) error                       { return nil }
func (NoopCollector) RegisterMQTTPublication(*MQTTPublicationInfo) error   { return nil }
func (NoopCollector) RegisterMQTTSubscription(*MQTTSubscriptionInfo) error { return nil }
