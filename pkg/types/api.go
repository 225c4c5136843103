package types

// ChatRequest represents one chat turn submitted by a client.
//
// Either Messages (full history, oldest first) or Content (a single new user
// message) must be present. When ConversationID is set the server prepends
// the stored history for that conversation and persists the exchange.
type ChatRequest struct {
	// Optional server-side conversation to continue. Empty with Content set
	// starts a new stored conversation.
	// example: 9b1c7a52-6a93-4de1-8c25-3f1aa0f6f0b7
	ConversationID string `json:"conversation_id,omitempty" example:"9b1c7a52-6a93-4de1-8c25-3f1aa0f6f0b7"`
	// Full message history, oldest first. The last message should be from
	// the user.
	Messages []Message `json:"messages,omitempty"`
	// Convenience form: a single new user message. Appended after Messages
	// when both are present.
	// example: Why is the sky blue?
	Content string `json:"content,omitempty" example:"Why is the sky blue?"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	// Conversation the exchange was stored under, when one was used.
	// example: 9b1c7a52-6a93-4de1-8c25-3f1aa0f6f0b7
	ConversationID string `json:"conversation_id,omitempty" example:"9b1c7a52-6a93-4de1-8c25-3f1aa0f6f0b7"`
	// The assistant's reply.
	Reply Message `json:"reply"`
	// Wall time spent producing the reply, in milliseconds.
	// example: 1843
	ElapsedMS int64 `json:"elapsed_ms" example:"1843"`
	// Rough token estimate for the reply (length-based, diagnostic only).
	// example: 42
	EstTokens int `json:"est_tokens" example:"42"`
}

// ConversationResponse is returned by GET /conversations/{id}.
type ConversationResponse struct {
	// Conversation identifier.
	// example: 9b1c7a52-6a93-4de1-8c25-3f1aa0f6f0b7
	ID string `json:"id" example:"9b1c7a52-6a93-4de1-8c25-3f1aa0f6f0b7"`
	// Stored messages, oldest first.
	Messages []Message `json:"messages"`
	// Creation time in unix seconds.
	// example: 1700000000
	CreatedAtUnix int64 `json:"created_at_unix" example:"1700000000"`
	// Last update time in unix seconds.
	// example: 1700000090
	UpdatedAtUnix int64 `json:"updated_at_unix" example:"1700000090"`
}

// StateResponse reports the lifecycle state after /warmup and /release.
type StateResponse struct {
	// Current lifecycle state: uninitialized, initializing or ready.
	// example: ready
	State string `json:"state" example:"ready"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ModelStatus describes the managed model for /status.
type ModelStatus struct {
	// Artifact file name inside the asset store.
	// example: gemma-2b-it-q8.task
	Name string `json:"name" example:"gemma-2b-it-q8.task"`
	// Resolved path of the working copy, empty before the first load.
	// example: /var/lib/chatd/models/gemma-2b-it-q8.task
	Path string `json:"path,omitempty" example:"/var/lib/chatd/models/gemma-2b-it-q8.task"`
	// Artifact size in bytes, 0 when not yet materialized.
	// example: 2489147392
	SizeBytes int64 `json:"size_bytes,omitempty" example:"2489147392"`
	// Number of initialization attempts since process start.
	// example: 1
	Attempts uint64 `json:"attempts" example:"1"`
	// Time the model became ready (unix seconds), 0 when not ready.
	// example: 1700000000
	LoadedAtUnix int64 `json:"loaded_at_unix,omitempty" example:"1700000000"`
	// Last initialization error observed, if any.
	LastError string `json:"last_error,omitempty"`
}

// DeviceStatus summarizes the capability verdict for /status.
type DeviceStatus struct {
	// Total system memory in MB, 0 when unknown.
	// example: 7820
	TotalMB int `json:"total_mb" example:"7820"`
	// Available system memory in MB, 0 when unknown.
	// example: 4190
	AvailableMB int `json:"available_mb" example:"4190"`
	// Whether the device meets the minimum memory floor.
	// example: true
	Capable bool `json:"capable" example:"true"`
	// Soft warning for low-memory devices, empty when comfortably capable.
	Warning string `json:"warning,omitempty"`
	// Whether the host currently reports memory pressure.
	// example: false
	LowMemory bool `json:"low_memory" example:"false"`
}

// MetricsSummary mirrors the process-lifetime counters for /status.
type MetricsSummary struct {
	// Completed model loads.
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Completed inference calls, successful or not.
	// example: 12
	InferencesTotal uint64 `json:"inferences_total" example:"12"`
	// Classified errors observed.
	// example: 0
	ErrorsTotal uint64 `json:"errors_total" example:"0"`
	// Duration of the most recent model load in milliseconds.
	// example: 5321
	LastLoadMS int64 `json:"last_load_ms" example:"5321"`
	// Duration of the most recent inference in milliseconds.
	// example: 1843
	LastInferMS int64 `json:"last_infer_ms" example:"1843"`
	// Mean inference duration in milliseconds.
	// example: 2011
	AvgInferMS int64 `json:"avg_infer_ms" example:"2011"`
	// Peak heap allocation observed, in MB.
	// example: 3120
	PeakAllocMB uint64 `json:"peak_alloc_mb" example:"3120"`
	// Estimated tokens generated since process start (length heuristic).
	// example: 504
	EstTokensTotal uint64 `json:"est_tokens_total" example:"504"`
}

// LifecycleEvent mirrors one model lifecycle transition for /status.
type LifecycleEvent struct {
	// Transition type: init_started, ready, init_failed or released.
	// example: ready
	Type string `json:"type" example:"ready"`
	// Model the event concerns.
	// example: gemma-2b-it.Q8_0.gguf
	Model string `json:"model" example:"gemma-2b-it.Q8_0.gguf"`
	// Event time in unix seconds.
	// example: 1700000000
	AtUnix int64 `json:"at_unix" example:"1700000000"`
	// Failure text, set on init_failed events.
	Err string `json:"err,omitempty"`
}

// QueueStatus reports generation admission for /status.
type QueueStatus struct {
	// Requests currently generating (0 or 1).
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Requests waiting for the generation slot.
	// example: 0
	Queued int `json:"queued" example:"0"`
	// Maximum queued requests before busy rejections.
	// example: 8
	MaxDepth int `json:"max_depth" example:"8"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall lifecycle state: uninitialized, initializing or ready.
	// example: ready
	State string `json:"state" example:"ready"`
	// Active engine backend.
	// example: llama
	Engine string `json:"engine" example:"llama"`
	// Managed model details.
	Model ModelStatus `json:"model"`
	// Device capability verdict.
	Device DeviceStatus `json:"device"`
	// Performance counters; omitted when metrics are disabled.
	Metrics *MetricsSummary `json:"metrics,omitempty"`
	// Generation admission state.
	Queue QueueStatus `json:"queue"`
	// Recent lifecycle events, oldest first. Omitted when event buffering
	// is off.
	Events []LifecycleEvent `json:"events,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
