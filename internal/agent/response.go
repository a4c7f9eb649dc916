package agent

// Intent is one of the closed set of labels the classifier can produce.
type Intent string

const (
	IntentDescriptiveSummary Intent = "descriptive_summary"
	IntentCentralTendency    Intent = "central_tendency"
	IntentVariability        Intent = "variability"
	IntentInterval           Intent = "interval"
	IntentDistribution       Intent = "distribution"
	IntentCorrelation        Intent = "correlation"
	IntentOutliers           Intent = "outliers"
	IntentVisualization      Intent = "visualization"
	IntentClustering         Intent = "clustering"
	IntentSearch             Intent = "search"
	IntentCount              Intent = "count"
	IntentDataLoading        Intent = "data_loading"
	IntentConversational     Intent = "conversational"
	IntentUnknown            Intent = "unknown"
)

// StatisticalIntents are the intents dispatched to dedicated handlers
// instead of the retrieval-augmented answerer.
var StatisticalIntents = map[Intent]bool{
	IntentCentralTendency: true,
	IntentVariability:     true,
	IntentInterval:        true,
	IntentDistribution:    true,
	IntentCorrelation:     true,
	IntentOutliers:        true,
	IntentClustering:      true,
	IntentVisualization:   true,
}

// Metadata is the machine-readable half of a response.
type Metadata struct {
	SessionID            string         `json:"session_id,omitempty"`
	AgentsUsed           []string       `json:"agents_used,omitempty"`
	Intent               Intent         `json:"intent,omitempty"`
	ChunksFound          int            `json:"chunks_found,omitempty"`
	ChunksUsed           int            `json:"chunks_used,omitempty"`
	AvgSimilarity        float64        `json:"avg_similarity,omitempty"`
	TopSimilarity        float64        `json:"top_similarity,omitempty"`
	ProcessingTimeMS     int64          `json:"processing_time_ms"`
	FromCache            bool           `json:"from_cache,omitempty"`
	MemoryEnabled        bool           `json:"memory_enabled"`
	PreviousInteractions int            `json:"previous_interactions,omitempty"`
	ModelUsed            string         `json:"model_used,omitempty"`
	Statistics           map[string]any `json:"statistics,omitempty"`
	MemoryStats          map[string]int `json:"memory_stats,omitempty"`
	Charts               []string       `json:"charts,omitempty"`
	Error                string         `json:"error,omitempty"`
}

// Response is the structured result of answering one query. Failures that
// must be user-visible are responses with Success=false, not errors.
type Response struct {
	Content    string   `json:"content"`
	Success    bool     `json:"success"`
	Confidence float64  `json:"confidence"`
	Metadata   Metadata `json:"metadata"`
}

// Failure builds an unsuccessful response with the given user-facing text.
func Failure(text string, kind Kind) *Response {
	return &Response{
		Content: text,
		Metadata: Metadata{
			Error: string(kind),
		},
	}
}
