package goodfire

import "cotfaith/internal/llm"

// chatRequest is the JSON payload for chat completions.
type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []llm.Message `json:"messages"`
	Stream              bool          `json:"stream"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Controller          *controller   `json:"controller,omitempty"`
}

// controller carries feature edits applied for a single request.
type controller struct {
	Interventions []intervention `json:"interventions"`
}

// intervention pins a group of features to one value.
type intervention struct {
	Mode     string        `json:"mode"`
	Features []llm.Feature `json:"features"`
	Value    float64       `json:"value"`
}

// chatResponse is a non-streaming completion.
type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

// streamChunk is one SSE data payload.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type searchRequest struct {
	Query string `json:"query"`
	Model string `json:"model"`
	TopK  int    `json:"top_k"`
}

type contrastRequest struct {
	Dataset1    [][]llm.Message `json:"dataset_1"`
	Dataset2    [][]llm.Message `json:"dataset_2"`
	Model       string          `json:"model"`
	TopK        int             `json:"top_k"`
	RerankQuery string          `json:"dataset_2_feature_rerank_query,omitempty"`
}

type contrastResponse struct {
	Dataset1Features []llm.Feature `json:"dataset_1_features"`
	Dataset2Features []llm.Feature `json:"dataset_2_features"`
}

type inspectRequest struct {
	Messages []llm.Message `json:"messages"`
	Model    string        `json:"model"`
}

type neighborsRequest struct {
	FeatureIDs []string `json:"feature_ids"`
	Model      string   `json:"model"`
	TopK       int      `json:"top_k,omitempty"`
}

type featureList struct {
	Features []llm.Feature `json:"features"`
}

// buildController converts an intervention into the request controller, or nil
// for the baseline.
func buildController(in llm.Intervention) *controller {
	if in.IsBaseline() {
		return nil
	}
	return &controller{Interventions: []intervention{{
		Mode:     "pin",
		Features: in.Features(),
		Value:    in.Strength(),
	}}}
}
