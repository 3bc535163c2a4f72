package analysis

import (
	"context"

	"github.com/prasetyo/lapak-ai/llm"
	"github.com/rs/zerolog/log"
)

const chainTemperature = 0.7

// runChain executes the fixed stage chain strictly sequentially: every
// stage's prompt embeds the literal text of its predecessors, so stage n
// cannot start before stage n-1 has produced its output. A backend error
// aborts the whole chain; there is no partial-result continuation.
func (a *Analyzer) runChain(ctx context.Context, in Input, g Grounding) ([]StageOutput, error) {
	stages := chainStages()
	outputs := make([]StageOutput, 0, len(stages))

	for _, st := range stages {
		req := llm.Request{
			Model:       st.model,
			Temperature: chainTemperature,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Text: st.persona()},
				{Role: llm.RoleUser, Text: st.build(in, g, outputs)},
			},
		}
		if st.withImage && len(in.Image) > 0 {
			req.Image = in.Image
		}

		stageCtx, cancel := context.WithTimeout(ctx, a.llmTimeout)
		text, err := a.backend.Generate(stageCtx, req)
		cancel()
		if err != nil {
			return nil, &ChainError{Stage: st.name, Err: err}
		}

		log.Debug().
			Str("stage", st.name).
			Int("outputLen", len(text)).
			Msg("chain stage completed")
		outputs = append(outputs, StageOutput{Stage: st.name, Text: text})
	}

	return outputs, nil
}
