// Package rewrite builds rewrite prompts and runs them against a generator
// with bounded retries.
package rewrite

import (
	"fmt"

	"github.com/diogo/msgcoach/internal/models"
)

const promptTemplate = `
%s

Rewrite the message to sound %s, natural, and respectful.
Preserve intent and length where possible.

Please format your response EXACTLY as follows:
**Rewritten Message:**
[your rewritten version here]

**Original Tone:**
[one of: confident, awkward, neutral, shy, overeager, casual]

**Reason for Change:**
[one sentence explanation]

Message:
%s
`

// BuildPrompt renders the instruction text sent to the model.
// sanitized must already have gone through privacy masking.
func BuildPrompt(systemInstructions string, tone models.Tone, sanitized string) string {
	return fmt.Sprintf(promptTemplate, systemInstructions, tone.Lower(), sanitized)
}
