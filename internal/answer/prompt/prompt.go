// Package prompt assembles the system/history/user message list sent to the
// LLM, embedding retrieved sources as numbered, cited passages and enforcing
// strict grounding rules.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/llm"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const noAnswerPhrase = "情報がありません"

const systemPreamble = `あなたは本田健の教えに基づいて質問に答えるアシスタントです。
以下の情報源にのみ基づいて回答してください。情報源に答えがない場合は「` + noAnswerPhrase + `」と答えてください。
引用する際は情報源の番号を示してください。回答は簡潔に、2〜3文、150文字程度に収めてください。
本田健の口調と価値観を保ってください。`

// Builder assembles CompletionRequests from a user message, conversation
// history, and retrieved sources.
type Builder struct{}

// New returns a Builder. It holds no state; all inputs are passed to Build.
func New() *Builder {
	return &Builder{}
}

// Build renders the system prompt (grounding rules plus numbered sources)
// and the ordered [history...; user] message list. History entries equal to
// the current message are filtered out to avoid duplication, and the
// current message is always the final entry.
func (b *Builder) Build(message string, history []types.HistoryTurn, sources []types.Source) llm.CompletionRequest {
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	for _, h := range history {
		if strings.TrimSpace(h.Content) == strings.TrimSpace(message) {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(types.RoleUser), Content: message})

	return llm.CompletionRequest{
		SystemPrompt: buildSystemPrompt(sources),
		Messages:     messages,
	}
}

func buildSystemPrompt(sources []types.Source) string {
	if len(sources) == 0 {
		return systemPreamble + "\n\n情報源: なし"
	}

	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n情報源:\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. %s (時間: %s)\n", i+1, s.Text, s.Timestamp)
	}
	return b.String()
}
