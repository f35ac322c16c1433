package chatbot

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/docsearch/internal/models"
)

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

const answerTemplate = `Answer the question using the context given below, or using your own knowledge. Refer to the origin of your knowledge using the isin, page and shortname in a natural way. If you can't find an answer, say that you don't know. Do not make things up.

Context:
%s

Question:
%s

Answer:`

func renderHistory(history []models.Exchange) string {
	var b strings.Builder
	for _, ex := range history {
		fmt.Fprintf(&b, "Question: %s\nAnswer: %s\n\n", ex.Question, ex.Answer)
	}
	return b.String()
}

func condensePrompt(history []models.Exchange, question string) string {
	return fmt.Sprintf(condenseTemplate, renderHistory(history), question)
}

// renderContext lists passages in rank order; pages are shown one-based.
func renderContext(passages []models.Passage) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Shortname: %s\nISIN: %s\nPage: %d\nContent: %s\n",
			p.Metadata.Shortname, p.Metadata.ISIN, p.Page+1, p.Content)
	}
	return b.String()
}

func answerPrompt(passages []models.Passage, question string) string {
	return fmt.Sprintf(answerTemplate, renderContext(passages), question)
}
